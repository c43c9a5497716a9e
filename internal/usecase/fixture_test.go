package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/event"
	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/riskibarqy/gym-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

const testOrganizationID = "gym-1"

var (
	adminActor     = user.Principal{UserID: "admin-1", IsAdmin: true}
	organizerActor = user.Principal{UserID: "staff-1", OrganizationIDs: []string{testOrganizationID}}
	outsiderActor  = user.Principal{UserID: "staff-2", OrganizationIDs: []string{"gym-2"}}
)

type sequentialIDGenerator struct {
	n atomic.Int64
}

func (g *sequentialIDGenerator) NewID() (string, error) {
	return fmt.Sprintf("id-%04d", g.n.Add(1)), nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e event.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockPublisher) published(typ event.Type) int {
	n := 0
	for _, call := range m.Calls {
		if e, ok := call.Arguments.Get(1).(event.Event); ok && e.Type == typ {
			n++
		}
	}
	return n
}

type testEnv struct {
	clock     time.Time
	publisher *mockPublisher

	tournaments   *TournamentService
	registrations *RegistrationService
	scoring       *ScoringService
	heats         *HeatService
	results       *ResultService
	rankings      *RankingService
	refresher     *RankingRefreshService
	records       *PersonalRecordService
	certificates  *CertificateService
	heatRepo      *memory.HeatRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := memory.NewDatabase()
	tournamentRepo := memory.NewTournamentRepository(db)
	registrationRepo := memory.NewRegistrationRepository(db)
	scoringRepo := memory.NewScoringRepository(db)
	heatRepo := memory.NewHeatRepository(db)
	resultRepo := memory.NewResultRepository(db)
	rankingRepo := memory.NewRankingRepository(db)
	recordRepo := memory.NewPersonalRecordRepository(db)

	idGen := &sequentialIDGenerator{}
	logger := logging.NewNop()
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	env := &testEnv{
		clock:     time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC),
		publisher: publisher,
		heatRepo:  heatRepo,
	}
	now := func() time.Time { return env.clock }

	env.rankings = NewRankingService(tournamentRepo, rankingRepo, recordRepo, RankingCacheConfig{Enabled: true, TTL: time.Minute})
	env.tournaments = NewTournamentService(tournamentRepo, idGen)
	env.tournaments.SetRankingInvalidator(env.rankings)
	env.tournaments.now = now
	env.registrations = NewRegistrationService(tournamentRepo, registrationRepo, idGen, publisher, logger)
	env.registrations.now = now
	env.scoring = NewScoringService(tournamentRepo, scoringRepo)
	env.scoring.now = now
	env.heats = NewHeatService(tournamentRepo, registrationRepo, heatRepo, idGen, publisher, logger)
	env.heats.now = now
	env.results = NewResultService(tournamentRepo, registrationRepo, heatRepo, resultRepo, env.scoring, env.rankings, idGen, publisher, logger)
	env.results.now = now
	env.refresher = NewRankingRefreshService(tournamentRepo, recordRepo, rankingRepo, env.rankings, 2, logger)
	env.refresher.now = now
	env.records = NewPersonalRecordService(recordRepo, idGen)
	env.records.SetRankingInvalidator(env.rankings)
	env.records.now = now
	env.certificates = NewCertificateService(tournamentRepo, registrationRepo, heatRepo, resultRepo, env.rankings)
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEnv) createTournament(t *testing.T, mutate func(*CreateTournamentInput)) tournament.Tournament {
	t.Helper()
	org := testOrganizationID
	input := CreateTournamentInput{
		Name:                 "Spring Throwdown",
		Type:                 tournament.TypeCity,
		OrganizationID:       &org,
		Venue:                "Main Box",
		StartsAt:             e.clock.AddDate(0, 0, 7),
		EndsAt:               e.clock.AddDate(0, 0, 8),
		RegistrationOpensAt:  e.clock.Add(-time.Hour),
		RegistrationClosesAt: e.clock.AddDate(0, 0, 6),
	}
	if mutate != nil {
		mutate(&input)
	}
	created, err := e.tournaments.Create(context.Background(), organizerActor, input)
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	return created
}

// eligible registers athleteID and approves it; free tournaments are paid on entry.
func (e *testEnv) eligible(t *testing.T, tournamentID, athleteID string) registration.Registration {
	t.Helper()
	ctx := context.Background()
	reg, err := e.registrations.Register(ctx, user.Principal{UserID: athleteID}, RegisterInput{
		TournamentID: tournamentID,
		Category:     registration.CategoryAdvanced,
		AgeBracket:   "18-29",
	})
	if err != nil {
		t.Fatalf("register %s: %v", athleteID, err)
	}
	approved, err := e.registrations.Approve(ctx, organizerActor, reg.ID)
	if err != nil {
		t.Fatalf("approve %s: %v", athleteID, err)
	}
	return approved
}

func (e *testEnv) createHeat(t *testing.T, tournamentID string, sequence, capacity int, format heat.Format) heat.Heat {
	t.Helper()
	h, err := e.heats.CreateHeat(context.Background(), organizerActor, CreateHeatInput{
		TournamentID: tournamentID,
		Sequence:     sequence,
		Capacity:     &capacity,
		Format:       format,
	})
	if err != nil {
		t.Fatalf("create heat: %v", err)
	}
	return h
}

func (e *testEnv) allocate(t *testing.T, heatID, registrationID string) heat.Allocation {
	t.Helper()
	a, err := e.heats.Allocate(context.Background(), organizerActor, AllocateInput{HeatID: heatID, RegistrationID: registrationID})
	if err != nil {
		t.Fatalf("allocate %s: %v", registrationID, err)
	}
	return a
}

func intPtr(v int) *int { return &v }
