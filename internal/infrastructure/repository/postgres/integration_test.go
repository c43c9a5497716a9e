//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
)

// Run with: GYM_LEAGUE_TEST_DB_URL=postgres://... go test -tags integration ./internal/infrastructure/repository/postgres/
const testDBURLEnv = "GYM_LEAGUE_TEST_DB_URL"

var fixtureSeq atomic.Int64

func openIntegrationDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dbURL := os.Getenv(testDBURLEnv)
	if dbURL == "" {
		t.Skipf("%s is not set", testDBURLEnv)
	}

	dir, err := filepath.Abs(filepath.Join("..", "..", "..", "..", "db", "migrations"))
	require.NoError(t, err)
	m, err := migrate.New("file://"+filepath.ToSlash(dir), dbURL)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}
	_, _ = m.Close()

	db, err := sqlx.Connect("postgres", dbURL)
	require.NoError(t, err)
	db.SetMaxOpenConns(32)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fixtureID keeps rows from separate runs apart on a shared database.
func fixtureID(prefix string) string {
	return fmt.Sprintf("it-%s-%d-%d", prefix, time.Now().UnixNano(), fixtureSeq.Add(1))
}

func seedTournament(t *testing.T, db *sqlx.DB, capacity *int) tournament.Tournament {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	tour := tournament.Tournament{
		ID:                   fixtureID("tour"),
		Name:                 "Integration Throwdown",
		Type:                 tournament.TypeInternal,
		Venue:                "Box 1",
		StartsAt:             now.Add(48 * time.Hour),
		EndsAt:               now.Add(72 * time.Hour),
		RegistrationOpensAt:  now.Add(-time.Hour),
		RegistrationClosesAt: now.Add(24 * time.Hour),
		Capacity:             capacity,
		RegistrationsOpen:    true,
		AnnualRankingWeight:  tournament.DefaultAnnualRankingWeight,
		CreatedBy:            "staff-it",
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	require.NoError(t, NewTournamentRepository(db).Create(context.Background(), tour))
	return tour
}

func newRegistration(tournamentID string, status registration.Status) registration.Registration {
	now := time.Now().UTC()
	return registration.Registration{
		ID:            fixtureID("reg"),
		TournamentID:  tournamentID,
		AthleteID:     fixtureID("ath"),
		Category:      registration.CategoryIntermediate,
		AgeBracket:    "18-29",
		Status:        status,
		PaymentStatus: registration.PaymentPaid,
		RegisteredAt:  now,
		UpdatedAt:     now,
	}
}

func TestIntegration_ConcurrentAllocateLastSeat(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	regs := NewRegistrationRepository(db, 5*time.Second)
	heats := NewHeatRepository(db, 5*time.Second)

	tour := seedTournament(t, db, nil)
	h := heat.Heat{
		ID:           fixtureID("heat"),
		TournamentID: tour.ID,
		Sequence:     1,
		Name:         "Heat 1",
		ScheduledAt:  tour.StartsAt,
		Capacity:     1,
		Format:       heat.FormatForTime,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, heats.Create(ctx, h))

	const athletes = 8
	entries := make([]registration.Registration, athletes)
	for i := range entries {
		entries[i] = newRegistration(tour.ID, registration.StatusApproved)
		require.NoError(t, regs.Create(ctx, entries[i]))
	}

	errs := make([]error, athletes)
	var wg conc.WaitGroup
	for i := range entries {
		wg.Go(func() {
			errs[i] = heats.Allocate(ctx, heat.Allocation{
				ID:             fixtureID("alloc"),
				HeatID:         h.ID,
				TournamentID:   tour.ID,
				RegistrationID: entries[i].ID,
				CreatedAt:      time.Now().UTC(),
			})
		})
	}
	wg.Wait()

	seated := 0
	for _, err := range errs {
		if err == nil {
			seated++
			continue
		}
		require.ErrorIs(t, err, heat.ErrHeatFull)
	}
	require.Equal(t, 1, seated)

	allocations, err := heats.ListAllocations(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
}

func TestIntegration_ConcurrentRegistrationsRespectCapacity(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	regs := NewRegistrationRepository(db, 5*time.Second)

	capacity := 3
	tour := seedTournament(t, db, &capacity)

	const athletes = 10
	errs := make([]error, athletes)
	var wg conc.WaitGroup
	for i := range athletes {
		wg.Go(func() {
			errs[i] = regs.Create(ctx, newRegistration(tour.ID, registration.StatusPending))
		})
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		require.ErrorIs(t, err, registration.ErrCapacityReached)
	}
	require.Equal(t, capacity, accepted)

	stored, err := regs.ListByTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, stored, capacity)
}

func TestIntegration_DuplicateAthleteHitsUniqueConstraint(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	regs := NewRegistrationRepository(db, 5*time.Second)

	tour := seedTournament(t, db, nil)
	athlete := fixtureID("ath")

	const attempts = 6
	errs := make([]error, attempts)
	var wg conc.WaitGroup
	for i := range attempts {
		wg.Go(func() {
			reg := newRegistration(tour.ID, registration.StatusPending)
			reg.AthleteID = athlete
			errs[i] = regs.Create(ctx, reg)
		})
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		require.ErrorIs(t, err, registration.ErrAlreadyRegistered)
	}
	require.Equal(t, 1, created)
}

func TestIntegration_ReapproveNeedsFreeSeat(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	regs := NewRegistrationRepository(db, 5*time.Second)

	capacity := 1
	tour := seedTournament(t, db, &capacity)

	first := newRegistration(tour.ID, registration.StatusPending)
	require.NoError(t, regs.Create(ctx, first))
	_, _, err := regs.Reject(ctx, first.ID)
	require.NoError(t, err)

	second := newRegistration(tour.ID, registration.StatusPending)
	require.NoError(t, regs.Create(ctx, second))

	_, err = regs.Approve(ctx, first.ID)
	require.ErrorIs(t, err, registration.ErrCapacityReached)

	_, _, err = regs.Reject(ctx, second.ID)
	require.NoError(t, err)
	approved, err := regs.Approve(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, registration.StatusApproved, approved.Status)
}
