package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/event"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/riskibarqy/gym-league/internal/platform/metrics"
)

type RegisterInput struct {
	TournamentID string
	// AthleteID defaults to the actor.
	AthleteID  string
	Category   registration.Category
	AgeBracket string
}

type SettlePaymentInput struct {
	RegistrationID string
	Status         registration.PaymentStatus
}

type RegistrationService struct {
	tournamentRepo   tournament.Repository
	registrationRepo registration.Repository
	idGen            IDGenerator
	events           *eventEmitter
	logger           *logging.Logger
	now              func() time.Time
}

func NewRegistrationService(
	tournamentRepo tournament.Repository,
	registrationRepo registration.Repository,
	idGen IDGenerator,
	publisher event.Publisher,
	logger *logging.Logger,
) *RegistrationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RegistrationService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		idGen:            idGen,
		events:           newEventEmitter(publisher, idGen, logger),
		logger:           logger,
		now:              time.Now,
	}
}

func (s *RegistrationService) Register(ctx context.Context, actor user.Principal, input RegisterInput) (reg registration.Registration, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Register")
	defer span.End()
	defer func() { metrics.RegistrationOutcomes.WithLabelValues(outcomeOf(err)).Inc() }()

	input.AthleteID = strings.TrimSpace(input.AthleteID)
	if input.AthleteID == "" {
		input.AthleteID = strings.TrimSpace(actor.UserID)
	}
	input.Category = registration.Category(strings.ToLower(strings.TrimSpace(string(input.Category))))
	input.AgeBracket = registration.NormalizeAgeBracket(input.AgeBracket)

	if input.AthleteID == "" {
		return registration.Registration{}, ErrUnauthorized
	}
	if !input.Category.Valid() {
		return registration.Registration{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, input.Category)
	}
	if input.AgeBracket == "" || len(input.AgeBracket) > registration.MaxAgeBracketLength {
		return registration.Registration{}, fmt.Errorf("%w: age_bracket must be 1-%d characters", ErrInvalidInput, registration.MaxAgeBracketLength)
	}

	t, err := loadTournament(ctx, s.tournamentRepo, input.TournamentID)
	if err != nil {
		return registration.Registration{}, err
	}
	if err := requireSelfOrManager(actor, input.AthleteID, t); err != nil {
		return registration.Registration{}, err
	}

	now := s.now().UTC()
	if !t.AcceptsRegistrations(now) {
		return registration.Registration{}, fmt.Errorf("%w: tournament=%s", registration.ErrRegistrationClosed, t.ID)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return registration.Registration{}, fmt.Errorf("generate registration id: %w", err)
	}
	reg = registration.Registration{
		ID:            id,
		TournamentID:  t.ID,
		AthleteID:     input.AthleteID,
		Category:      input.Category,
		AgeBracket:    input.AgeBracket,
		Status:        registration.StatusPending,
		PaymentStatus: registration.InitialPaymentStatus(t.EntryFeeMinor),
		RegisteredAt:  now,
		UpdatedAt:     now,
	}
	if err := s.registrationRepo.Create(ctx, reg); err != nil {
		return registration.Registration{}, fmt.Errorf("create registration: %w", err)
	}

	s.events.emit(ctx, event.TypeRegistrationCreated, t.ID, reg.ID, map[string]any{
		"athlete_id":     reg.AthleteID,
		"category":       string(reg.Category),
		"payment_status": string(reg.PaymentStatus),
	})
	return reg, nil
}

func (s *RegistrationService) Approve(ctx context.Context, actor user.Principal, registrationID string) (registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Approve")
	defer span.End()

	current, t, err := s.loadManaged(ctx, actor, registrationID)
	if err != nil {
		return registration.Registration{}, err
	}

	updated, err := s.registrationRepo.Approve(ctx, current.ID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("approve registration: %w", err)
	}
	if current.Status != registration.StatusApproved {
		s.events.emit(ctx, event.TypeRegistrationApproved, t.ID, updated.ID, map[string]any{
			"athlete_id": updated.AthleteID,
		})
	}
	return updated, nil
}

func (s *RegistrationService) Reject(ctx context.Context, actor user.Principal, registrationID string) (registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Reject")
	defer span.End()

	current, _, err := s.loadManaged(ctx, actor, registrationID)
	if err != nil {
		return registration.Registration{}, err
	}

	updated, released, err := s.registrationRepo.Reject(ctx, current.ID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("reject registration: %w", err)
	}
	if released {
		s.logger.InfoContext(ctx, "released heat allocation of rejected registration",
			"registration_id", updated.ID,
			"tournament_id", updated.TournamentID,
		)
	}
	return updated, nil
}

// SettlePayment applies a payment signal. Marking a free or already paid entry paid is a no-op.
func (s *RegistrationService) SettlePayment(ctx context.Context, input SettlePaymentInput) (registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.SettlePayment")
	defer span.End()

	status := registration.PaymentStatus(strings.ToLower(strings.TrimSpace(string(input.Status))))
	if status != registration.PaymentPaid && status != registration.PaymentRefunded {
		return registration.Registration{}, fmt.Errorf("%w: payment status must be paid or refunded", ErrInvalidInput)
	}

	current, err := loadRegistration(ctx, s.registrationRepo, input.RegistrationID)
	if err != nil {
		return registration.Registration{}, err
	}
	if status == registration.PaymentPaid && current.PaymentStatus == registration.PaymentPaid {
		return current, nil
	}
	if status == registration.PaymentPaid {
		t, err := loadTournament(ctx, s.tournamentRepo, current.TournamentID)
		if err != nil {
			return registration.Registration{}, err
		}
		if t.IsFree() {
			return current, nil
		}
	}

	updated, err := s.registrationRepo.UpdatePaymentStatus(ctx, current.ID, status)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("update payment status: %w", err)
	}
	if status == registration.PaymentPaid {
		s.events.emit(ctx, event.TypeRegistrationPaid, updated.TournamentID, updated.ID, map[string]any{
			"athlete_id": updated.AthleteID,
		})
	}
	return updated, nil
}

func (s *RegistrationService) Get(ctx context.Context, actor user.Principal, registrationID string) (registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Get")
	defer span.End()

	reg, err := loadRegistration(ctx, s.registrationRepo, registrationID)
	if err != nil {
		return registration.Registration{}, err
	}
	t, err := loadTournament(ctx, s.tournamentRepo, reg.TournamentID)
	if err != nil {
		return registration.Registration{}, err
	}
	if err := requireSelfOrManager(actor, reg.AthleteID, t); err != nil {
		return registration.Registration{}, err
	}
	return reg, nil
}

func (s *RegistrationService) ListByTournament(ctx context.Context, actor user.Principal, tournamentID string) ([]registration.Registration, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.ListByTournament")
	defer span.End()

	t, err := loadTournament(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(actor, t); err != nil {
		return nil, err
	}
	items, err := s.registrationRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return items, nil
}

func (s *RegistrationService) loadManaged(ctx context.Context, actor user.Principal, registrationID string) (registration.Registration, tournament.Tournament, error) {
	reg, err := loadRegistration(ctx, s.registrationRepo, registrationID)
	if err != nil {
		return registration.Registration{}, tournament.Tournament{}, err
	}
	t, err := loadTournament(ctx, s.tournamentRepo, reg.TournamentID)
	if err != nil {
		return registration.Registration{}, tournament.Tournament{}, err
	}
	if err := requireManager(actor, t); err != nil {
		return registration.Registration{}, tournament.Tournament{}, err
	}
	return reg, t, nil
}
