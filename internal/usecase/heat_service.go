package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/event"
	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/riskibarqy/gym-league/internal/platform/metrics"
)

type CreateHeatInput struct {
	TournamentID string
	Sequence     int
	Name         string
	ScheduledAt  time.Time
	// Capacity defaults to heat.DefaultCapacity.
	Capacity  *int
	WorkoutID *string
	Format    heat.Format
}

type AllocateInput struct {
	HeatID         string
	RegistrationID string
	Lane           *int
}

type HeatService struct {
	tournamentRepo   tournament.Repository
	registrationRepo registration.Repository
	heatRepo         heat.Repository
	idGen            IDGenerator
	events           *eventEmitter
	now              func() time.Time
}

func NewHeatService(
	tournamentRepo tournament.Repository,
	registrationRepo registration.Repository,
	heatRepo heat.Repository,
	idGen IDGenerator,
	publisher event.Publisher,
	logger *logging.Logger,
) *HeatService {
	return &HeatService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		heatRepo:         heatRepo,
		idGen:            idGen,
		events:           newEventEmitter(publisher, idGen, logger),
		now:              time.Now,
	}
}

func (s *HeatService) CreateHeat(ctx context.Context, actor user.Principal, input CreateHeatInput) (heat.Heat, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HeatService.CreateHeat")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	input.Format = heat.Format(strings.ToLower(strings.TrimSpace(string(input.Format))))
	capacity := heat.DefaultCapacity
	if input.Capacity != nil {
		capacity = *input.Capacity
	}
	switch {
	case input.Sequence <= 0:
		return heat.Heat{}, fmt.Errorf("%w: sequence must be positive", ErrInvalidInput)
	case capacity <= 0:
		return heat.Heat{}, fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	case !input.Format.Valid():
		return heat.Heat{}, fmt.Errorf("%w: unknown format %q", ErrInvalidInput, input.Format)
	}
	if input.WorkoutID != nil {
		workout := strings.TrimSpace(*input.WorkoutID)
		if workout == "" {
			input.WorkoutID = nil
		} else {
			input.WorkoutID = &workout
		}
	}

	t, err := loadTournament(ctx, s.tournamentRepo, input.TournamentID)
	if err != nil {
		return heat.Heat{}, err
	}
	if err := requireManager(actor, t); err != nil {
		return heat.Heat{}, err
	}
	now := s.now().UTC()
	if !now.Before(t.StartsAt) {
		return heat.Heat{}, fmt.Errorf("%w: heats can only be created before the tournament starts", ErrTournamentLocked)
	}
	if input.Name == "" {
		input.Name = fmt.Sprintf("Heat %d", input.Sequence)
	}
	scheduledAt := input.ScheduledAt.UTC()
	if scheduledAt.IsZero() {
		scheduledAt = t.StartsAt
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return heat.Heat{}, fmt.Errorf("generate heat id: %w", err)
	}
	h := heat.Heat{
		ID:           id,
		TournamentID: t.ID,
		Sequence:     input.Sequence,
		Name:         input.Name,
		ScheduledAt:  scheduledAt,
		Capacity:     capacity,
		WorkoutID:    input.WorkoutID,
		Format:       input.Format,
		CreatedAt:    now,
	}
	if err := s.heatRepo.Create(ctx, h); err != nil {
		return heat.Heat{}, fmt.Errorf("create heat: %w", err)
	}
	return h, nil
}

func (s *HeatService) UpdateCapacity(ctx context.Context, actor user.Principal, heatID string, capacity int) (heat.Heat, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HeatService.UpdateCapacity")
	defer span.End()

	if capacity <= 0 {
		return heat.Heat{}, fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}
	h, _, err := s.loadManagedHeat(ctx, actor, heatID)
	if err != nil {
		return heat.Heat{}, err
	}
	updated, err := s.heatRepo.UpdateCapacity(ctx, h.ID, capacity)
	if err != nil {
		return heat.Heat{}, fmt.Errorf("update heat capacity: %w", err)
	}
	return updated, nil
}

func (s *HeatService) Allocate(ctx context.Context, actor user.Principal, input AllocateInput) (a heat.Allocation, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HeatService.Allocate")
	defer span.End()
	defer func() { metrics.AllocationOutcomes.WithLabelValues(outcomeOf(err)).Inc() }()

	if input.Lane != nil && *input.Lane <= 0 {
		return heat.Allocation{}, fmt.Errorf("%w: lane must be positive", ErrInvalidInput)
	}
	h, t, err := s.loadManagedHeat(ctx, actor, input.HeatID)
	if err != nil {
		return heat.Allocation{}, err
	}
	reg, err := loadRegistration(ctx, s.registrationRepo, input.RegistrationID)
	if err != nil {
		return heat.Allocation{}, err
	}
	if reg.TournamentID != t.ID {
		return heat.Allocation{}, fmt.Errorf("%w: registration belongs to another tournament", heat.ErrNotEligible)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return heat.Allocation{}, fmt.Errorf("generate allocation id: %w", err)
	}
	a = heat.Allocation{
		ID:             id,
		HeatID:         h.ID,
		TournamentID:   t.ID,
		RegistrationID: reg.ID,
		Lane:           input.Lane,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.heatRepo.Allocate(ctx, a); err != nil {
		return heat.Allocation{}, fmt.Errorf("allocate to heat: %w", err)
	}

	s.events.emit(ctx, event.TypeHeatAllocated, t.ID, a.ID, map[string]any{
		"heat_id":         h.ID,
		"registration_id": reg.ID,
		"athlete_id":      reg.AthleteID,
	})
	return a, nil
}

func (s *HeatService) Deallocate(ctx context.Context, actor user.Principal, heatID, registrationID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.HeatService.Deallocate")
	defer span.End()

	registrationID = strings.TrimSpace(registrationID)
	if registrationID == "" {
		return fmt.Errorf("%w: registration_id is required", ErrInvalidInput)
	}
	h, _, err := s.loadManagedHeat(ctx, actor, heatID)
	if err != nil {
		return err
	}
	if err := s.heatRepo.Deallocate(ctx, h.ID, registrationID); err != nil {
		if errors.Is(err, heat.ErrAllocationNotFound) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return fmt.Errorf("deallocate from heat: %w", err)
	}
	return nil
}

func (s *HeatService) ListHeats(ctx context.Context, tournamentID string) ([]heat.HeatWithLoad, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HeatService.ListHeats")
	defer span.End()

	t, err := loadTournament(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	items, err := s.heatRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list heats: %w", err)
	}
	return items, nil
}

// ListAllocations orders by lane (unset lanes last), then creation order.
func (s *HeatService) ListAllocations(ctx context.Context, heatID string) ([]heat.Allocation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HeatService.ListAllocations")
	defer span.End()

	h, err := loadHeat(ctx, s.heatRepo, heatID)
	if err != nil {
		return nil, err
	}
	items, err := s.heatRepo.ListAllocations(ctx, h.ID)
	if err != nil {
		return nil, fmt.Errorf("list heat allocations: %w", err)
	}
	heat.SortAllocations(items)
	return items, nil
}

func (s *HeatService) loadManagedHeat(ctx context.Context, actor user.Principal, heatID string) (heat.Heat, tournament.Tournament, error) {
	h, err := loadHeat(ctx, s.heatRepo, heatID)
	if err != nil {
		return heat.Heat{}, tournament.Tournament{}, err
	}
	t, err := loadTournament(ctx, s.tournamentRepo, h.TournamentID)
	if err != nil {
		return heat.Heat{}, tournament.Tournament{}, err
	}
	if err := requireManager(actor, t); err != nil {
		return heat.Heat{}, tournament.Tournament{}, err
	}
	return h, t, nil
}
