package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/riskibarqy/gym-league/internal/platform/metrics"
)

type IDGenerator interface {
	NewID() (string, error)
}

// rankingInvalidator drops cached ranking views whose inputs just changed.
type rankingInvalidator interface {
	InvalidateTournament(ctx context.Context, tournamentID string)
	InvalidateAnnual(ctx context.Context)
	InvalidateMovement(ctx context.Context, movementKey string)
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateTournament(context.Context, string) {}
func (noopInvalidator) InvalidateAnnual(context.Context)             {}
func (noopInvalidator) InvalidateMovement(context.Context, string)   {}

func loadTournament(ctx context.Context, repo tournament.Repository, tournamentID string) (tournament.Tournament, error) {
	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament_id is required", ErrInvalidInput)
	}
	t, exists, err := repo.GetByID(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	if !exists {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}
	return t, nil
}

func loadRegistration(ctx context.Context, repo registration.Repository, registrationID string) (registration.Registration, error) {
	registrationID = strings.TrimSpace(registrationID)
	if registrationID == "" {
		return registration.Registration{}, fmt.Errorf("%w: registration_id is required", ErrInvalidInput)
	}
	reg, exists, err := repo.GetByID(ctx, registrationID)
	if err != nil {
		return registration.Registration{}, fmt.Errorf("get registration: %w", err)
	}
	if !exists {
		return registration.Registration{}, fmt.Errorf("%w: registration=%s", ErrNotFound, registrationID)
	}
	return reg, nil
}

func loadHeat(ctx context.Context, repo heat.Repository, heatID string) (heat.Heat, error) {
	heatID = strings.TrimSpace(heatID)
	if heatID == "" {
		return heat.Heat{}, fmt.Errorf("%w: heat_id is required", ErrInvalidInput)
	}
	h, exists, err := repo.GetByID(ctx, heatID)
	if err != nil {
		return heat.Heat{}, fmt.Errorf("get heat: %w", err)
	}
	if !exists {
		return heat.Heat{}, fmt.Errorf("%w: heat=%s", ErrNotFound, heatID)
	}
	return h, nil
}

func requireManager(actor user.Principal, t tournament.Tournament) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return ErrUnauthorized
	}
	if !actor.CanManage(t.OrganizationID) {
		return fmt.Errorf("%w: user=%s cannot manage tournament=%s", ErrPermissionDenied, actor.UserID, t.ID)
	}
	return nil
}

// requireSelfOrManager allows the athlete acting on their own behalf and tournament managers.
func requireSelfOrManager(actor user.Principal, athleteID string, t tournament.Tournament) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return ErrUnauthorized
	}
	if actor.UserID == athleteID || actor.CanManage(t.OrganizationID) {
		return nil
	}
	return fmt.Errorf("%w: user=%s cannot act for athlete=%s", ErrPermissionDenied, actor.UserID, athleteID)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, registration.ErrCapacityReached), errors.Is(err, heat.ErrHeatFull):
		return metrics.OutcomeFull
	case errors.Is(err, registration.ErrRegistrationClosed):
		return metrics.OutcomeClosed
	case errors.Is(err, registration.ErrAlreadyRegistered), errors.Is(err, heat.ErrAlreadyAllocated), errors.Is(err, heat.ErrLaneTaken):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrNotFound), errors.Is(err, heat.ErrNotEligible):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
