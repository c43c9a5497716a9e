package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/riskibarqy/gym-league/internal/domain/registration"
)

type RegistrationRepository struct {
	db *Database
}

func NewRegistrationRepository(db *Database) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) Create(_ context.Context, reg registration.Registration) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tournaments[reg.TournamentID]
	if !ok {
		return fmt.Errorf("tournament %s not found", reg.TournamentID)
	}

	taken := 0
	for _, existing := range r.db.registrations {
		if existing.TournamentID != reg.TournamentID {
			continue
		}
		if existing.AthleteID == reg.AthleteID {
			return fmt.Errorf("%w: athlete=%s", registration.ErrAlreadyRegistered, reg.AthleteID)
		}
		if existing.CountsTowardsCapacity() {
			taken++
		}
	}
	if t.Capacity != nil && taken >= *t.Capacity {
		return fmt.Errorf("%w: capacity=%d", registration.ErrCapacityReached, *t.Capacity)
	}

	r.db.registrations[reg.ID] = cloneRegistration(reg)
	return nil
}

func (r *RegistrationRepository) GetByID(_ context.Context, registrationID string) (registration.Registration, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	reg, ok := r.db.registrations[registrationID]
	if !ok {
		return registration.Registration{}, false, nil
	}
	return cloneRegistration(reg), true, nil
}

func (r *RegistrationRepository) ListByTournament(_ context.Context, tournamentID string) ([]registration.Registration, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]registration.Registration, 0)
	for _, reg := range r.db.registrations {
		if reg.TournamentID == tournamentID {
			out = append(out, cloneRegistration(reg))
		}
	}
	slices.SortFunc(out, func(a, b registration.Registration) int {
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *RegistrationRepository) Approve(_ context.Context, registrationID string) (registration.Registration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	reg, ok := r.db.registrations[registrationID]
	if !ok {
		return registration.Registration{}, fmt.Errorf("%w: id=%s", registration.ErrNotFound, registrationID)
	}
	if reg.Status == registration.StatusApproved {
		return cloneRegistration(reg), nil
	}
	if reg.StatusLocked() {
		return registration.Registration{}, registration.ErrStatusLocked
	}
	if reg.Status == registration.StatusRejected {
		// A rejected entry frees its seat, so coming back needs one.
		if err := r.checkCapacityLocked(reg.TournamentID); err != nil {
			return registration.Registration{}, err
		}
	}

	reg.Status = registration.StatusApproved
	reg.UpdatedAt = r.db.timestamp()
	r.db.registrations[reg.ID] = reg
	return cloneRegistration(reg), nil
}

// checkCapacityLocked must run with db.mu held.
func (r *RegistrationRepository) checkCapacityLocked(tournamentID string) error {
	t, ok := r.db.tournaments[tournamentID]
	if !ok {
		return fmt.Errorf("tournament %s not found", tournamentID)
	}
	if t.Capacity == nil {
		return nil
	}
	taken := 0
	for _, existing := range r.db.registrations {
		if existing.TournamentID == tournamentID && existing.CountsTowardsCapacity() {
			taken++
		}
	}
	if taken >= *t.Capacity {
		return fmt.Errorf("%w: capacity=%d", registration.ErrCapacityReached, *t.Capacity)
	}
	return nil
}

func (r *RegistrationRepository) Reject(_ context.Context, registrationID string) (registration.Registration, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	reg, ok := r.db.registrations[registrationID]
	if !ok {
		return registration.Registration{}, false, fmt.Errorf("%w: id=%s", registration.ErrNotFound, registrationID)
	}
	if reg.StatusLocked() {
		return registration.Registration{}, false, registration.ErrStatusLocked
	}

	released := false
	for id, a := range r.db.allocations {
		if a.RegistrationID == registrationID {
			delete(r.db.allocations, id)
			released = true
		}
	}
	if reg.Status != registration.StatusRejected {
		reg.Status = registration.StatusRejected
		reg.UpdatedAt = r.db.timestamp()
		r.db.registrations[reg.ID] = reg
	}
	return cloneRegistration(reg), released, nil
}

func (r *RegistrationRepository) UpdatePaymentStatus(_ context.Context, registrationID string, status registration.PaymentStatus) (registration.Registration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	reg, ok := r.db.registrations[registrationID]
	if !ok {
		return registration.Registration{}, fmt.Errorf("%w: id=%s", registration.ErrNotFound, registrationID)
	}
	if reg.PaymentStatus != status {
		reg.PaymentStatus = status
		reg.UpdatedAt = r.db.timestamp()
		r.db.registrations[reg.ID] = reg
	}
	return cloneRegistration(reg), nil
}

func (r *RegistrationRepository) SetFinalPlacements(_ context.Context, tournamentID string, placements map[string]int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for registrationID := range placements {
		reg, ok := r.db.registrations[registrationID]
		if !ok || reg.TournamentID != tournamentID {
			return fmt.Errorf("%w: id=%s", registration.ErrNotFound, registrationID)
		}
	}
	now := r.db.timestamp()
	for registrationID, placement := range placements {
		reg := r.db.registrations[registrationID]
		p := placement
		reg.FinalPlacement = &p
		reg.UpdatedAt = now
		r.db.registrations[registrationID] = reg
	}
	return nil
}

func cloneRegistration(reg registration.Registration) registration.Registration {
	reg.FinalPlacement = cloneInt(reg.FinalPlacement)
	reg.Points = cloneInt(reg.Points)
	return reg
}
