package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
)

type HeatRepository struct {
	db *Database
}

func NewHeatRepository(db *Database) *HeatRepository {
	return &HeatRepository{db: db}
}

func (r *HeatRepository) Create(_ context.Context, h heat.Heat) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.heats {
		if existing.TournamentID == h.TournamentID && existing.Sequence == h.Sequence {
			return fmt.Errorf("%w: sequence=%d", heat.ErrDuplicateSequence, h.Sequence)
		}
	}
	r.db.heats[h.ID] = cloneHeat(h)
	return nil
}

func (r *HeatRepository) GetByID(_ context.Context, heatID string) (heat.Heat, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	h, ok := r.db.heats[heatID]
	if !ok {
		return heat.Heat{}, false, nil
	}
	return cloneHeat(h), true, nil
}

func (r *HeatRepository) ListByTournament(_ context.Context, tournamentID string) ([]heat.HeatWithLoad, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]heat.HeatWithLoad, 0)
	for _, h := range r.db.heats {
		if h.TournamentID != tournamentID {
			continue
		}
		out = append(out, heat.HeatWithLoad{Heat: cloneHeat(h), Allocated: r.db.allocatedCount(h.ID)})
	}
	slices.SortFunc(out, func(a, b heat.HeatWithLoad) int {
		return cmp.Compare(a.Heat.Sequence, b.Heat.Sequence)
	})
	return out, nil
}

func (r *HeatRepository) UpdateCapacity(_ context.Context, heatID string, capacity int) (heat.Heat, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	h, ok := r.db.heats[heatID]
	if !ok {
		return heat.Heat{}, fmt.Errorf("heat %s not found", heatID)
	}
	if allocated := r.db.allocatedCount(heatID); allocated > capacity {
		return heat.Heat{}, fmt.Errorf("%w: allocated=%d capacity=%d", heat.ErrCapacityBelowAllocations, allocated, capacity)
	}
	h.Capacity = capacity
	r.db.heats[heatID] = h
	return cloneHeat(h), nil
}

func (r *HeatRepository) Allocate(_ context.Context, a heat.Allocation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	h, ok := r.db.heats[a.HeatID]
	if !ok {
		return fmt.Errorf("heat %s not found", a.HeatID)
	}
	reg, ok := r.db.registrations[a.RegistrationID]
	if !ok || reg.TournamentID != h.TournamentID || !reg.EligibleForHeat() {
		return fmt.Errorf("%w: registration=%s", heat.ErrNotEligible, a.RegistrationID)
	}

	for _, existing := range r.db.allocations {
		if existing.TournamentID == h.TournamentID && existing.RegistrationID == a.RegistrationID {
			return fmt.Errorf("%w: heat=%s", heat.ErrAlreadyAllocated, existing.HeatID)
		}
	}
	if allocated := r.db.allocatedCount(h.ID); allocated >= h.Capacity {
		return fmt.Errorf("%w: capacity=%d", heat.ErrHeatFull, h.Capacity)
	}
	if a.Lane != nil {
		for _, existing := range r.db.allocations {
			if existing.HeatID == h.ID && existing.Lane != nil && *existing.Lane == *a.Lane {
				return fmt.Errorf("%w: lane=%d", heat.ErrLaneTaken, *a.Lane)
			}
		}
	}

	a.TournamentID = h.TournamentID
	a.Lane = cloneInt(a.Lane)
	r.db.allocations[a.ID] = a
	return nil
}

func (r *HeatRepository) Deallocate(_ context.Context, heatID, registrationID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for id, a := range r.db.allocations {
		if a.HeatID != heatID || a.RegistrationID != registrationID {
			continue
		}
		if _, hasResult := r.db.results[id]; hasResult {
			return fmt.Errorf("%w: allocation=%s", heat.ErrResultsExist, id)
		}
		delete(r.db.allocations, id)
		return nil
	}
	return fmt.Errorf("%w: heat=%s registration=%s", heat.ErrAllocationNotFound, heatID, registrationID)
}

func (r *HeatRepository) GetAllocation(_ context.Context, allocationID string) (heat.Allocation, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.allocations[allocationID]
	if !ok {
		return heat.Allocation{}, false, nil
	}
	a.Lane = cloneInt(a.Lane)
	return a, true, nil
}

func (r *HeatRepository) GetAllocationByRegistration(_ context.Context, registrationID string) (heat.Allocation, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, a := range r.db.allocations {
		if a.RegistrationID == registrationID {
			a.Lane = cloneInt(a.Lane)
			return a, true, nil
		}
	}
	return heat.Allocation{}, false, nil
}

func (r *HeatRepository) ListAllocations(_ context.Context, heatID string) ([]heat.Allocation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]heat.Allocation, 0)
	for _, a := range r.db.allocations {
		if a.HeatID == heatID {
			a.Lane = cloneInt(a.Lane)
			out = append(out, a)
		}
	}
	heat.SortAllocations(out)
	return out, nil
}

// allocatedCount must be called with the lock held.
func (db *Database) allocatedCount(heatID string) int {
	n := 0
	for _, a := range db.allocations {
		if a.HeatID == heatID {
			n++
		}
	}
	return n
}

func cloneHeat(h heat.Heat) heat.Heat {
	h.WorkoutID = cloneString(h.WorkoutID)
	return h
}
