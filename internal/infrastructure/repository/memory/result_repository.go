package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/result"
)

type ResultRepository struct {
	db *Database
}

func NewResultRepository(db *Database) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) GetByAllocation(_ context.Context, allocationID string) (result.Result, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res, ok := r.db.results[allocationID]
	if !ok {
		return result.Result{}, false, nil
	}
	return cloneResult(res), true, nil
}

func (r *ResultRepository) ListByHeat(_ context.Context, heatID string) ([]result.Result, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.db.heatResults(heatID), nil
}

func (r *ResultRepository) ApplyAndRerank(_ context.Context, heatID string, change result.Change, rerank result.RerankFunc) ([]result.Result, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.heats[heatID]; !ok {
		return nil, fmt.Errorf("heat %s not found", heatID)
	}

	switch {
	case change.Upsert != nil:
		next := cloneResult(*change.Upsert)
		if next.HeatID != heatID {
			return nil, fmt.Errorf("result heat %s does not match %s", next.HeatID, heatID)
		}
		if _, ok := r.db.allocations[next.AllocationID]; !ok {
			return nil, fmt.Errorf("%w: allocation=%s", heat.ErrAllocationNotFound, next.AllocationID)
		}
		if existing, ok := r.db.results[next.AllocationID]; ok {
			next.ID = existing.ID
			next.CreatedAt = existing.CreatedAt
		}
		r.db.results[next.AllocationID] = next
	case change.DeleteAllocationID != "":
		existing, ok := r.db.results[change.DeleteAllocationID]
		if !ok || existing.HeatID != heatID {
			return nil, fmt.Errorf("%w: allocation=%s", result.ErrNotFound, change.DeleteAllocationID)
		}
		delete(r.db.results, change.DeleteAllocationID)
		if reg, ok := r.db.registrations[existing.RegistrationID]; ok {
			reg.Points = nil
			reg.UpdatedAt = r.db.timestamp()
			r.db.registrations[reg.ID] = reg
		}
	}

	ranked := rerank(r.db.heatResults(heatID))
	now := r.db.timestamp()
	for _, res := range ranked {
		r.db.results[res.AllocationID] = cloneResult(res)
		if reg, ok := r.db.registrations[res.RegistrationID]; ok {
			points := res.Points
			reg.Points = &points
			reg.UpdatedAt = now
			r.db.registrations[reg.ID] = reg
		}
	}
	return r.db.heatResults(heatID), nil
}

// heatResults must be called with the lock held.
func (db *Database) heatResults(heatID string) []result.Result {
	out := make([]result.Result, 0)
	for _, res := range db.results {
		if res.HeatID == heatID {
			out = append(out, cloneResult(res))
		}
	}
	slices.SortFunc(out, compareRanked)
	return out
}

func compareRanked(a, b result.Result) int {
	switch {
	case a.Position != nil && b.Position != nil:
		if c := cmp.Compare(*a.Position, *b.Position); c != 0 {
			return c
		}
	case a.Position != nil:
		return -1
	case b.Position != nil:
		return 1
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.AllocationID, b.AllocationID)
}

func cloneResult(res result.Result) result.Result {
	res.TimeSeconds = cloneInt(res.TimeSeconds)
	res.Reps = cloneInt(res.Reps)
	res.Position = cloneInt(res.Position)
	return res
}
