package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/gym-league/internal/domain/heat"
	qb "github.com/riskibarqy/gym-league/internal/platform/querybuilder"
)

type HeatRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

func NewHeatRepository(db *sqlx.DB, lockTimeout time.Duration) *HeatRepository {
	return &HeatRepository{db: db, lockTimeout: lockTimeout}
}

func (r *HeatRepository) Create(ctx context.Context, h heat.Heat) error {
	query, args, err := qb.InsertModel("heats", heatInsertModel{
		PublicID:     h.ID,
		TournamentID: h.TournamentID,
		Sequence:     h.Sequence,
		Name:         h.Name,
		ScheduledAt:  h.ScheduledAt.UTC(),
		Capacity:     h.Capacity,
		WorkoutID:    h.WorkoutID,
		Format:       string(h.Format),
		CreatedAt:    h.CreatedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert heat query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "heats_tournament_sequence_key") {
			return withCause(heat.ErrDuplicateSequence, err, fmt.Sprintf("sequence=%d", h.Sequence))
		}
		return fmt.Errorf("insert heat: %w", err)
	}
	return nil
}

func (r *HeatRepository) GetByID(ctx context.Context, heatID string) (heat.Heat, bool, error) {
	query, args, err := qb.Select("*").
		From("heats").
		Where(qb.Eq("public_id", heatID)).
		ToSQL()
	if err != nil {
		return heat.Heat{}, false, fmt.Errorf("build get heat query: %w", err)
	}

	var row heatTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return heat.Heat{}, false, nil
		}
		return heat.Heat{}, false, fmt.Errorf("get heat: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *HeatRepository) ListByTournament(ctx context.Context, tournamentID string) ([]heat.HeatWithLoad, error) {
	const query = `
SELECT h.*,
       (SELECT COUNT(*) FROM heat_allocations a WHERE a.heat_public_id = h.public_id) AS allocated
FROM heats h
WHERE h.tournament_public_id = $1
ORDER BY h.sequence ASC`

	var rows []heatWithLoadRow
	if err := r.db.SelectContext(ctx, &rows, query, tournamentID); err != nil {
		return nil, fmt.Errorf("list heats: %w", err)
	}
	out := make([]heat.HeatWithLoad, 0, len(rows))
	for _, row := range rows {
		out = append(out, heat.HeatWithLoad{Heat: row.toDomain(), Allocated: row.Allocated})
	}
	return out, nil
}

func (r *HeatRepository) UpdateCapacity(ctx context.Context, heatID string, capacity int) (heat.Heat, error) {
	var updated heat.Heat
	err := runInTx(ctx, r.db, "heat capacity update", r.lockTimeout, func(tx *sqlx.Tx) error {
		if _, err := lockHeat(ctx, tx, heatID); err != nil {
			return err
		}
		allocated, err := countAllocations(ctx, tx, heatID)
		if err != nil {
			return err
		}
		if allocated > capacity {
			return fmt.Errorf("%w: allocated=%d capacity=%d", heat.ErrCapacityBelowAllocations, allocated, capacity)
		}

		query, args, err := qb.Update("heats").
			Set("capacity", capacity).
			Where(qb.Eq("public_id", heatID)).
			Suffix("RETURNING *").
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update heat capacity query: %w", err)
		}
		var row heatTableModel
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return fmt.Errorf("update heat capacity: %w", err)
		}
		updated = row.toDomain()
		return nil
	})
	return updated, err
}

func (r *HeatRepository) Allocate(ctx context.Context, a heat.Allocation) error {
	err := runInTx(ctx, r.db, "heat allocate", r.lockTimeout, func(tx *sqlx.Tx) error {
		h, err := lockHeat(ctx, tx, a.HeatID)
		if err != nil {
			return err
		}
		reg, err := lockRegistration(ctx, tx, a.RegistrationID)
		if err != nil {
			return withCause(heat.ErrNotEligible, err, "registration="+a.RegistrationID)
		}
		if reg.TournamentID != h.TournamentID || !reg.EligibleForHeat() {
			return fmt.Errorf("%w: registration=%s status=%s payment=%s", heat.ErrNotEligible, reg.ID, reg.Status, reg.PaymentStatus)
		}

		existingQuery, existingArgs, err := qb.Select("heat_public_id").
			From("heat_allocations").
			Where(qb.Eq("tournament_public_id", h.TournamentID), qb.Eq("registration_public_id", reg.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build existing allocation query: %w", err)
		}
		var existingHeat []string
		if err := tx.SelectContext(ctx, &existingHeat, existingQuery, existingArgs...); err != nil {
			return fmt.Errorf("find existing allocation: %w", err)
		}
		if len(existingHeat) > 0 {
			return fmt.Errorf("%w: heat=%s", heat.ErrAlreadyAllocated, existingHeat[0])
		}

		allocated, err := countAllocations(ctx, tx, h.ID)
		if err != nil {
			return err
		}
		if allocated >= h.Capacity {
			return fmt.Errorf("%w: capacity=%d", heat.ErrHeatFull, h.Capacity)
		}

		insertQuery, insertArgs, err := qb.InsertModel("heat_allocations", allocationInsertModel{
			PublicID:       a.ID,
			HeatID:         h.ID,
			TournamentID:   h.TournamentID,
			RegistrationID: reg.ID,
			Lane:           a.Lane,
			CreatedAt:      a.CreatedAt.UTC(),
		}, "")
		if err != nil {
			return fmt.Errorf("build insert allocation query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			switch {
			case isUniqueViolation(err, "heat_allocations_heat_lane_key"):
				return withCause(heat.ErrLaneTaken, err, fmt.Sprintf("heat=%s", h.ID))
			case isUniqueViolation(err, "heat_allocations_tournament_registration_key"):
				return withCause(heat.ErrAlreadyAllocated, err, "registration="+reg.ID)
			}
			return fmt.Errorf("insert heat allocation: %w", err)
		}
		return nil
	})
	if isLockContention(err) {
		return withCause(heat.ErrHeatFull, err, "heat="+a.HeatID)
	}
	return err
}

func (r *HeatRepository) Deallocate(ctx context.Context, heatID, registrationID string) error {
	return runInTx(ctx, r.db, "heat deallocate", r.lockTimeout, func(tx *sqlx.Tx) error {
		if _, err := lockHeat(ctx, tx, heatID); err != nil {
			return err
		}

		const query = `
SELECT a.public_id,
       EXISTS (SELECT 1 FROM results r WHERE r.allocation_public_id = a.public_id) AS has_result
FROM heat_allocations a
WHERE a.heat_public_id = $1
  AND a.registration_public_id = $2`
		var row struct {
			PublicID  string `db:"public_id"`
			HasResult bool   `db:"has_result"`
		}
		if err := tx.GetContext(ctx, &row, query, heatID, registrationID); err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: heat=%s registration=%s", heat.ErrAllocationNotFound, heatID, registrationID)
			}
			return fmt.Errorf("get allocation: %w", err)
		}
		if row.HasResult {
			return fmt.Errorf("%w: allocation=%s", heat.ErrResultsExist, row.PublicID)
		}

		deleteQuery, deleteArgs, err := qb.DeleteFrom("heat_allocations").
			Where(qb.Eq("public_id", row.PublicID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build delete allocation query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
			return fmt.Errorf("delete allocation: %w", err)
		}
		return nil
	})
}

func (r *HeatRepository) GetAllocation(ctx context.Context, allocationID string) (heat.Allocation, bool, error) {
	return r.getAllocation(ctx, qb.Eq("public_id", allocationID))
}

func (r *HeatRepository) GetAllocationByRegistration(ctx context.Context, registrationID string) (heat.Allocation, bool, error) {
	return r.getAllocation(ctx, qb.Eq("registration_public_id", registrationID))
}

func (r *HeatRepository) getAllocation(ctx context.Context, cond qb.Condition) (heat.Allocation, bool, error) {
	query, args, err := qb.Select("*").
		From("heat_allocations").
		Where(cond).
		Limit(1).
		ToSQL()
	if err != nil {
		return heat.Allocation{}, false, fmt.Errorf("build get allocation query: %w", err)
	}

	var row allocationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return heat.Allocation{}, false, nil
		}
		return heat.Allocation{}, false, fmt.Errorf("get allocation: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *HeatRepository) ListAllocations(ctx context.Context, heatID string) ([]heat.Allocation, error) {
	query, args, err := qb.Select("*").
		From("heat_allocations").
		Where(qb.Eq("heat_public_id", heatID)).
		OrderBy("lane ASC NULLS LAST", "created_at ASC", "public_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list allocations query: %w", err)
	}

	var rows []allocationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	out := make([]heat.Allocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func lockHeat(ctx context.Context, tx *sqlx.Tx, heatID string) (heat.Heat, error) {
	query, args, err := qb.Select("*").
		From("heats").
		Where(qb.Eq("public_id", heatID)).
		ForUpdate().
		ToSQL()
	if err != nil {
		return heat.Heat{}, fmt.Errorf("build lock heat query: %w", err)
	}
	var row heatTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return heat.Heat{}, fmt.Errorf("heat %s not found", heatID)
		}
		return heat.Heat{}, fmt.Errorf("lock heat: %w", err)
	}
	return row.toDomain(), nil
}

func countAllocations(ctx context.Context, tx *sqlx.Tx, heatID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("heat_allocations").
		Where(qb.Eq("heat_public_id", heatID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count allocations query: %w", err)
	}
	var n int
	if err := tx.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count allocations: %w", err)
	}
	return n, nil
}
