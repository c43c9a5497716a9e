package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/result"
	qb "github.com/riskibarqy/gym-league/internal/platform/querybuilder"
)

const upsertResultSuffix = `ON CONFLICT (allocation_public_id) DO UPDATE SET
	time_seconds = EXCLUDED.time_seconds,
	reps = EXCLUDED.reps,
	notes = EXCLUDED.notes,
	updated_at = EXCLUDED.updated_at`

type ResultRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

func NewResultRepository(db *sqlx.DB, lockTimeout time.Duration) *ResultRepository {
	return &ResultRepository{db: db, lockTimeout: lockTimeout}
}

func (r *ResultRepository) GetByAllocation(ctx context.Context, allocationID string) (result.Result, bool, error) {
	query, args, err := qb.Select("*").
		From("results").
		Where(qb.Eq("allocation_public_id", allocationID)).
		ToSQL()
	if err != nil {
		return result.Result{}, false, fmt.Errorf("build get result query: %w", err)
	}

	var row resultTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return result.Result{}, false, nil
		}
		return result.Result{}, false, fmt.Errorf("get result: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ResultRepository) ListByHeat(ctx context.Context, heatID string) ([]result.Result, error) {
	return listHeatResults(ctx, r.db, heatID)
}

// ApplyAndRerank holds the heat row lock for the whole change so two writers of one
// heat never rank from different snapshots.
func (r *ResultRepository) ApplyAndRerank(ctx context.Context, heatID string, change result.Change, rerank result.RerankFunc) ([]result.Result, error) {
	var out []result.Result
	err := runInTx(ctx, r.db, "result apply", r.lockTimeout, func(tx *sqlx.Tx) error {
		if _, err := lockHeat(ctx, tx, heatID); err != nil {
			return err
		}

		switch {
		case change.Upsert != nil:
			if err := upsertResult(ctx, tx, heatID, *change.Upsert); err != nil {
				return err
			}
		case change.DeleteAllocationID != "":
			if err := deleteResult(ctx, tx, heatID, change.DeleteAllocationID); err != nil {
				return err
			}
		}

		current, err := listHeatResults(ctx, tx, heatID)
		if err != nil {
			return err
		}
		for _, res := range rerank(current) {
			if err := storeRanking(ctx, tx, res); err != nil {
				return err
			}
		}

		out, err = listHeatResults(ctx, tx, heatID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func upsertResult(ctx context.Context, tx *sqlx.Tx, heatID string, res result.Result) error {
	if res.HeatID != heatID {
		return fmt.Errorf("result heat %s does not match %s", res.HeatID, heatID)
	}

	checkQuery, checkArgs, err := qb.Select("COUNT(*)").
		From("heat_allocations").
		Where(qb.Eq("public_id", res.AllocationID), qb.Eq("heat_public_id", heatID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build allocation check query: %w", err)
	}
	var n int
	if err := tx.GetContext(ctx, &n, checkQuery, checkArgs...); err != nil {
		return fmt.Errorf("check allocation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: allocation=%s", heat.ErrAllocationNotFound, res.AllocationID)
	}

	query, args, err := qb.InsertModel("results", newResultInsertModel(res), upsertResultSuffix)
	if err != nil {
		return fmt.Errorf("build upsert result query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

func deleteResult(ctx context.Context, tx *sqlx.Tx, heatID, allocationID string) error {
	query, args, err := qb.DeleteFrom("results").
		Where(qb.Eq("allocation_public_id", allocationID), qb.Eq("heat_public_id", heatID)).
		Suffix("RETURNING registration_public_id").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete result query: %w", err)
	}
	var registrationID string
	if err := tx.GetContext(ctx, &registrationID, query, args...); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: allocation=%s", result.ErrNotFound, allocationID)
		}
		return fmt.Errorf("delete result: %w", err)
	}

	clearQuery, clearArgs, err := qb.Update("registrations").
		Set("points", nil).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", registrationID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear points query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear registration points: %w", err)
	}
	return nil
}

func storeRanking(ctx context.Context, tx *sqlx.Tx, res result.Result) error {
	resultQuery, resultArgs, err := qb.Update("results").
		Set("position", res.Position).
		Set("points", res.Points).
		Where(qb.Eq("allocation_public_id", res.AllocationID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build rank result query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, resultQuery, resultArgs...); err != nil {
		return fmt.Errorf("rank result: %w", err)
	}

	regQuery, regArgs, err := qb.Update("registrations").
		Set("points", res.Points).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", res.RegistrationID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mirror points query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, regQuery, regArgs...); err != nil {
		return fmt.Errorf("mirror registration points: %w", err)
	}
	return nil
}

func listHeatResults(ctx context.Context, q sqlx.QueryerContext, heatID string) ([]result.Result, error) {
	query, args, err := qb.Select("*").
		From("results").
		Where(qb.Eq("heat_public_id", heatID)).
		OrderBy("position ASC NULLS LAST", "created_at ASC", "allocation_public_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list results query: %w", err)
	}

	var rows []resultTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]result.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
