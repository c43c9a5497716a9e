package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/gym-league/internal/infrastructure/repository/memory"
	qb "github.com/riskibarqy/gym-league/internal/platform/querybuilder"
)

// BootstrapSeed inserts the demo tournament into an empty database.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, now time.Time) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM tournaments`); err != nil {
		return fmt.Errorf("count tournaments for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	t, rules, heats := memory.DemoData(now)
	return runInTx(ctx, db, "bootstrap seed", 0, func(tx *sqlx.Tx) error {
		query, args, err := qb.InsertModel("tournaments", newTournamentInsertModel(t), "ON CONFLICT (public_id) DO NOTHING")
		if err != nil {
			return fmt.Errorf("build seed tournament query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed tournament %s: %w", t.ID, err)
		}

		for _, rule := range rules {
			sqlQuery, args, err := sqlx.Named(`
INSERT INTO scoring_rules (tournament_public_id, position, points)
VALUES (:tournament_public_id, :position, :points)
ON CONFLICT ON CONSTRAINT scoring_rules_tournament_position_key DO NOTHING`, scoringRuleModel{
				TournamentID: t.ID,
				Position:     rule.Position,
				Points:       rule.Points,
			})
			if err != nil {
				return fmt.Errorf("bind seed rule %d query: %w", rule.Position, err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
				return fmt.Errorf("seed rule %d: %w", rule.Position, err)
			}
		}

		for _, h := range heats {
			sqlQuery, args, err := sqlx.Named(`
INSERT INTO heats (public_id, tournament_public_id, sequence, name, scheduled_at, capacity, workout_id, format, created_at)
VALUES (:public_id, :tournament_public_id, :sequence, :name, :scheduled_at, :capacity, :workout_id, :format, :created_at)
ON CONFLICT (public_id) DO NOTHING`, heatInsertModel{
				PublicID:     h.ID,
				TournamentID: h.TournamentID,
				Sequence:     h.Sequence,
				Name:         h.Name,
				ScheduledAt:  h.ScheduledAt,
				Capacity:     h.Capacity,
				WorkoutID:    h.WorkoutID,
				Format:       string(h.Format),
				CreatedAt:    h.CreatedAt,
			})
			if err != nil {
				return fmt.Errorf("bind seed heat %s query: %w", h.ID, err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
				return fmt.Errorf("seed heat %s: %w", h.ID, err)
			}
		}
		return nil
	})
}
