package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	qb "github.com/riskibarqy/gym-league/internal/platform/querybuilder"
)

type scoringRuleModel struct {
	TournamentID string `db:"tournament_public_id"`
	Position     int    `db:"position"`
	Points       int    `db:"points"`
}

type ScoringRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

func NewScoringRepository(db *sqlx.DB, lockTimeout time.Duration) *ScoringRepository {
	return &ScoringRepository{db: db, lockTimeout: lockTimeout}
}

func (r *ScoringRepository) ReplaceRules(ctx context.Context, tournamentID string, rules []scoring.Rule) error {
	return runInTx(ctx, r.db, "scoring rules replace", r.lockTimeout, func(tx *sqlx.Tx) error {
		lockQuery, lockArgs, err := qb.Select("public_id").
			From("tournaments").
			Where(qb.Eq("public_id", tournamentID)).
			ForUpdate().
			ToSQL()
		if err != nil {
			return fmt.Errorf("build lock tournament query: %w", err)
		}
		var locked string
		if err := tx.GetContext(ctx, &locked, lockQuery, lockArgs...); err != nil {
			return fmt.Errorf("lock tournament %s: %w", tournamentID, err)
		}

		deleteQuery, deleteArgs, err := qb.DeleteFrom("scoring_rules").
			Where(qb.Eq("tournament_public_id", tournamentID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build delete scoring rules query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
			return fmt.Errorf("delete scoring rules: %w", err)
		}
		if len(rules) == 0 {
			return nil
		}

		models := make([]scoringRuleModel, 0, len(rules))
		for _, rule := range rules {
			models = append(models, scoringRuleModel{TournamentID: tournamentID, Position: rule.Position, Points: rule.Points})
		}
		insertQuery, insertArgs, err := qb.InsertModels("scoring_rules", models, "")
		if err != nil {
			return fmt.Errorf("build insert scoring rules query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			if isUniqueViolation(err, "scoring_rules_tournament_position_key") {
				return withCause(scoring.ErrInvalidRule, err, "duplicate position")
			}
			return fmt.Errorf("insert scoring rules: %w", err)
		}
		return nil
	})
}

func (r *ScoringRepository) ListRules(ctx context.Context, tournamentID string) ([]scoring.Rule, error) {
	query, args, err := qb.Select("tournament_public_id", "position", "points").
		From("scoring_rules").
		Where(qb.Eq("tournament_public_id", tournamentID)).
		OrderBy("position ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list scoring rules query: %w", err)
	}

	var rows []scoringRuleModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scoring rules: %w", err)
	}
	out := make([]scoring.Rule, 0, len(rows))
	for _, row := range rows {
		out = append(out, scoring.Rule{Position: row.Position, Points: row.Points})
	}
	return out, nil
}
