package memory

import (
	"context"
	"slices"

	"github.com/riskibarqy/gym-league/internal/domain/scoring"
)

type ScoringRepository struct {
	db *Database
}

func NewScoringRepository(db *Database) *ScoringRepository {
	return &ScoringRepository{db: db}
}

func (r *ScoringRepository) ReplaceRules(_ context.Context, tournamentID string, rules []scoring.Rule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.rules[tournamentID] = slices.Clone(rules)
	return nil
}

func (r *ScoringRepository) ListRules(_ context.Context, tournamentID string) ([]scoring.Rule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return scoring.NewTable(r.db.rules[tournamentID]).Rules(), nil
}
