package scoring

import "context"

type Repository interface {
	// ReplaceRules swaps the whole rule set of a tournament atomically.
	ReplaceRules(ctx context.Context, tournamentID string, rules []Rule) error
	ListRules(ctx context.Context, tournamentID string) ([]Rule, error)
}
