package cache

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/require"
)

type countingTournaments struct {
	tournament.Repository
	gets int
}

func (c *countingTournaments) GetByID(ctx context.Context, id string) (tournament.Tournament, bool, error) {
	c.gets++
	return c.Repository.GetByID(ctx, id)
}

type countingRules struct {
	scoring.Repository
	lists int
}

func (c *countingRules) ListRules(ctx context.Context, id string) ([]scoring.Rule, error) {
	c.lists++
	return c.Repository.ListRules(ctx, id)
}

func TestTournamentRepository_ReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase()
	next := &countingTournaments{Repository: memory.NewTournamentRepository(db)}
	repo := NewTournamentRepository(next, time.Minute)

	_, exists, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.False(t, exists)

	now := time.Now().UTC()
	item := tournament.Tournament{
		ID:                  "t1",
		Name:                "Summer Open",
		Type:                tournament.TypeCity,
		StartsAt:            now.AddDate(0, 0, 7),
		EndsAt:              now.AddDate(0, 0, 8),
		AnnualRankingWeight: 1,
	}
	require.NoError(t, repo.Create(ctx, item))

	got, exists, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "Summer Open", got.Name)

	_, _, err = repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 2, next.gets)

	got.Name = "Summer Open Finals"
	require.NoError(t, repo.Update(ctx, got))

	got, _, err = repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "Summer Open Finals", got.Name)
	require.Equal(t, 3, next.gets)
}

func TestScoringRepository_ReplaceDropsCachedRules(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase()
	next := &countingRules{Repository: memory.NewScoringRepository(db)}
	repo := NewScoringRepository(next, time.Minute)

	require.NoError(t, repo.ReplaceRules(ctx, "t1", []scoring.Rule{{Position: 1, Points: 100}}))

	rules, err := repo.ListRules(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, rules, 1)

	rules[0].Points = 1
	again, err := repo.ListRules(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 100, again[0].Points)
	require.Equal(t, 1, next.lists)

	require.NoError(t, repo.ReplaceRules(ctx, "t1", []scoring.Rule{{Position: 1, Points: 100}, {Position: 2, Points: 90}}))
	rules, err = repo.ListRules(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Equal(t, 2, next.lists)
}
