// Package cache decorates repositories with a read-through in-process cache.
// Writes made through a decorator drop the keys they touch.
package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	basecache "github.com/riskibarqy/gym-league/internal/platform/cache"
)

type cachedTournament struct {
	value  tournament.Tournament
	exists bool
}

type TournamentRepository struct {
	next  tournament.Repository
	cache *basecache.Store[cachedTournament]
}

func NewTournamentRepository(next tournament.Repository, ttl time.Duration) *TournamentRepository {
	return &TournamentRepository{next: next, cache: basecache.NewStore[cachedTournament](ttl)}
}

func tournamentKey(tournamentID string) string {
	return "tournament:id:" + tournamentID
}

func (r *TournamentRepository) Create(ctx context.Context, t tournament.Tournament) error {
	if err := r.next.Create(ctx, t); err != nil {
		return err
	}
	r.cache.Delete(ctx, tournamentKey(t.ID))
	return nil
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	cached, err := r.cache.GetOrLoad(ctx, tournamentKey(tournamentID), func(ctx context.Context) (cachedTournament, error) {
		item, exists, err := r.next.GetByID(ctx, tournamentID)
		if err != nil {
			return cachedTournament{}, err
		}
		return cachedTournament{value: item, exists: exists}, nil
	})
	if err != nil {
		return tournament.Tournament{}, false, err
	}
	return cloneTournament(cached.value), cached.exists, nil
}

func cloneTournament(t tournament.Tournament) tournament.Tournament {
	if t.OrganizationID != nil {
		org := *t.OrganizationID
		t.OrganizationID = &org
	}
	if t.Capacity != nil {
		capacity := *t.Capacity
		t.Capacity = &capacity
	}
	return t
}

// List is not cached; filters make the key space unbounded.
func (r *TournamentRepository) List(ctx context.Context, filter tournament.ListFilter) ([]tournament.Tournament, error) {
	return r.next.List(ctx, filter)
}

func (r *TournamentRepository) Update(ctx context.Context, t tournament.Tournament) error {
	err := r.next.Update(ctx, t)
	r.cache.Delete(ctx, tournamentKey(t.ID))
	return err
}

type ScoringRepository struct {
	next  scoring.Repository
	cache *basecache.Store[[]scoring.Rule]
}

func NewScoringRepository(next scoring.Repository, ttl time.Duration) *ScoringRepository {
	return &ScoringRepository{next: next, cache: basecache.NewStore[[]scoring.Rule](ttl)}
}

func rulesKey(tournamentID string) string {
	return "scoring:rules:" + tournamentID
}

func (r *ScoringRepository) ReplaceRules(ctx context.Context, tournamentID string, rules []scoring.Rule) error {
	err := r.next.ReplaceRules(ctx, tournamentID, rules)
	r.cache.Delete(ctx, rulesKey(tournamentID))
	return err
}

func (r *ScoringRepository) ListRules(ctx context.Context, tournamentID string) ([]scoring.Rule, error) {
	rules, err := r.cache.GetOrLoad(ctx, rulesKey(tournamentID), func(ctx context.Context) ([]scoring.Rule, error) {
		items, err := r.next.ListRules(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		return append([]scoring.Rule(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]scoring.Rule(nil), rules...), nil
}
