package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/riskibarqy/gym-league/internal/domain/tournament"
)

type TournamentRepository struct {
	db *Database
}

func NewTournamentRepository(db *Database) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) Create(_ context.Context, t tournament.Tournament) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.tournaments[t.ID]; exists {
		return fmt.Errorf("tournament %s already exists", t.ID)
	}
	r.db.tournaments[t.ID] = cloneTournament(t)
	return nil
}

func (r *TournamentRepository) GetByID(_ context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tournaments[tournamentID]
	if !ok {
		return tournament.Tournament{}, false, nil
	}
	return cloneTournament(t), true, nil
}

func (r *TournamentRepository) List(_ context.Context, filter tournament.ListFilter) ([]tournament.Tournament, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]tournament.Tournament, 0, len(r.db.tournaments))
	for _, t := range r.db.tournaments {
		if filter.Year != nil && t.StartsAt.UTC().Year() != *filter.Year {
			continue
		}
		if filter.OrganizationID != nil && !sameString(t.OrganizationID, filter.OrganizationID) {
			continue
		}
		out = append(out, cloneTournament(t))
	}
	slices.SortFunc(out, func(a, b tournament.Tournament) int {
		if c := a.StartsAt.Compare(b.StartsAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *TournamentRepository) Update(_ context.Context, t tournament.Tournament) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.tournaments[t.ID]; !exists {
		return fmt.Errorf("tournament %s not found", t.ID)
	}
	r.db.tournaments[t.ID] = cloneTournament(t)
	return nil
}

func cloneTournament(t tournament.Tournament) tournament.Tournament {
	t.OrganizationID = cloneString(t.OrganizationID)
	t.Capacity = cloneInt(t.Capacity)
	return t
}
