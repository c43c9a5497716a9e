package memory

import (
	"context"
	"slices"

	"github.com/riskibarqy/gym-league/internal/domain/ranking"
)

type RankingRepository struct {
	db *Database
}

func NewRankingRepository(db *Database) *RankingRepository {
	return &RankingRepository{db: db}
}

func (r *RankingRepository) ListLeaderboardRows(_ context.Context, tournamentID string) ([]ranking.LeaderboardRow, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]ranking.LeaderboardRow, 0)
	for _, res := range r.db.results {
		if res.TournamentID != tournamentID {
			continue
		}
		reg := r.db.registrations[res.RegistrationID]
		out = append(out, ranking.LeaderboardRow{
			ResultID:       res.ID,
			AllocationID:   res.AllocationID,
			HeatID:         res.HeatID,
			RegistrationID: res.RegistrationID,
			AthleteID:      reg.AthleteID,
			Category:       reg.Category,
			AgeBracket:     reg.AgeBracket,
			TimeSeconds:    cloneInt(res.TimeSeconds),
			Reps:           cloneInt(res.Reps),
			HeatPosition:   cloneInt(res.Position),
			Points:         res.Points,
		})
	}
	return out, nil
}

func (r *RankingRepository) ListAnnualRows(_ context.Context, year int) ([]ranking.AnnualRow, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]ranking.AnnualRow, 0)
	for _, reg := range r.db.registrations {
		if reg.Points == nil {
			continue
		}
		t, ok := r.db.tournaments[reg.TournamentID]
		if !ok || t.StartsAt.UTC().Year() != year {
			continue
		}
		out = append(out, ranking.AnnualRow{
			AthleteID:      reg.AthleteID,
			RegistrationID: reg.ID,
			TournamentID:   reg.TournamentID,
			Category:       reg.Category,
			AgeBracket:     reg.AgeBracket,
			Points:         *reg.Points,
			Weight:         t.AnnualRankingWeight,
		})
	}
	return out, nil
}

func (r *RankingRepository) ReplaceSnapshot(_ context.Context, s ranking.Snapshot) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s.Payload = slices.Clone(s.Payload)
	r.db.snapshots[snapshotKey(s.Kind, s.Subject, s.Period)] = s
	return nil
}

func (r *RankingRepository) GetSnapshot(_ context.Context, kind ranking.ViewKind, subject, period string) (ranking.Snapshot, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.snapshots[snapshotKey(kind, subject, period)]
	if !ok {
		return ranking.Snapshot{}, false, nil
	}
	s.Payload = slices.Clone(s.Payload)
	return s, true, nil
}

func snapshotKey(kind ranking.ViewKind, subject, period string) string {
	return string(kind) + "::" + subject + "::" + period
}
