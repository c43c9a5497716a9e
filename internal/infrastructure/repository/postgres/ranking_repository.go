package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/gym-league/internal/domain/ranking"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	qb "github.com/riskibarqy/gym-league/internal/platform/querybuilder"
)

// replaceSnapshotSuffix keeps the newest computation when refreshers race.
const replaceSnapshotSuffix = `ON CONFLICT ON CONSTRAINT ranking_snapshots_view_key DO UPDATE SET
	payload = EXCLUDED.payload,
	computed_at = EXCLUDED.computed_at
WHERE ranking_snapshots.computed_at <= EXCLUDED.computed_at`

type leaderboardRowModel struct {
	ResultID       string `db:"result_public_id"`
	AllocationID   string `db:"allocation_public_id"`
	HeatID         string `db:"heat_public_id"`
	RegistrationID string `db:"registration_public_id"`
	AthleteID      string `db:"athlete_id"`
	Category       string `db:"category"`
	AgeBracket     string `db:"age_bracket"`
	TimeSeconds    *int   `db:"time_seconds"`
	Reps           *int   `db:"reps"`
	Position       *int   `db:"position"`
	Points         int    `db:"points"`
}

type annualRowModel struct {
	AthleteID      string `db:"athlete_id"`
	RegistrationID string `db:"public_id"`
	TournamentID   string `db:"tournament_public_id"`
	Category       string `db:"category"`
	AgeBracket     string `db:"age_bracket"`
	Points         int    `db:"points"`
	Weight         int    `db:"annual_ranking_weight"`
}

type snapshotModel struct {
	Kind       string    `db:"view_kind"`
	Subject    string    `db:"subject"`
	Period     string    `db:"period"`
	Payload    string    `db:"payload"`
	ComputedAt time.Time `db:"computed_at"`
}

type RankingRepository struct {
	db *sqlx.DB
}

func NewRankingRepository(db *sqlx.DB) *RankingRepository {
	return &RankingRepository{db: db}
}

func (r *RankingRepository) ListLeaderboardRows(ctx context.Context, tournamentID string) ([]ranking.LeaderboardRow, error) {
	const query = `
SELECT res.public_id AS result_public_id,
       res.allocation_public_id,
       res.heat_public_id,
       res.registration_public_id,
       reg.athlete_id,
       reg.category,
       reg.age_bracket,
       res.time_seconds,
       res.reps,
       res.position,
       res.points
FROM results res
JOIN registrations reg ON reg.public_id = res.registration_public_id
WHERE res.tournament_public_id = $1`

	var rows []leaderboardRowModel
	if err := r.db.SelectContext(ctx, &rows, query, tournamentID); err != nil {
		return nil, fmt.Errorf("list leaderboard rows: %w", err)
	}
	out := make([]ranking.LeaderboardRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ranking.LeaderboardRow{
			ResultID:       row.ResultID,
			AllocationID:   row.AllocationID,
			HeatID:         row.HeatID,
			RegistrationID: row.RegistrationID,
			AthleteID:      row.AthleteID,
			Category:       registration.Category(row.Category),
			AgeBracket:     row.AgeBracket,
			TimeSeconds:    row.TimeSeconds,
			Reps:           row.Reps,
			HeatPosition:   row.Position,
			Points:         row.Points,
		})
	}
	return out, nil
}

func (r *RankingRepository) ListAnnualRows(ctx context.Context, year int) ([]ranking.AnnualRow, error) {
	from, to := yearBounds(year)
	const query = `
SELECT reg.athlete_id,
       reg.public_id,
       reg.tournament_public_id,
       reg.category,
       reg.age_bracket,
       reg.points,
       t.annual_ranking_weight
FROM registrations reg
JOIN tournaments t ON t.public_id = reg.tournament_public_id
WHERE reg.points IS NOT NULL
  AND t.starts_at >= $1
  AND t.starts_at < $2`

	var rows []annualRowModel
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("list annual rows: %w", err)
	}
	out := make([]ranking.AnnualRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ranking.AnnualRow{
			AthleteID:      row.AthleteID,
			RegistrationID: row.RegistrationID,
			TournamentID:   row.TournamentID,
			Category:       registration.Category(row.Category),
			AgeBracket:     row.AgeBracket,
			Points:         row.Points,
			Weight:         row.Weight,
		})
	}
	return out, nil
}

func (r *RankingRepository) ReplaceSnapshot(ctx context.Context, s ranking.Snapshot) error {
	query, args, err := qb.InsertModel("ranking_snapshots", snapshotModel{
		Kind:       string(s.Kind),
		Subject:    s.Subject,
		Period:     s.Period,
		Payload:    string(s.Payload),
		ComputedAt: s.ComputedAt.UTC(),
	}, replaceSnapshotSuffix)
	if err != nil {
		return fmt.Errorf("build replace snapshot query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (r *RankingRepository) GetSnapshot(ctx context.Context, kind ranking.ViewKind, subject, period string) (ranking.Snapshot, bool, error) {
	query, args, err := qb.Select("view_kind", "subject", "period", "payload", "computed_at").
		From("ranking_snapshots").
		Where(qb.Eq("view_kind", string(kind)), qb.Eq("subject", subject), qb.Eq("period", period)).
		ToSQL()
	if err != nil {
		return ranking.Snapshot{}, false, fmt.Errorf("build get snapshot query: %w", err)
	}

	var row snapshotModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return ranking.Snapshot{}, false, nil
		}
		return ranking.Snapshot{}, false, fmt.Errorf("get snapshot: %w", err)
	}
	return ranking.Snapshot{
		Kind:       ranking.ViewKind(row.Kind),
		Subject:    row.Subject,
		Period:     row.Period,
		Payload:    []byte(row.Payload),
		ComputedAt: row.ComputedAt.UTC(),
	}, true, nil
}
