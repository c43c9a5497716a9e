package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	qb "github.com/riskibarqy/gym-league/internal/platform/querybuilder"
)

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) Create(ctx context.Context, t tournament.Tournament) error {
	query, args, err := qb.InsertModel("tournaments", newTournamentInsertModel(t), "")
	if err != nil {
		return fmt.Errorf("build insert tournament query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "tournaments_public_id_key") {
			return fmt.Errorf("tournament %s already exists: %w", t.ID, err)
		}
		return fmt.Errorf("insert tournament: %w", err)
	}
	return nil
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	query, args, err := qb.Select("*").
		From("tournaments").
		Where(qb.Eq("public_id", tournamentID)).
		ToSQL()
	if err != nil {
		return tournament.Tournament{}, false, fmt.Errorf("build get tournament query: %w", err)
	}

	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, false, nil
		}
		return tournament.Tournament{}, false, fmt.Errorf("get tournament: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *TournamentRepository) List(ctx context.Context, filter tournament.ListFilter) ([]tournament.Tournament, error) {
	builder := qb.Select("*").From("tournaments").OrderBy("starts_at ASC", "public_id ASC")
	if filter.Year != nil {
		start, end := yearBounds(*filter.Year)
		builder.Where(qb.Expr("starts_at >= ? AND starts_at < ?", start, end))
	}
	if filter.OrganizationID != nil {
		builder.Where(qb.Eq("organization_id", *filter.OrganizationID))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list tournaments query: %w", err)
	}

	var rows []tournamentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TournamentRepository) Update(ctx context.Context, t tournament.Tournament) error {
	query, args, err := qb.Update("tournaments").
		Set("name", t.Name).
		Set("venue", t.Venue).
		Set("registration_opens_at", t.RegistrationOpensAt.UTC()).
		Set("registration_closes_at", t.RegistrationClosesAt.UTC()).
		Set("registrations_open", t.RegistrationsOpen).
		Set("capacity", t.Capacity).
		Set("entry_fee_minor", t.EntryFeeMinor).
		Set("annual_ranking_weight", t.AnnualRankingWeight).
		Set("updated_at", t.UpdatedAt.UTC()).
		Where(qb.Eq("public_id", t.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update tournament query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update tournament: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("tournament %s not found", t.ID)
	}
	return nil
}
