package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/gym-league/internal/domain/personalrecord"
	qb "github.com/riskibarqy/gym-league/internal/platform/querybuilder"
	"github.com/shopspring/decimal"
)

type personalRecordTableModel struct {
	ID             int64           `db:"id"`
	PublicID       string          `db:"public_id"`
	AthleteID      string          `db:"athlete_id"`
	OrganizationID *string         `db:"organization_id"`
	Movement       string          `db:"movement"`
	MovementKey    string          `db:"movement_key"`
	Load           decimal.Decimal `db:"load_kg"`
	AchievedOn     time.Time       `db:"achieved_on"`
	CreatedAt      time.Time       `db:"created_at"`
}

type personalRecordInsertModel struct {
	PublicID       string          `db:"public_id"`
	AthleteID      string          `db:"athlete_id"`
	OrganizationID *string         `db:"organization_id"`
	Movement       string          `db:"movement"`
	MovementKey    string          `db:"movement_key"`
	Load           decimal.Decimal `db:"load_kg"`
	AchievedOn     string          `db:"achieved_on"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (m personalRecordTableModel) toDomain() personalrecord.Record {
	on := m.AchievedOn
	return personalrecord.Record{
		ID:             m.PublicID,
		AthleteID:      m.AthleteID,
		OrganizationID: m.OrganizationID,
		Movement:       m.Movement,
		MovementKey:    m.MovementKey,
		Load:           m.Load,
		AchievedOn:     time.Date(on.Year(), on.Month(), on.Day(), 0, 0, 0, 0, time.UTC),
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

type PersonalRecordRepository struct {
	db *sqlx.DB
}

func NewPersonalRecordRepository(db *sqlx.DB) *PersonalRecordRepository {
	return &PersonalRecordRepository{db: db}
}

func (r *PersonalRecordRepository) Create(ctx context.Context, rec personalrecord.Record) error {
	query, args, err := qb.InsertModel("personal_records", personalRecordInsertModel{
		PublicID:       rec.ID,
		AthleteID:      rec.AthleteID,
		OrganizationID: rec.OrganizationID,
		Movement:       rec.Movement,
		MovementKey:    rec.MovementKey,
		Load:           rec.Load,
		AchievedOn:     rec.AchievedOn.UTC().Format(time.DateOnly),
		CreatedAt:      rec.CreatedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert personal record query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert personal record: %w", err)
	}
	return nil
}

func (r *PersonalRecordRepository) ListByMovement(ctx context.Context, movementKey string, scope personalrecord.Scope) ([]personalrecord.Record, error) {
	conditions := []qb.Condition{qb.Eq("movement_key", movementKey)}
	if scope.OrganizationID != nil {
		conditions = append(conditions, qb.Eq("organization_id", *scope.OrganizationID))
	}
	query, args, err := qb.Select("*").
		From("personal_records").
		Where(conditions...).
		OrderBy("load_kg DESC", "achieved_on ASC", "public_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list personal records query: %w", err)
	}

	var rows []personalRecordTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list personal records: %w", err)
	}
	out := make([]personalrecord.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PersonalRecordRepository) ListMovementKeys(ctx context.Context) ([]string, error) {
	query, args, err := qb.Select("DISTINCT movement_key").
		From("personal_records").
		OrderBy("movement_key ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list movement keys query: %w", err)
	}

	keys := make([]string, 0)
	if err := r.db.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, fmt.Errorf("list movement keys: %w", err)
	}
	return keys, nil
}
