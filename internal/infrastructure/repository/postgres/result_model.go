package postgres

import (
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/result"
)

type resultTableModel struct {
	ID             int64     `db:"id"`
	PublicID       string    `db:"public_id"`
	AllocationID   string    `db:"allocation_public_id"`
	HeatID         string    `db:"heat_public_id"`
	TournamentID   string    `db:"tournament_public_id"`
	RegistrationID string    `db:"registration_public_id"`
	TimeSeconds    *int      `db:"time_seconds"`
	Reps           *int      `db:"reps"`
	Position       *int      `db:"position"`
	Points         int       `db:"points"`
	Notes          string    `db:"notes"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type resultInsertModel struct {
	PublicID       string    `db:"public_id"`
	AllocationID   string    `db:"allocation_public_id"`
	HeatID         string    `db:"heat_public_id"`
	TournamentID   string    `db:"tournament_public_id"`
	RegistrationID string    `db:"registration_public_id"`
	TimeSeconds    *int      `db:"time_seconds"`
	Reps           *int      `db:"reps"`
	Notes          string    `db:"notes"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func newResultInsertModel(res result.Result) resultInsertModel {
	return resultInsertModel{
		PublicID:       res.ID,
		AllocationID:   res.AllocationID,
		HeatID:         res.HeatID,
		TournamentID:   res.TournamentID,
		RegistrationID: res.RegistrationID,
		TimeSeconds:    res.TimeSeconds,
		Reps:           res.Reps,
		Notes:          res.Notes,
		CreatedAt:      res.CreatedAt.UTC(),
		UpdatedAt:      res.UpdatedAt.UTC(),
	}
}

func (m resultTableModel) toDomain() result.Result {
	return result.Result{
		ID:             m.PublicID,
		AllocationID:   m.AllocationID,
		HeatID:         m.HeatID,
		TournamentID:   m.TournamentID,
		RegistrationID: m.RegistrationID,
		TimeSeconds:    m.TimeSeconds,
		Reps:           m.Reps,
		Position:       m.Position,
		Points:         m.Points,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}
