package postgres

import (
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
)

type heatTableModel struct {
	ID           int64     `db:"id"`
	PublicID     string    `db:"public_id"`
	TournamentID string    `db:"tournament_public_id"`
	Sequence     int       `db:"sequence"`
	Name         string    `db:"name"`
	ScheduledAt  time.Time `db:"scheduled_at"`
	Capacity     int       `db:"capacity"`
	WorkoutID    *string   `db:"workout_id"`
	Format       string    `db:"format"`
	CreatedAt    time.Time `db:"created_at"`
}

type heatInsertModel struct {
	PublicID     string    `db:"public_id"`
	TournamentID string    `db:"tournament_public_id"`
	Sequence     int       `db:"sequence"`
	Name         string    `db:"name"`
	ScheduledAt  time.Time `db:"scheduled_at"`
	Capacity     int       `db:"capacity"`
	WorkoutID    *string   `db:"workout_id"`
	Format       string    `db:"format"`
	CreatedAt    time.Time `db:"created_at"`
}

type heatWithLoadRow struct {
	heatTableModel
	Allocated int `db:"allocated"`
}

type allocationTableModel struct {
	ID             int64     `db:"id"`
	PublicID       string    `db:"public_id"`
	HeatID         string    `db:"heat_public_id"`
	TournamentID   string    `db:"tournament_public_id"`
	RegistrationID string    `db:"registration_public_id"`
	Lane           *int      `db:"lane"`
	CreatedAt      time.Time `db:"created_at"`
}

type allocationInsertModel struct {
	PublicID       string    `db:"public_id"`
	HeatID         string    `db:"heat_public_id"`
	TournamentID   string    `db:"tournament_public_id"`
	RegistrationID string    `db:"registration_public_id"`
	Lane           *int      `db:"lane"`
	CreatedAt      time.Time `db:"created_at"`
}

func (m heatTableModel) toDomain() heat.Heat {
	return heat.Heat{
		ID:           m.PublicID,
		TournamentID: m.TournamentID,
		Sequence:     m.Sequence,
		Name:         m.Name,
		ScheduledAt:  m.ScheduledAt.UTC(),
		Capacity:     m.Capacity,
		WorkoutID:    m.WorkoutID,
		Format:       heat.Format(m.Format),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func (m allocationTableModel) toDomain() heat.Allocation {
	return heat.Allocation{
		ID:             m.PublicID,
		HeatID:         m.HeatID,
		TournamentID:   m.TournamentID,
		RegistrationID: m.RegistrationID,
		Lane:           m.Lane,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}
