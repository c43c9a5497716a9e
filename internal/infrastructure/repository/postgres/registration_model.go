package postgres

import (
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/registration"
)

type registrationTableModel struct {
	ID             int64     `db:"id"`
	PublicID       string    `db:"public_id"`
	TournamentID   string    `db:"tournament_public_id"`
	AthleteID      string    `db:"athlete_id"`
	Category       string    `db:"category"`
	AgeBracket     string    `db:"age_bracket"`
	Status         string    `db:"status"`
	PaymentStatus  string    `db:"payment_status"`
	FinalPlacement *int      `db:"final_placement"`
	Points         *int      `db:"points"`
	RegisteredAt   time.Time `db:"registered_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type registrationInsertModel struct {
	PublicID      string    `db:"public_id"`
	TournamentID  string    `db:"tournament_public_id"`
	AthleteID     string    `db:"athlete_id"`
	Category      string    `db:"category"`
	AgeBracket    string    `db:"age_bracket"`
	Status        string    `db:"status"`
	PaymentStatus string    `db:"payment_status"`
	RegisteredAt  time.Time `db:"registered_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (m registrationTableModel) toDomain() registration.Registration {
	return registration.Registration{
		ID:             m.PublicID,
		TournamentID:   m.TournamentID,
		AthleteID:      m.AthleteID,
		Category:       registration.Category(m.Category),
		AgeBracket:     m.AgeBracket,
		Status:         registration.Status(m.Status),
		PaymentStatus:  registration.PaymentStatus(m.PaymentStatus),
		FinalPlacement: m.FinalPlacement,
		Points:         m.Points,
		RegisteredAt:   m.RegisteredAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}
