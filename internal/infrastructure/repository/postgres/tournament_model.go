package postgres

import (
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/tournament"
)

type tournamentTableModel struct {
	ID                   int64     `db:"id"`
	PublicID             string    `db:"public_id"`
	Name                 string    `db:"name"`
	Type                 string    `db:"tournament_type"`
	OrganizationID       *string   `db:"organization_id"`
	Venue                string    `db:"venue"`
	StartsAt             time.Time `db:"starts_at"`
	EndsAt               time.Time `db:"ends_at"`
	RegistrationOpensAt  time.Time `db:"registration_opens_at"`
	RegistrationClosesAt time.Time `db:"registration_closes_at"`
	Capacity             *int      `db:"capacity"`
	EntryFeeMinor        int64     `db:"entry_fee_minor"`
	RegistrationsOpen    bool      `db:"registrations_open"`
	AnnualRankingWeight  int       `db:"annual_ranking_weight"`
	CreatedBy            string    `db:"created_by"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

type tournamentInsertModel struct {
	PublicID             string    `db:"public_id"`
	Name                 string    `db:"name"`
	Type                 string    `db:"tournament_type"`
	OrganizationID       *string   `db:"organization_id"`
	Venue                string    `db:"venue"`
	StartsAt             time.Time `db:"starts_at"`
	EndsAt               time.Time `db:"ends_at"`
	RegistrationOpensAt  time.Time `db:"registration_opens_at"`
	RegistrationClosesAt time.Time `db:"registration_closes_at"`
	Capacity             *int      `db:"capacity"`
	EntryFeeMinor        int64     `db:"entry_fee_minor"`
	RegistrationsOpen    bool      `db:"registrations_open"`
	AnnualRankingWeight  int       `db:"annual_ranking_weight"`
	CreatedBy            string    `db:"created_by"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func newTournamentInsertModel(t tournament.Tournament) tournamentInsertModel {
	return tournamentInsertModel{
		PublicID:             t.ID,
		Name:                 t.Name,
		Type:                 string(t.Type),
		OrganizationID:       t.OrganizationID,
		Venue:                t.Venue,
		StartsAt:             t.StartsAt.UTC(),
		EndsAt:               t.EndsAt.UTC(),
		RegistrationOpensAt:  t.RegistrationOpensAt.UTC(),
		RegistrationClosesAt: t.RegistrationClosesAt.UTC(),
		Capacity:             t.Capacity,
		EntryFeeMinor:        t.EntryFeeMinor,
		RegistrationsOpen:    t.RegistrationsOpen,
		AnnualRankingWeight:  t.AnnualRankingWeight,
		CreatedBy:            t.CreatedBy,
		CreatedAt:            t.CreatedAt.UTC(),
		UpdatedAt:            t.UpdatedAt.UTC(),
	}
}

func (m tournamentTableModel) toDomain() tournament.Tournament {
	return tournament.Tournament{
		ID:                   m.PublicID,
		Name:                 m.Name,
		Type:                 tournament.Type(m.Type),
		OrganizationID:       m.OrganizationID,
		Venue:                m.Venue,
		StartsAt:             m.StartsAt.UTC(),
		EndsAt:               m.EndsAt.UTC(),
		RegistrationOpensAt:  m.RegistrationOpensAt.UTC(),
		RegistrationClosesAt: m.RegistrationClosesAt.UTC(),
		Capacity:             m.Capacity,
		EntryFeeMinor:        m.EntryFeeMinor,
		RegistrationsOpen:    m.RegistrationsOpen,
		AnnualRankingWeight:  m.AnnualRankingWeight,
		CreatedBy:            m.CreatedBy,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}
