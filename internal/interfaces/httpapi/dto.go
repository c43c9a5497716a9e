package httpapi

import (
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/personalrecord"
	"github.com/riskibarqy/gym-league/internal/domain/ranking"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/result"
	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

type tournamentDTO struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	OrganizationID       *string   `json:"organization_id"`
	Venue                string    `json:"venue"`
	StartsAt             time.Time `json:"starts_at"`
	EndsAt               time.Time `json:"ends_at"`
	RegistrationOpensAt  time.Time `json:"registration_opens_at"`
	RegistrationClosesAt time.Time `json:"registration_closes_at"`
	Capacity             *int      `json:"capacity"`
	EntryFeeMinor        int64     `json:"entry_fee_minor"`
	RegistrationsOpen    bool      `json:"registrations_open"`
	AnnualRankingWeight  int       `json:"annual_ranking_weight"`
	CreatedBy            string    `json:"created_by"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func tournamentToDTO(t tournament.Tournament) tournamentDTO {
	return tournamentDTO{
		ID:                   t.ID,
		Name:                 t.Name,
		Type:                 string(t.Type),
		OrganizationID:       t.OrganizationID,
		Venue:                t.Venue,
		StartsAt:             t.StartsAt,
		EndsAt:               t.EndsAt,
		RegistrationOpensAt:  t.RegistrationOpensAt,
		RegistrationClosesAt: t.RegistrationClosesAt,
		Capacity:             t.Capacity,
		EntryFeeMinor:        t.EntryFeeMinor,
		RegistrationsOpen:    t.RegistrationsOpen,
		AnnualRankingWeight:  t.AnnualRankingWeight,
		CreatedBy:            t.CreatedBy,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

type registrationDTO struct {
	ID             string    `json:"id"`
	TournamentID   string    `json:"tournament_id"`
	AthleteID      string    `json:"athlete_id"`
	Category       string    `json:"category"`
	AgeBracket     string    `json:"age_bracket"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	FinalPlacement *int      `json:"final_placement"`
	Points         *int      `json:"points"`
	RegisteredAt   time.Time `json:"registered_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func registrationToDTO(r registration.Registration) registrationDTO {
	return registrationDTO{
		ID:             r.ID,
		TournamentID:   r.TournamentID,
		AthleteID:      r.AthleteID,
		Category:       string(r.Category),
		AgeBracket:     r.AgeBracket,
		Status:         string(r.Status),
		PaymentStatus:  string(r.PaymentStatus),
		FinalPlacement: r.FinalPlacement,
		Points:         r.Points,
		RegisteredAt:   r.RegisteredAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type scoringRuleDTO struct {
	Position int `json:"position" validate:"gt=0"`
	Points   int `json:"points" validate:"gte=0"`
}

func scoringRulesToDTO(rules []scoring.Rule) []scoringRuleDTO {
	out := make([]scoringRuleDTO, 0, len(rules))
	for _, rule := range rules {
		out = append(out, scoringRuleDTO{Position: rule.Position, Points: rule.Points})
	}
	return out
}

type heatDTO struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournament_id"`
	Sequence     int       `json:"sequence"`
	Name         string    `json:"name"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Capacity     int       `json:"capacity"`
	WorkoutID    *string   `json:"workout_id"`
	Format       string    `json:"format"`
	Allocated    *int      `json:"allocated,omitempty"`
	Available    *int      `json:"available,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func heatToDTO(h heat.Heat) heatDTO {
	return heatDTO{
		ID:           h.ID,
		TournamentID: h.TournamentID,
		Sequence:     h.Sequence,
		Name:         h.Name,
		ScheduledAt:  h.ScheduledAt,
		Capacity:     h.Capacity,
		WorkoutID:    h.WorkoutID,
		Format:       string(h.Format),
		CreatedAt:    h.CreatedAt,
	}
}

func heatWithLoadToDTO(h heat.HeatWithLoad) heatDTO {
	dto := heatToDTO(h.Heat)
	allocated, available := h.Allocated, h.Available()
	dto.Allocated = &allocated
	dto.Available = &available
	return dto
}

type allocationDTO struct {
	ID             string    `json:"id"`
	HeatID         string    `json:"heat_id"`
	TournamentID   string    `json:"tournament_id"`
	RegistrationID string    `json:"registration_id"`
	Lane           *int      `json:"lane"`
	CreatedAt      time.Time `json:"created_at"`
}

func allocationToDTO(a heat.Allocation) allocationDTO {
	return allocationDTO{
		ID:             a.ID,
		HeatID:         a.HeatID,
		TournamentID:   a.TournamentID,
		RegistrationID: a.RegistrationID,
		Lane:           a.Lane,
		CreatedAt:      a.CreatedAt,
	}
}

type resultDTO struct {
	ID             string    `json:"id"`
	AllocationID   string    `json:"allocation_id"`
	HeatID         string    `json:"heat_id"`
	TournamentID   string    `json:"tournament_id"`
	RegistrationID string    `json:"registration_id"`
	TimeSeconds    *int      `json:"time_seconds"`
	Reps           *int      `json:"reps"`
	Position       *int      `json:"position"`
	Points         int       `json:"points"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func resultToDTO(r result.Result) resultDTO {
	return resultDTO{
		ID:             r.ID,
		AllocationID:   r.AllocationID,
		HeatID:         r.HeatID,
		TournamentID:   r.TournamentID,
		RegistrationID: r.RegistrationID,
		TimeSeconds:    r.TimeSeconds,
		Reps:           r.Reps,
		Position:       r.Position,
		Points:         r.Points,
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type leaderboardEntryDTO struct {
	Rank           int    `json:"rank"`
	AthleteID      string `json:"athlete_id"`
	RegistrationID string `json:"registration_id"`
	HeatID         string `json:"heat_id"`
	Category       string `json:"category"`
	AgeBracket     string `json:"age_bracket"`
	TimeSeconds    *int   `json:"time_seconds"`
	Reps           *int   `json:"reps"`
	HeatPosition   *int   `json:"heat_position"`
	Points         int    `json:"points"`
}

func leaderboardToDTO(entries []ranking.LeaderboardEntry) []leaderboardEntryDTO {
	out := make([]leaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardEntryDTO{
			Rank:           e.Rank,
			AthleteID:      e.AthleteID,
			RegistrationID: e.RegistrationID,
			HeatID:         e.HeatID,
			Category:       string(e.Category),
			AgeBracket:     e.AgeBracket,
			TimeSeconds:    e.TimeSeconds,
			Reps:           e.Reps,
			HeatPosition:   e.HeatPosition,
			Points:         e.Points,
		})
	}
	return out
}

type annualEntryDTO struct {
	Rank          int    `json:"rank"`
	AthleteID     string `json:"athlete_id"`
	WeightedTotal int64  `json:"weighted_total"`
	Tournaments   int    `json:"tournaments"`
}

func annualToDTO(entries []ranking.AnnualEntry) []annualEntryDTO {
	out := make([]annualEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, annualEntryDTO{Rank: e.Rank, AthleteID: e.AthleteID, WeightedTotal: e.WeightedTotal, Tournaments: e.Tournaments})
	}
	return out
}

type movementEntryDTO struct {
	Rank       int    `json:"rank"`
	AthleteID  string `json:"athlete_id"`
	RecordID   string `json:"record_id"`
	Movement   string `json:"movement"`
	LoadKg     string `json:"load_kg"`
	AchievedOn string `json:"achieved_on"`
}

func movementToDTO(entries []ranking.MovementEntry) []movementEntryDTO {
	out := make([]movementEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, movementEntryDTO{
			Rank:       e.Rank,
			AthleteID:  e.AthleteID,
			RecordID:   e.RecordID,
			Movement:   e.Movement,
			LoadKg:     e.Load.StringFixed(2),
			AchievedOn: e.AchievedOn.Format(time.DateOnly),
		})
	}
	return out
}

type personalRecordDTO struct {
	ID             string    `json:"id"`
	AthleteID      string    `json:"athlete_id"`
	OrganizationID *string   `json:"organization_id"`
	Movement       string    `json:"movement"`
	LoadKg         string    `json:"load_kg"`
	AchievedOn     string    `json:"achieved_on"`
	CreatedAt      time.Time `json:"created_at"`
}

func personalRecordToDTO(r personalrecord.Record) personalRecordDTO {
	return personalRecordDTO{
		ID:             r.ID,
		AthleteID:      r.AthleteID,
		OrganizationID: r.OrganizationID,
		Movement:       r.Movement,
		LoadKg:         r.Load.StringFixed(2),
		AchievedOn:     r.AchievedOn.Format(time.DateOnly),
		CreatedAt:      r.CreatedAt,
	}
}

type snapshotDTO struct {
	Kind       string    `json:"kind"`
	Subject    string    `json:"subject"`
	Period     string    `json:"period"`
	ComputedAt time.Time `json:"computed_at"`
	// Entries is the stored payload, passed through untouched.
	Entries rawJSON `json:"entries"`
}

// rawJSON embeds pre-encoded JSON in a response.
type rawJSON []byte

func (r rawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("[]"), nil
	}
	return r, nil
}

type rescoreDTO struct {
	TournamentID string `json:"tournament_id"`
	Heats        int    `json:"heats"`
	Results      int    `json:"results"`
}

type certificateDTO struct {
	Registration    registrationDTO `json:"registration"`
	Tournament      tournamentDTO   `json:"tournament"`
	HeatID          string          `json:"heat_id"`
	HeatPosition    int             `json:"heat_position"`
	Points          int             `json:"points"`
	LeaderboardRank int             `json:"leaderboard_rank"`
}

func certificateToDTO(c usecase.CertificateEligibility) certificateDTO {
	return certificateDTO{
		Registration:    registrationToDTO(c.Registration),
		Tournament:      tournamentToDTO(c.Tournament),
		HeatID:          c.HeatID,
		HeatPosition:    c.HeatPosition,
		Points:          c.Points,
		LeaderboardRank: c.LeaderboardRank,
	}
}
