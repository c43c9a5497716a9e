package memory

import (
	"strconv"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
)

const (
	SeedTournamentID   = "demo-open-championship"
	SeedOrganizationID = "demo-gym"
)

// DemoData builds one open tournament with a scoring table and two heats so a
// local instance has something to register against.
func DemoData(now time.Time) (tournament.Tournament, []scoring.Rule, []heat.Heat) {
	now = now.UTC()
	org := SeedOrganizationID
	capacity := 40
	starts := now.AddDate(0, 0, 30).Truncate(24 * time.Hour)

	t := tournament.Tournament{
		ID:                   SeedTournamentID,
		Name:                 "Demo Open Championship",
		Type:                 tournament.TypeCity,
		OrganizationID:       &org,
		Venue:                "Demo Gym Main Floor",
		StartsAt:             starts,
		EndsAt:               starts.Add(10 * time.Hour),
		RegistrationOpensAt:  now.Add(-time.Hour),
		RegistrationClosesAt: starts.Add(-24 * time.Hour),
		Capacity:             &capacity,
		RegistrationsOpen:    true,
		AnnualRankingWeight:  tournament.DefaultAnnualRankingWeight,
		CreatedBy:            "seed",
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	rules := []scoring.Rule{
		{Position: 1, Points: 100},
		{Position: 2, Points: 95},
		{Position: 3, Points: 90},
		{Position: 4, Points: 85},
		{Position: 5, Points: 80},
	}

	heats := make([]heat.Heat, 0, 2)
	for i, format := range []heat.Format{heat.FormatForTime, heat.FormatAMRAP} {
		n := strconv.Itoa(i + 1)
		heats = append(heats, heat.Heat{
			ID:           SeedTournamentID + "-heat-" + n,
			TournamentID: SeedTournamentID,
			Sequence:     i + 1,
			Name:         "Heat " + n,
			ScheduledAt:  starts.Add(time.Duration(i+1) * time.Hour),
			Capacity:     heat.DefaultCapacity,
			Format:       format,
			CreatedAt:    now,
		})
	}
	return t, rules, heats
}

func SeedDemo(db *Database, now time.Time) {
	t, rules, heats := DemoData(now)

	db.mu.Lock()
	defer db.mu.Unlock()

	db.tournaments[t.ID] = t
	db.rules[t.ID] = rules
	for _, h := range heats {
		db.heats[h.ID] = h
	}
}
