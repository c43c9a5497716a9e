// Package ranking builds the derived ranking views. Every builder is a pure
// function of its input rows: same rows in, same entries out.
package ranking

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/personalrecord"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/shopspring/decimal"
)

type ViewKind string

const (
	ViewTournamentLeaderboard ViewKind = "tournament-leaderboard"
	ViewAnnualGlobal          ViewKind = "annual-global"
	ViewMovementPR            ViewKind = "movement-pr"
)

func (k ViewKind) Valid() bool {
	switch k {
	case ViewTournamentLeaderboard, ViewAnnualGlobal, ViewMovementPR:
		return true
	default:
		return false
	}
}

// LeaderboardRow is one result joined with its registration.
type LeaderboardRow struct {
	ResultID       string
	AllocationID   string
	HeatID         string
	RegistrationID string
	AthleteID      string
	Category       registration.Category
	AgeBracket     string
	TimeSeconds    *int
	Reps           *int
	HeatPosition   *int
	Points         int
}

type LeaderboardEntry struct {
	Rank int
	LeaderboardRow
}

// BuildLeaderboard orders by points desc, heat position asc (unset last), registration id asc.
func BuildLeaderboard(rows []LeaderboardRow) []LeaderboardEntry {
	sorted := slices.Clone(rows)
	slices.SortFunc(sorted, func(a, b LeaderboardRow) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		if c := comparePosition(a.HeatPosition, b.HeatPosition); c != 0 {
			return c
		}
		return cmp.Compare(a.RegistrationID, b.RegistrationID)
	})

	out := make([]LeaderboardEntry, 0, len(sorted))
	for i, row := range sorted {
		out = append(out, LeaderboardEntry{Rank: i + 1, LeaderboardRow: row})
	}
	return out
}

func comparePosition(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

// AnnualRow is a scored registration in a tournament of the requested year.
type AnnualRow struct {
	AthleteID      string
	RegistrationID string
	TournamentID   string
	Category       registration.Category
	AgeBracket     string
	Points         int
	Weight         int
}

type AnnualFilter struct {
	Category   *registration.Category
	AgeBracket *string
}

func (f AnnualFilter) matches(row AnnualRow) bool {
	if f.Category != nil && row.Category != *f.Category {
		return false
	}
	if f.AgeBracket != nil && row.AgeBracket != *f.AgeBracket {
		return false
	}
	return true
}

type AnnualEntry struct {
	Rank          int
	AthleteID     string
	WeightedTotal int64
	Tournaments   int
}

// BuildAnnualRanking applies the filter per row, then sums points*weight per athlete.
func BuildAnnualRanking(rows []AnnualRow, filter AnnualFilter) []AnnualEntry {
	totals := make(map[string]*AnnualEntry)
	for _, row := range rows {
		if !filter.matches(row) {
			continue
		}
		entry, ok := totals[row.AthleteID]
		if !ok {
			entry = &AnnualEntry{AthleteID: row.AthleteID}
			totals[row.AthleteID] = entry
		}
		entry.WeightedTotal += int64(row.Points) * int64(row.Weight)
		entry.Tournaments++
	}

	out := make([]AnnualEntry, 0, len(totals))
	for _, entry := range totals {
		out = append(out, *entry)
	}
	slices.SortFunc(out, func(a, b AnnualEntry) int {
		if c := cmp.Compare(b.WeightedTotal, a.WeightedTotal); c != 0 {
			return c
		}
		return cmp.Compare(a.AthleteID, b.AthleteID)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

type MovementEntry struct {
	Rank       int
	AthleteID  string
	RecordID   string
	Movement   string
	Load       decimal.Decimal
	AchievedOn time.Time
}

// BuildMovementRanking keeps each athlete's best load (earliest date wins equal loads),
// then orders by load desc, date asc, athlete id asc.
func BuildMovementRanking(records []personalrecord.Record) []MovementEntry {
	best := make(map[string]personalrecord.Record)
	for _, rec := range records {
		current, ok := best[rec.AthleteID]
		if !ok || betterRecord(rec, current) {
			best[rec.AthleteID] = rec
		}
	}

	out := make([]MovementEntry, 0, len(best))
	for _, rec := range best {
		out = append(out, MovementEntry{
			AthleteID:  rec.AthleteID,
			RecordID:   rec.ID,
			Movement:   rec.Movement,
			Load:       rec.Load,
			AchievedOn: rec.AchievedOn,
		})
	}
	slices.SortFunc(out, func(a, b MovementEntry) int {
		if c := b.Load.Cmp(a.Load); c != 0 {
			return c
		}
		if c := a.AchievedOn.Compare(b.AchievedOn); c != 0 {
			return c
		}
		return cmp.Compare(a.AthleteID, b.AthleteID)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func betterRecord(candidate, current personalrecord.Record) bool {
	if c := candidate.Load.Cmp(current.Load); c != 0 {
		return c > 0
	}
	if c := candidate.AchievedOn.Compare(current.AchievedOn); c != 0 {
		return c < 0
	}
	return candidate.ID < current.ID
}

// Snapshot is a persisted copy of one computed view. ComputedAt stamps its version.
type Snapshot struct {
	Kind       ViewKind
	Subject    string
	Period     string
	Payload    []byte
	ComputedAt time.Time
}

// AnnualPeriod renders a year as a snapshot period key.
func AnnualPeriod(year int) string {
	return strconv.Itoa(year)
}
