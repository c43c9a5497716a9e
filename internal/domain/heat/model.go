package heat

import (
	"cmp"
	"errors"
	"slices"
	"time"
)

// Format is the declared workout format; it decides which measurement is authoritative.
type Format string

const (
	// FormatForTime ranks by ascending completion time.
	FormatForTime Format = "for_time"
	// FormatAMRAP ranks by descending reps (as many reps as possible).
	FormatAMRAP Format = "amrap"
)

func (f Format) Valid() bool {
	return f == FormatForTime || f == FormatAMRAP
}

const DefaultCapacity = 20

var (
	ErrNotEligible              = errors.New("registration is not eligible for a heat")
	ErrAlreadyAllocated         = errors.New("registration already allocated to a heat")
	ErrHeatFull                 = errors.New("heat is full")
	ErrResultsExist             = errors.New("allocation has recorded results")
	ErrCapacityBelowAllocations = errors.New("capacity is below current allocations")
	ErrLaneTaken                = errors.New("lane already taken in heat")
	ErrDuplicateSequence        = errors.New("heat sequence already used in tournament")
	ErrAllocationNotFound       = errors.New("heat allocation not found")
)

type Heat struct {
	ID           string
	TournamentID string
	Sequence     int
	Name         string
	ScheduledAt  time.Time
	Capacity     int
	WorkoutID    *string
	Format       Format
	CreatedAt    time.Time
}

// Allocation seats one registration in one heat.
type Allocation struct {
	ID             string
	HeatID         string
	TournamentID   string
	RegistrationID string
	Lane           *int
	CreatedAt      time.Time
}

// HeatWithLoad pairs a heat with how many seats are taken.
type HeatWithLoad struct {
	Heat      Heat
	Allocated int
}

func (h HeatWithLoad) Available() int {
	return max(h.Heat.Capacity-h.Allocated, 0)
}

// SortAllocations orders by lane (unset lanes last), then creation time, then id.
func SortAllocations(items []Allocation) {
	slices.SortStableFunc(items, func(a, b Allocation) int {
		switch {
		case a.Lane != nil && b.Lane != nil:
			if c := cmp.Compare(*a.Lane, *b.Lane); c != 0 {
				return c
			}
		case a.Lane != nil:
			return -1
		case b.Lane != nil:
			return 1
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
