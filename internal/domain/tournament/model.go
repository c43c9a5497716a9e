package tournament

import (
	"errors"
	"fmt"
	"time"
)

type Type string

const (
	TypeInternal Type = "internal"
	TypeCity     Type = "city"
	TypeRegional Type = "regional"
	TypeState    Type = "state"
	TypeNational Type = "national"
)

func (t Type) Valid() bool {
	switch t {
	case TypeInternal, TypeCity, TypeRegional, TypeState, TypeNational:
		return true
	default:
		return false
	}
}

// DefaultAnnualRankingWeight applies when an organizer does not set a weight.
const DefaultAnnualRankingWeight = 1

var ErrInvalidTournament = errors.New("invalid tournament")

// Tournament is a championship event. OrganizationID is nil for league-run events.
type Tournament struct {
	ID                   string
	Name                 string
	Type                 Type
	OrganizationID       *string
	Venue                string
	StartsAt             time.Time
	EndsAt               time.Time
	RegistrationOpensAt  time.Time
	RegistrationClosesAt time.Time
	// Capacity is nil when registrations are unbounded.
	Capacity            *int
	EntryFeeMinor       int64
	RegistrationsOpen   bool
	AnnualRankingWeight int
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (t Tournament) IsFree() bool {
	return t.EntryFeeMinor <= 0
}

// AcceptsRegistrations reports whether a new entry may be taken at now.
func (t Tournament) AcceptsRegistrations(now time.Time) bool {
	if !t.RegistrationsOpen {
		return false
	}
	if now.Before(t.RegistrationOpensAt) {
		return false
	}
	if !now.Before(t.RegistrationClosesAt) {
		return false
	}
	return now.Before(t.StartsAt)
}

// Ended is true once the end date has passed; the event is then read-only.
func (t Tournament) Ended(now time.Time) bool {
	return !now.Before(t.EndsAt)
}

func (t Tournament) Validate() error {
	switch {
	case t.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidTournament)
	case !t.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTournament, t.Type)
	case t.StartsAt.IsZero() || t.EndsAt.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidTournament)
	case t.EndsAt.Before(t.StartsAt):
		return fmt.Errorf("%w: end date is before start date", ErrInvalidTournament)
	case t.RegistrationOpensAt.IsZero() || t.RegistrationClosesAt.IsZero():
		return fmt.Errorf("%w: registration window is required", ErrInvalidTournament)
	case !t.RegistrationOpensAt.Before(t.RegistrationClosesAt):
		return fmt.Errorf("%w: registration window must open before it closes", ErrInvalidTournament)
	case t.Capacity != nil && *t.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidTournament)
	case t.EntryFeeMinor < 0:
		return fmt.Errorf("%w: entry fee cannot be negative", ErrInvalidTournament)
	case t.AnnualRankingWeight <= 0:
		return fmt.Errorf("%w: annual ranking weight must be positive", ErrInvalidTournament)
	}
	return nil
}

type ListFilter struct {
	// Year matches tournaments starting in that calendar year (UTC).
	Year           *int
	OrganizationID *string
}
