package registration

import (
	"errors"
	"strings"
	"time"
)

type Category string

const (
	CategoryBeginner     Category = "beginner"
	CategoryIntermediate Category = "intermediate"
	CategoryAdvanced     Category = "advanced"
	CategoryElite        Category = "elite"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryBeginner, CategoryIntermediate, CategoryAdvanced, CategoryElite:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// MaxAgeBracketLength bounds the free-form age bracket code, e.g. "18-29" or "masters".
const MaxAgeBracketLength = 16

var (
	ErrAlreadyRegistered  = errors.New("athlete already registered for tournament")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrCapacityReached    = errors.New("tournament capacity reached")
	ErrStatusLocked       = errors.New("registration status is locked once points are assigned")
	ErrNotFound           = errors.New("registration not found")
)

type Registration struct {
	ID             string
	TournamentID   string
	AthleteID      string
	Category       Category
	AgeBracket     string
	Status         Status
	PaymentStatus  PaymentStatus
	FinalPlacement *int
	// Points mirrors the athlete's result points; nil until a result exists.
	Points       *int
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// CountsTowardsCapacity is true for every registration that is not rejected.
func (r Registration) CountsTowardsCapacity() bool {
	return r.Status != StatusRejected
}

// EligibleForHeat requires an approved, paid registration.
func (r Registration) EligibleForHeat() bool {
	return r.Status == StatusApproved && r.PaymentStatus == PaymentPaid
}

// StatusLocked is true once points have been assigned.
func (r Registration) StatusLocked() bool {
	return r.Points != nil
}

// InitialPaymentStatus is paid for free events and pending otherwise.
func InitialPaymentStatus(entryFeeMinor int64) PaymentStatus {
	if entryFeeMinor > 0 {
		return PaymentPending
	}
	return PaymentPaid
}

func NormalizeAgeBracket(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
