package personalrecord

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidRecord = errors.New("invalid personal record")

// Record is one logged lift. Load is in kilograms.
type Record struct {
	ID             string
	AthleteID      string
	OrganizationID *string
	Movement       string
	MovementKey    string
	Load           decimal.Decimal
	AchievedOn     time.Time
	CreatedAt      time.Time
}

func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.AthleteID) == "":
		return fmt.Errorf("%w: athlete is required", ErrInvalidRecord)
	case r.MovementKey == "":
		return fmt.Errorf("%w: movement is required", ErrInvalidRecord)
	case !r.Load.IsPositive():
		return fmt.Errorf("%w: load must be positive", ErrInvalidRecord)
	case r.AchievedOn.IsZero():
		return fmt.Errorf("%w: achieved date is required", ErrInvalidRecord)
	}
	return nil
}

// NormalizeMovement folds "  Back   Squat" and "back squat" to the same key.
func NormalizeMovement(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Scope narrows the movement ranking; a nil organization means every gym.
type Scope struct {
	OrganizationID *string
}
