package result

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/scoring"
)

var (
	ErrFormatMismatch     = errors.New("measurement does not match heat format")
	ErrInvalidMeasurement = errors.New("invalid measurement")
	ErrNotFound           = errors.New("result not found")
)

// Result is the recorded performance of one allocation. Position and Points are
// derived by Rank and rewritten for the whole heat on every change.
type Result struct {
	ID             string
	AllocationID   string
	HeatID         string
	TournamentID   string
	RegistrationID string
	TimeSeconds    *int
	Reps           *int
	Position       *int
	Points         int
	Notes          string
	// CreatedAt is the first submission and survives updates; it breaks AMRAP ties.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DidNotFinish is a for-time result without a time.
func (r Result) DidNotFinish(format heat.Format) bool {
	return format == heat.FormatForTime && r.TimeSeconds == nil
}

type Measurement struct {
	TimeSeconds *int
	Reps        *int
}

// Validate checks the measurement against the heat format. For-time heats accept a
// missing time as a did-not-finish; AMRAP heats require reps.
func (m Measurement) Validate(format heat.Format) error {
	switch format {
	case heat.FormatForTime:
		if m.Reps != nil {
			return fmt.Errorf("%w: for-time heat takes time_seconds, not reps", ErrFormatMismatch)
		}
		if m.TimeSeconds != nil && *m.TimeSeconds < 0 {
			return fmt.Errorf("%w: time_seconds cannot be negative", ErrInvalidMeasurement)
		}
	case heat.FormatAMRAP:
		if m.TimeSeconds != nil {
			return fmt.Errorf("%w: amrap heat takes reps, not time_seconds", ErrFormatMismatch)
		}
		if m.Reps == nil {
			return fmt.Errorf("%w: reps is required for amrap heat", ErrInvalidMeasurement)
		}
		if *m.Reps < 0 {
			return fmt.Errorf("%w: reps cannot be negative", ErrInvalidMeasurement)
		}
	default:
		return fmt.Errorf("%w: unknown heat format %q", ErrFormatMismatch, format)
	}
	return nil
}

// Rank orders a heat's results and assigns compressed positions 1..n plus points.
//
// For-time heats sort by ascending time, AMRAP heats by descending reps. Equal
// measurements fall back to the earliest submission, then allocation id. A for-time
// result without a time is a did-not-finish: no position, no points, listed last.
func Rank(format heat.Format, results []Result, table scoring.Table) []Result {
	out := slices.Clone(results)
	slices.SortStableFunc(out, func(a, b Result) int {
		if c := compareMeasurement(format, a, b); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.AllocationID, b.AllocationID)
	})

	position := 0
	for i := range out {
		if out[i].DidNotFinish(format) {
			out[i].Position = nil
			out[i].Points = 0
			continue
		}
		position++
		p := position
		out[i].Position = &p
		out[i].Points = table.PointsFor(&p)
	}
	return out
}

func compareMeasurement(format heat.Format, a, b Result) int {
	if format == heat.FormatAMRAP {
		return cmp.Compare(deref(b.Reps), deref(a.Reps))
	}
	switch {
	case a.TimeSeconds == nil && b.TimeSeconds == nil:
		return 0
	case a.TimeSeconds == nil:
		return 1
	case b.TimeSeconds == nil:
		return -1
	}
	return cmp.Compare(*a.TimeSeconds, *b.TimeSeconds)
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
