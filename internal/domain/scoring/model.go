package scoring

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidRule = errors.New("invalid scoring rule")

// Rule awards Points to the athlete finishing at Position within a heat.
type Rule struct {
	Position int
	Points   int
}

// ValidateRules rejects non-positive or repeated positions and negative points.
func ValidateRules(rules []Rule) error {
	seen := make(map[int]struct{}, len(rules))
	for _, r := range rules {
		if r.Position <= 0 {
			return fmt.Errorf("%w: position %d must be positive", ErrInvalidRule, r.Position)
		}
		if r.Points < 0 {
			return fmt.Errorf("%w: points for position %d cannot be negative", ErrInvalidRule, r.Position)
		}
		if _, dup := seen[r.Position]; dup {
			return fmt.Errorf("%w: position %d is configured twice", ErrInvalidRule, r.Position)
		}
		seen[r.Position] = struct{}{}
	}
	return nil
}

// Table is an immutable position to points lookup for one tournament.
type Table struct {
	points map[int]int
}

func NewTable(rules []Rule) Table {
	points := make(map[int]int, len(rules))
	for _, r := range rules {
		points[r.Position] = r.Points
	}
	return Table{points: points}
}

// PointsFor returns the configured points; unconfigured or nil positions score 0.
func (t Table) PointsFor(position *int) int {
	if position == nil {
		return 0
	}
	return t.points[*position]
}

func (t Table) Rules() []Rule {
	out := make([]Rule, 0, len(t.points))
	for pos, pts := range t.points {
		out = append(out, Rule{Position: pos, Points: pts})
	}
	slices.SortFunc(out, func(a, b Rule) int { return a.Position - b.Position })
	return out
}
