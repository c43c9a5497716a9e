package result

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/scoring"
)

func intPtr(v int) *int { return &v }

var rankTable = scoring.NewTable([]scoring.Rule{
	{Position: 1, Points: 100},
	{Position: 2, Points: 80},
	{Position: 3, Points: 65},
})

func TestRank_ForTimeAscending(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	results := []Result{
		{AllocationID: "a1", TimeSeconds: intPtr(120), CreatedAt: base},
		{AllocationID: "a2", TimeSeconds: intPtr(90), CreatedAt: base.Add(time.Second)},
		{AllocationID: "a3", TimeSeconds: intPtr(150), CreatedAt: base.Add(2 * time.Second)},
	}

	got := Rank(heat.FormatForTime, results, rankTable)

	want := []struct {
		allocation string
		position   int
		points     int
	}{
		{"a2", 1, 100},
		{"a1", 2, 80},
		{"a3", 3, 65},
	}
	for i, w := range want {
		if got[i].AllocationID != w.allocation || *got[i].Position != w.position || got[i].Points != w.points {
			t.Fatalf("row %d: want %+v got allocation=%s position=%d points=%d", i, w, got[i].AllocationID, *got[i].Position, got[i].Points)
		}
	}
	if results[0].Position != nil {
		t.Fatalf("rank must not mutate its input")
	}
}

func TestRank_AMRAPTiePrefersEarliestSubmission(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	results := []Result{
		{AllocationID: "late", Reps: intPtr(50), CreatedAt: base.Add(time.Minute)},
		{AllocationID: "early", Reps: intPtr(50), CreatedAt: base},
		{AllocationID: "low", Reps: intPtr(42), CreatedAt: base},
	}

	got := Rank(heat.FormatAMRAP, results, rankTable)

	if got[0].AllocationID != "early" || got[1].AllocationID != "late" || got[2].AllocationID != "low" {
		t.Fatalf("unexpected order: %s %s %s", got[0].AllocationID, got[1].AllocationID, got[2].AllocationID)
	}
	if got[0].Points != 100 || got[1].Points != 80 {
		t.Fatalf("unexpected points: %d %d", got[0].Points, got[1].Points)
	}
}

func TestRank_DidNotFinishListedLastWithoutPoints(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	results := []Result{
		{AllocationID: "dnf", CreatedAt: base},
		{AllocationID: "finisher", TimeSeconds: intPtr(300), CreatedAt: base.Add(time.Second)},
	}

	got := Rank(heat.FormatForTime, results, rankTable)

	if got[0].AllocationID != "finisher" || *got[0].Position != 1 {
		t.Fatalf("expected finisher first, got %+v", got[0])
	}
	if got[1].Position != nil || got[1].Points != 0 {
		t.Fatalf("expected dnf without position and points, got position=%v points=%d", got[1].Position, got[1].Points)
	}
}

func TestRank_PositionsAreCompressedBeyondTable(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var results []Result
	for i := 0; i < 5; i++ {
		results = append(results, Result{
			AllocationID: string(rune('a' + i)),
			Reps:         intPtr(10 * (i + 1)),
			CreatedAt:    base,
		})
	}

	got := Rank(heat.FormatAMRAP, results, rankTable)
	for i, r := range got {
		if *r.Position != i+1 {
			t.Fatalf("expected compressed position %d, got %d", i+1, *r.Position)
		}
	}
	if got[3].Points != 0 || got[4].Points != 0 {
		t.Fatalf("positions beyond the table must score 0")
	}
}

func TestMeasurementValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  heat.Format
		m       Measurement
		wantErr error
	}{
		{name: "for time ok", format: heat.FormatForTime, m: Measurement{TimeSeconds: intPtr(60)}},
		{name: "for time dnf", format: heat.FormatForTime, m: Measurement{}},
		{name: "for time with reps", format: heat.FormatForTime, m: Measurement{Reps: intPtr(3)}, wantErr: ErrFormatMismatch},
		{name: "negative time", format: heat.FormatForTime, m: Measurement{TimeSeconds: intPtr(-1)}, wantErr: ErrInvalidMeasurement},
		{name: "amrap ok", format: heat.FormatAMRAP, m: Measurement{Reps: intPtr(0)}},
		{name: "amrap missing reps", format: heat.FormatAMRAP, m: Measurement{}, wantErr: ErrInvalidMeasurement},
		{name: "amrap with time", format: heat.FormatAMRAP, m: Measurement{TimeSeconds: intPtr(1), Reps: intPtr(2)}, wantErr: ErrFormatMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.m.Validate(tc.format)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
