package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get heat: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to match")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatalf("expected unrelated error not to match")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: pqUniqueViolation, Constraint: "heat_allocations_heat_lane_key"})

	t.Run("any constraint", func(t *testing.T) {
		if !isUniqueViolation(err, "") {
			t.Fatalf("expected unique violation")
		}
	})
	t.Run("named constraint", func(t *testing.T) {
		if !isUniqueViolation(err, "heat_allocations_heat_lane_key") {
			t.Fatalf("expected lane constraint to match")
		}
		if isUniqueViolation(err, "heat_allocations_tournament_registration_key") {
			t.Fatalf("expected other constraint not to match")
		}
	})
	t.Run("other code", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "23503"}, "") {
			t.Fatalf("expected foreign key violation not to match")
		}
	})
}

func TestIsLockContention(t *testing.T) {
	for _, code := range []pq.ErrorCode{pqLockNotAvailable, pqDeadlockDetected, pqSerializationFailure} {
		if !isLockContention(&pq.Error{Code: code}) {
			t.Fatalf("expected code %s to be lock contention", code)
		}
	}
	if isLockContention(&pq.Error{Code: pqUniqueViolation}) {
		t.Fatalf("expected unique violation not to be lock contention")
	}
	if isLockContention(errors.New("timeout")) {
		t.Fatalf("expected plain error not to be lock contention")
	}
}

func TestWithCauseKeepsSentinel(t *testing.T) {
	driverErr := &pq.Error{Code: pqLockNotAvailable, Message: "canceling statement due to lock timeout"}
	err := withCause(heat.ErrHeatFull, driverErr, "heat=h1")

	if !errors.Is(err, heat.ErrHeatFull) {
		t.Fatalf("expected heat full sentinel, got %v", err)
	}
	if got := err.Error(); got != "heat is full: heat=h1" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestYearBounds(t *testing.T) {
	start, end := yearBounds(2026)
	if !start.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected bounds %s .. %s", start, end)
	}
}

func TestRegistrationContention(t *testing.T) {
	driverErr := &pq.Error{Code: pqLockNotAvailable}

	t.Run("bounded tournament is full", func(t *testing.T) {
		err := registrationContention(true, driverErr, "tournament=t1")
		if !errors.Is(err, registration.ErrCapacityReached) {
			t.Fatalf("expected capacity reached, got %v", err)
		}
	})
	t.Run("unbounded tournament is retryable", func(t *testing.T) {
		err := registrationContention(false, driverErr, "tournament=t1")
		if !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("expected dependency unavailable, got %v", err)
		}
		if errors.Is(err, registration.ErrCapacityReached) {
			t.Fatalf("unbounded tournament must not report capacity reached")
		}
	})
}
