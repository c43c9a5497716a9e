package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestBreaker(now *time.Time) *CircuitBreaker {
	b := NewCircuitBreaker("events", CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxReq:   1,
	})
	b.now = func() time.Time { return *now }
	return b
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	b := newTestBreaker(&now)

	var transitions []CircuitState
	b.OnStateChange(func(_ string, _, to CircuitState) {
		transitions = append(transitions, to)
	})

	errDown := errors.New("dependency down")
	failing := func(context.Context) error { return errDown }

	for i := 0; i < 2; i++ {
		if err := b.Execute(context.Background(), failing); !errors.Is(err, errDown) {
			t.Fatalf("attempt %d: expected dependency error, got %v", i, err)
		}
	}
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	called := false
	err := b.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected open breaker to short-circuit, err=%v called=%v", err, called)
	}

	now = now.Add(6 * time.Second)
	if err := b.Execute(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected half-open trial call to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful trial call, got %s", state)
	}

	want := []CircuitState{CircuitStateOpen, CircuitStateHalfOpen, CircuitStateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("unexpected transitions: %v", transitions)
		}
	}
}

func TestCircuitBreaker_CancelledCallIsNotAFailure(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	b := newTestBreaker(&now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		_ = b.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected breaker to stay closed on cancellation, got %s", state)
	}
}

func TestCircuitBreaker_DisabledAlwaysRuns(t *testing.T) {
	b := NewCircuitBreaker("events", CircuitBreakerConfig{Enabled: false, FailureThreshold: 1})
	errDown := errors.New("down")
	for i := 0; i < 3; i++ {
		if err := b.Execute(context.Background(), func(context.Context) error { return errDown }); !errors.Is(err, errDown) {
			t.Fatalf("expected pass-through error, got %v", err)
		}
	}
}

func TestCircuitBreakerConfig_WithDefaults(t *testing.T) {
	got := CircuitBreakerConfig{FailureThreshold: -1, OpenTimeout: 0, HalfOpenMaxReq: 3}.withDefaults()
	if got.Enabled {
		t.Fatalf("withDefaults must not enable a breaker")
	}
	if got.FailureThreshold != 5 || got.OpenTimeout != 15*time.Second {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	if got.HalfOpenMaxReq != 3 {
		t.Fatalf("explicit HalfOpenMaxReq overwritten: %d", got.HalfOpenMaxReq)
	}
	if def := DefaultCircuitBreakerConfig(); !def.Enabled || def.HalfOpenMaxReq != 2 {
		t.Fatalf("unexpected default config: %+v", def)
	}
}
