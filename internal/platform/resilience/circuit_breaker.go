package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker guards an outbound dependency. After FailureThreshold consecutive
// failures it rejects calls for OpenTimeout, then lets HalfOpenMaxReq trial calls through.
type CircuitBreaker struct {
	mu sync.Mutex

	name string
	cfg  CircuitBreakerConfig

	state     CircuitState
	failures  int
	openedAt  time.Time
	inFlight  int
	successes int

	onStateChange func(name string, from, to CircuitState)
	now           func() time.Time
}

func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg.withDefaults(),
		state: CircuitStateClosed,
		now:   time.Now,
	}
}

// OnStateChange registers a hook fired (under the breaker lock) on every transition.
func (b *CircuitBreaker) OnStateChange(fn func(name string, from, to CircuitState)) {
	b.mu.Lock()
	b.onStateChange = fn
	b.mu.Unlock()
}

func (b *CircuitBreaker) Name() string {
	return b.name
}

// Execute runs fn when the breaker admits the call and records its outcome.
// A disabled breaker always runs fn. Context cancellation is not counted as a failure.
func (b *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !b.cfg.Enabled {
		return fn(ctx)
	}
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn(ctx)
	switch {
	case err == nil:
		b.RecordSuccess()
	case ctx.Err() != nil:
		b.release()
	default:
		b.RecordFailure()
	}
	return err
}

func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.OpenTimeout {
			return ErrCircuitOpen
		}
		b.transition(CircuitStateHalfOpen)
	}

	if b.state == CircuitStateHalfOpen {
		if b.inFlight >= b.cfg.HalfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.inFlight++
	}

	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures = 0
	case CircuitStateHalfOpen:
		b.releaseLocked()
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxReq && b.inFlight == 0 {
			b.transition(CircuitStateClosed)
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		b.releaseLocked()
		b.transition(CircuitStateOpen)
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) release() {
	b.mu.Lock()
	b.releaseLocked()
	b.mu.Unlock()
}

func (b *CircuitBreaker) releaseLocked() {
	if b.state == CircuitStateHalfOpen && b.inFlight > 0 {
		b.inFlight--
	}
}

func (b *CircuitBreaker) transition(to CircuitState) {
	from := b.state
	b.state = to
	b.inFlight = 0
	b.successes = 0
	switch to {
	case CircuitStateOpen:
		b.openedAt = b.now()
	case CircuitStateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	}
	if from != to && b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}
