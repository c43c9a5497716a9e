package resilience

import "time"

// Defaults mirror the QSTASH_CIRCUIT_* settings in config.
const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 15 * time.Second
	defaultHalfOpenRequests = 2
)

// CircuitBreakerConfig tunes a CircuitBreaker. FailureThreshold counts consecutive
// failed calls, OpenTimeout is how long calls are refused once open, and
// HalfOpenMaxReq caps the trial calls admitted after that.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{Enabled: true}.withDefaults()
}

// withDefaults replaces unset or out-of-range thresholds. Enabled is left alone.
func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaultOpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = defaultHalfOpenRequests
	}
	return c
}
