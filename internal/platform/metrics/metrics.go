// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gym_league"

var (
	// HTTPRequests counts HTTP requests by route pattern, method and status class.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// RegistrationOutcomes counts register attempts by outcome label.
	RegistrationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_attempts_total",
			Help:      "Registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	// AllocationOutcomes counts heat allocation attempts by outcome.
	AllocationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heat_allocation_attempts_total",
			Help:      "Heat allocation attempts by outcome",
		},
		[]string{"outcome"},
	)

	ResultsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_recorded_total",
			Help:      "Result writes by format and operation",
		},
		[]string{"format", "operation"},
	)

	RankingComputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranking_compute_duration_seconds",
			Help:      "Time spent computing a ranking view",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"view"},
	)

	RankingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_cache_lookups_total",
			Help:      "Ranking cache lookups by view and result (hit, miss)",
		},
		[]string{"view", "result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_published_total",
			Help:      "Domain events handed to the publisher by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// CircuitState is 0 closed, 1 half-open, 2 open.
	CircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per dependency",
		},
		[]string{"name"},
	)
)

// Outcome labels shared by the usecase layer.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeFull     = "full"
	OutcomeClosed   = "closed"
	OutcomeError    = "error"
	CacheHit        = "hit"
	CacheMiss       = "miss"
)
