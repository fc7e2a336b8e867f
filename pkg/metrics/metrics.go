// Package metrics provides Prometheus instrumentation for goguard components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for goguard components.
type Registry struct {
	// Rate Limiting Metrics
	RateLimitRequests *prometheus.CounterVec
	RateLimitAllowed  *prometheus.CounterVec
	RateLimitDenied   *prometheus.CounterVec
	RateLimitWaitTime *prometheus.HistogramVec
	RateLimitTokens   *prometheus.GaugeVec
	RateLimitWindow   *prometheus.GaugeVec

	// Circuit Breaker Metrics
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
	BreakerCalls       *prometheus.CounterVec
	BreakerRejected    *prometheus.CounterVec

	// Retry Metrics
	RetryAttempts  *prometheus.HistogramVec
	RetryExhausted *prometheus.CounterVec

	// Batch Execution Metrics
	BatchItems        *prometheus.CounterVec
	BatchItemDuration *prometheus.HistogramVec
	BatchInFlight     *prometheus.GaugeVec

	// Concurrency Metrics
	ConcurrencyActive  *prometheus.GaugeVec
	ConcurrencyWaiting *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by goguard components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Rate Limiting Metrics
		RateLimitRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goguard",
				Subsystem: "ratelimit",
				Name:      "requests_total",
				Help:      "Total number of rate limit requests",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goguard",
				Subsystem: "ratelimit",
				Name:      "allowed_total",
				Help:      "Total number of allowed requests",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goguard",
				Subsystem: "ratelimit",
				Name:      "denied_total",
				Help:      "Total number of denied requests",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goguard",
				Subsystem: "ratelimit",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for rate limit admission",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitTokens: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goguard",
				Subsystem: "ratelimit",
				Name:      "tokens_available",
				Help:      "Number of tokens currently available",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitWindow: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goguard",
				Subsystem: "ratelimit",
				Name:      "window_used",
				Help:      "Requests currently counted in the sliding window",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		// Circuit Breaker Metrics
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goguard",
				Subsystem: "breaker",
				Name:      "state",
				Help:      "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"breaker_name"},
		),

		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goguard",
				Subsystem: "breaker",
				Name:      "transitions_total",
				Help:      "Total number of state transitions",
			},
			[]string{"breaker_name", "from", "to", "administrative"},
		),

		BreakerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goguard",
				Subsystem: "breaker",
				Name:      "calls_total",
				Help:      "Total number of calls observed by the breaker",
			},
			[]string{"breaker_name", "outcome"},
		),

		BreakerRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goguard",
				Subsystem: "breaker",
				Name:      "rejected_total",
				Help:      "Total number of calls rejected while the circuit was open",
			},
			[]string{"breaker_name"},
		),

		// Retry Metrics
		RetryAttempts: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goguard",
				Subsystem: "retry",
				Name:      "attempts",
				Help:      "Number of attempts used per retry execution",
				Buckets:   []float64{1, 2, 3, 4, 5, 8, 10},
			},
			[]string{"retry_name"},
		),

		RetryExhausted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goguard",
				Subsystem: "retry",
				Name:      "exhausted_total",
				Help:      "Total number of executions that consumed all attempts",
			},
			[]string{"retry_name"},
		),

		// Batch Execution Metrics
		BatchItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goguard",
				Subsystem: "batch",
				Name:      "items_total",
				Help:      "Total number of batch items processed",
			},
			[]string{"executor_name", "outcome"},
		),

		BatchItemDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goguard",
				Subsystem: "batch",
				Name:      "item_duration_seconds",
				Help:      "Time spent executing individual batch items",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"executor_name"},
		),

		BatchInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goguard",
				Subsystem: "batch",
				Name:      "in_flight",
				Help:      "Number of batch items currently in flight",
			},
			[]string{"executor_name"},
		),

		// Concurrency Metrics
		ConcurrencyActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goguard",
				Subsystem: "concurrency",
				Name:      "active",
				Help:      "Number of active concurrent operations",
			},
			[]string{"limiter_name"},
		),

		ConcurrencyWaiting: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goguard",
				Subsystem: "concurrency",
				Name:      "waiting",
				Help:      "Number of operations waiting for a concurrency slot",
			},
			[]string{"limiter_name"},
		),
	}
}
