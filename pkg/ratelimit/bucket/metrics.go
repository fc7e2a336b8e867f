package bucket

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/goguard/pkg/metrics"
)

const limiterType = "token_bucket"

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a new token bucket limiter with metrics enabled
// on a dedicated registry.
func NewWithMetrics(rate Limit, burst int, name string) (Limiter, error) {
	return NewWithConfigAndMetrics(Config{
		Rate:          rate,
		Burst:         burst,
		Clock:         SystemClock{},
		InitialTokens: -1,
	}, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a new token bucket limiter with custom
// config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Limiter, error) {
	baseLimiter, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return baseLimiter, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	return &MetricsLimiter{
		limiter:  baseLimiter,
		name:     name,
		registry: registry,
		enabled:  true,
	}, nil
}

// Allow reports whether an event may happen now.
func (ml *MetricsLimiter) Allow() bool {
	return ml.AllowN(1)
}

// AllowN reports whether n events may happen now.
func (ml *MetricsLimiter) AllowN(n int) bool {
	if ml.enabled {
		ml.registry.RateLimitRequests.WithLabelValues(limiterType, ml.name).Add(float64(n))
	}

	allowed := ml.limiter.AllowN(n)

	if ml.enabled {
		if allowed {
			ml.registry.RateLimitAllowed.WithLabelValues(limiterType, ml.name).Add(float64(n))
		} else {
			ml.registry.RateLimitDenied.WithLabelValues(limiterType, ml.name).Add(float64(n))
		}
		ml.registry.RateLimitTokens.WithLabelValues(limiterType, ml.name).Set(ml.limiter.Tokens())
	}

	return allowed
}

// Wait blocks until an event can happen.
func (ml *MetricsLimiter) Wait(ctx context.Context) error {
	return ml.WaitN(ctx, 1)
}

// WaitN blocks until n events can happen.
func (ml *MetricsLimiter) WaitN(ctx context.Context, n int) error {
	start := time.Now()

	if ml.enabled {
		ml.registry.RateLimitRequests.WithLabelValues(limiterType, ml.name).Add(float64(n))
	}

	err := ml.limiter.WaitN(ctx, n)

	if ml.enabled {
		ml.registry.RateLimitWaitTime.WithLabelValues(limiterType, ml.name).Observe(time.Since(start).Seconds())

		if err == nil {
			ml.registry.RateLimitAllowed.WithLabelValues(limiterType, ml.name).Add(float64(n))
		} else {
			ml.registry.RateLimitDenied.WithLabelValues(limiterType, ml.name).Add(float64(n))
		}
		ml.registry.RateLimitTokens.WithLabelValues(limiterType, ml.name).Set(ml.limiter.Tokens())
	}

	return err
}

// SetLimit changes the rate limit.
func (ml *MetricsLimiter) SetLimit(limit Limit) {
	ml.limiter.SetLimit(limit)
}

// SetBurst changes the burst size.
func (ml *MetricsLimiter) SetBurst(burst int) error {
	return ml.limiter.SetBurst(burst)
}

// Limit returns the current rate limit.
func (ml *MetricsLimiter) Limit() Limit {
	return ml.limiter.Limit()
}

// Burst returns the current burst size.
func (ml *MetricsLimiter) Burst() int {
	return ml.limiter.Burst()
}

// Tokens returns the number of tokens currently available.
func (ml *MetricsLimiter) Tokens() float64 {
	tokens := ml.limiter.Tokens()

	if ml.enabled {
		ml.registry.RateLimitTokens.WithLabelValues(limiterType, ml.name).Set(tokens)
	}

	return tokens
}

// Stats returns a snapshot of the limiter state.
func (ml *MetricsLimiter) Stats() Stats {
	return ml.limiter.Stats()
}

// EnableMetrics enables metrics collection.
func (ml *MetricsLimiter) EnableMetrics(config metrics.Config) error {
	ml.enabled = config.Enabled

	if config.Registry != nil {
		ml.registry = metrics.NewRegistry(config.Registry)
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (ml *MetricsLimiter) DisableMetrics() {
	ml.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ml *MetricsLimiter) MetricsEnabled() bool {
	return ml.enabled
}
