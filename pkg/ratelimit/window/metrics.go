package window

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/goguard/pkg/metrics"
)

const limiterType = "sliding_window"

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a new sliding window limiter with metrics enabled
// on a dedicated registry.
func NewWithMetrics(maxRequests int, window time.Duration, name string) (Limiter, error) {
	return NewWithConfigAndMetrics(Config{
		MaxRequests: maxRequests,
		Window:      window,
		Clock:       SystemClock{},
	}, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a new sliding window limiter with custom
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
		ml.registry.RateLimitWindow.WithLabelValues(limiterType, ml.name).Set(float64(ml.limiter.Stats().Used))
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
		ml.registry.RateLimitWindow.WithLabelValues(limiterType, ml.name).Set(float64(ml.limiter.Stats().Used))
	}

	return err
}

// Stats returns a snapshot of the limiter state.
func (ml *MetricsLimiter) Stats() Stats {
	return ml.limiter.Stats()
}

// Prune drops log entries that have aged out of the window.
func (ml *MetricsLimiter) Prune() {
	ml.limiter.Prune()

	if ml.enabled {
		ml.registry.RateLimitWindow.WithLabelValues(limiterType, ml.name).Set(float64(ml.limiter.Stats().Used))
	}
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
