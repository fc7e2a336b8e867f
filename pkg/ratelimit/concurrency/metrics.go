package concurrency

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/goguard/pkg/metrics"
)

const limiterType = "concurrency"

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a concurrency limiter with metrics enabled on a
// dedicated registry.
func NewWithMetrics(capacity int, name string) (Limiter, error) {
	return NewWithConfigAndMetrics(Config{
		Capacity:         capacity,
		InitialAvailable: -1,
	}, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a concurrency limiter with custom config
// and metrics.
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

	ml := &MetricsLimiter{
		limiter:  baseLimiter,
		name:     name,
		registry: registry,
		enabled:  true,
	}
	ml.updateState()

	return ml, nil
}

func (ml *MetricsLimiter) updateState() {
	if !ml.enabled {
		return
	}
	ml.registry.ConcurrencyActive.WithLabelValues(ml.name).Set(float64(ml.limiter.InUse()))
}

// Acquire attempts to take one permit without blocking.
func (ml *MetricsLimiter) Acquire() bool {
	return ml.AcquireN(1)
}

// AcquireN attempts to take n permits without blocking.
func (ml *MetricsLimiter) AcquireN(n int) bool {
	acquired := ml.limiter.AcquireN(n)
	ml.updateState()
	return acquired
}

// Wait blocks until one permit is available.
func (ml *MetricsLimiter) Wait(ctx context.Context) error {
	return ml.WaitN(ctx, 1)
}

// WaitN blocks until n permits are available.
func (ml *MetricsLimiter) WaitN(ctx context.Context, n int) error {
	start := time.Now()

	if ml.enabled {
		ml.registry.ConcurrencyWaiting.WithLabelValues(ml.name).Inc()
	}

	err := ml.limiter.WaitN(ctx, n)

	if ml.enabled {
		ml.registry.ConcurrencyWaiting.WithLabelValues(ml.name).Dec()
		ml.registry.RateLimitWaitTime.WithLabelValues(limiterType, ml.name).Observe(time.Since(start).Seconds())
		ml.updateState()
	}

	return err
}

// Release returns one permit.
func (ml *MetricsLimiter) Release() {
	ml.ReleaseN(1)
}

// ReleaseN returns n permits.
func (ml *MetricsLimiter) ReleaseN(n int) {
	ml.limiter.ReleaseN(n)
	ml.updateState()
}

// SetCapacity changes the permit ceiling.
func (ml *MetricsLimiter) SetCapacity(capacity int) {
	ml.limiter.SetCapacity(capacity)
	ml.updateState()
}

// Capacity returns the permit ceiling.
func (ml *MetricsLimiter) Capacity() int {
	return ml.limiter.Capacity()
}

// Available returns the number of free permits.
func (ml *MetricsLimiter) Available() int {
	return ml.limiter.Available()
}

// InUse returns the number of permits currently held.
func (ml *MetricsLimiter) InUse() int {
	inUse := ml.limiter.InUse()
	if ml.enabled {
		ml.registry.ConcurrencyActive.WithLabelValues(ml.name).Set(float64(inUse))
	}
	return inUse
}

// EnableMetrics enables metrics collection.
func (ml *MetricsLimiter) EnableMetrics(config metrics.Config) error {
	ml.enabled = config.Enabled
	if config.Registry != nil {
		ml.registry = metrics.NewRegistry(config.Registry)
	}
	ml.updateState()
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
