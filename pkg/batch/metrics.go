package batch

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/goguard/pkg/metrics"
	"github.com/vnykmshr/goguard/pkg/resilience"
)

// MetricsExecutor wraps an Executor with Prometheus metrics collection.
type MetricsExecutor struct {
	executor Executor
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates an executor with metrics enabled on a dedicated
// registry.
func NewWithMetrics(mgr resilience.Manager, name string) (Executor, error) {
	return NewWithMetricsConfig(mgr, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithMetricsConfig creates an executor with custom metrics config.
func NewWithMetricsConfig(mgr resilience.Manager, name string, metricsConfig metrics.Config) (Executor, error) {
	base, err := NewSafe(mgr)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return base, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	return &MetricsExecutor{
		executor: base,
		name:     name,
		registry: registry,
		enabled:  true,
	}, nil
}

// Run executes the batch through the wrapped executor, recording per-item
// outcomes, run duration, and in-flight gauge.
func (me *MetricsExecutor) Run(ctx context.Context, items []any, op Operation, opts Options) ([]Result, error) {
	if !me.enabled {
		return me.executor.Run(ctx, items, op, opts)
	}

	me.registry.BatchInFlight.WithLabelValues(me.name).Add(float64(len(items)))

	instrumented := func(ctx context.Context, item any) (any, error) {
		itemStart := time.Now()
		value, err := op(ctx, item)
		me.registry.BatchItemDuration.WithLabelValues(me.name).Observe(time.Since(itemStart).Seconds())
		return value, err
	}

	results, err := me.executor.Run(ctx, items, instrumented, opts)

	me.registry.BatchInFlight.WithLabelValues(me.name).Sub(float64(len(items)))

	for _, r := range results {
		outcome := "success"
		if r.Err != nil {
			outcome = "failure"
		}
		me.registry.BatchItems.WithLabelValues(me.name, outcome).Inc()
	}

	return results, err
}

// EnableMetrics enables metrics collection.
func (me *MetricsExecutor) EnableMetrics(config metrics.Config) error {
	me.enabled = config.Enabled
	if config.Registry != nil {
		me.registry = metrics.NewRegistry(config.Registry)
	}
	return nil
}

// DisableMetrics disables metrics collection.
func (me *MetricsExecutor) DisableMetrics() {
	me.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (me *MetricsExecutor) MetricsEnabled() bool {
	return me.enabled
}
