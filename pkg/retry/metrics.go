package retry

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	gferrors "github.com/vnykmshr/goguard/pkg/common/errors"
	"github.com/vnykmshr/goguard/pkg/metrics"
)

// MetricsRetrier wraps a Retrier with Prometheus metrics collection.
type MetricsRetrier struct {
	retrier  Retrier
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a retrier with metrics enabled on a dedicated
// registry.
func NewWithMetrics(maxAttempts int, initialDelay time.Duration, name string) (Retrier, error) {
	return NewWithConfigAndMetrics(Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: initialDelay,
		Strategy:     StrategyExponential,
	}, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a retrier with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Retrier, error) {
	base, err := NewWithConfigSafe(config)
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

	return &MetricsRetrier{
		retrier:  base,
		name:     name,
		registry: registry,
		enabled:  true,
	}, nil
}

// Execute runs op through the wrapped retrier, recording the number of
// attempts consumed and exhaustion.
func (mr *MetricsRetrier) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	var attempts int
	err := mr.retrier.Execute(ctx, func(ctx context.Context) error {
		attempts++
		return op(ctx)
	})

	if mr.enabled {
		if attempts > 0 {
			mr.registry.RetryAttempts.WithLabelValues(mr.name).Observe(float64(attempts))
		}
		if errors.Is(err, gferrors.ErrRetryExhausted) {
			mr.registry.RetryExhausted.WithLabelValues(mr.name).Inc()
		}
	}

	return err
}

// Config returns a copy of the wrapped retrier's configuration.
func (mr *MetricsRetrier) Config() Config {
	return mr.retrier.Config()
}

// EnableMetrics enables metrics collection.
func (mr *MetricsRetrier) EnableMetrics(config metrics.Config) error {
	mr.enabled = config.Enabled
	if config.Registry != nil {
		mr.registry = metrics.NewRegistry(config.Registry)
	}
	return nil
}

// DisableMetrics disables metrics collection.
func (mr *MetricsRetrier) DisableMetrics() {
	mr.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mr *MetricsRetrier) MetricsEnabled() bool {
	return mr.enabled
}
