package breaker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	gferrors "github.com/vnykmshr/goguard/pkg/common/errors"
	"github.com/vnykmshr/goguard/pkg/metrics"
)

// MetricsBreaker wraps a Breaker with Prometheus metrics collection.
type MetricsBreaker struct {
	breaker  Breaker
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a circuit breaker with metrics enabled on a
// dedicated registry.
func NewWithMetrics(failureThreshold int, recoveryTimeout time.Duration, name string) (Breaker, error) {
	return NewWithConfigAndMetrics(Config{
		FailureThreshold: failureThreshold,
		RecoveryTimeout:  recoveryTimeout,
	}, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a circuit breaker with custom config and
// metrics. Transitions are recorded via the breaker's own state-change
// callback; a caller-supplied OnStateChange still fires afterwards.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Breaker, error) {
	if !metricsConfig.Enabled {
		return NewWithConfigSafe(config)
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	mb := &MetricsBreaker{
		name:     name,
		registry: registry,
		enabled:  true,
	}

	userCallback := config.OnStateChange
	config.OnStateChange = func(t Transition) {
		mb.recordTransition(t)
		if userCallback != nil {
			userCallback(t)
		}
	}

	base, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}
	mb.breaker = base
	mb.setStateGauge(StateClosed)

	return mb, nil
}

func (mb *MetricsBreaker) recordTransition(t Transition) {
	if !mb.enabled {
		return
	}

	administrative := "false"
	if t.Administrative {
		administrative = "true"
	}
	mb.registry.BreakerTransitions.WithLabelValues(mb.name, t.From.String(), t.To.String(), administrative).Inc()
	mb.setStateGauge(t.To)
}

func (mb *MetricsBreaker) setStateGauge(s State) {
	if !mb.enabled {
		return
	}
	mb.registry.BreakerState.WithLabelValues(mb.name).Set(float64(s))
}

// Execute runs op through the wrapped breaker, recording the outcome.
func (mb *MetricsBreaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	err := mb.breaker.Execute(ctx, op)

	if mb.enabled {
		switch {
		case err == nil:
			mb.registry.BreakerCalls.WithLabelValues(mb.name, "success").Inc()
		case err == gferrors.ErrCircuitOpen:
			mb.registry.BreakerRejected.WithLabelValues(mb.name).Inc()
		default:
			mb.registry.BreakerCalls.WithLabelValues(mb.name, "failure").Inc()
		}
	}

	return err
}

// State returns the current state.
func (mb *MetricsBreaker) State() State {
	return mb.breaker.State()
}

// Stats returns a snapshot of state and counters.
func (mb *MetricsBreaker) Stats() Stats {
	return mb.breaker.Stats()
}

// Reset administratively closes the circuit.
func (mb *MetricsBreaker) Reset() {
	mb.breaker.Reset()
}

// ForceOpen administratively trips the circuit.
func (mb *MetricsBreaker) ForceOpen() {
	mb.breaker.ForceOpen()
}

// EnableMetrics enables metrics collection.
func (mb *MetricsBreaker) EnableMetrics(config metrics.Config) error {
	mb.enabled = config.Enabled
	if config.Registry != nil {
		mb.registry = metrics.NewRegistry(config.Registry)
	}
	return nil
}

// DisableMetrics disables metrics collection.
func (mb *MetricsBreaker) DisableMetrics() {
	mb.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mb *MetricsBreaker) MetricsEnabled() bool {
	return mb.enabled
}
