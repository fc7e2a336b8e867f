package resilience

import (
	"context"
	"time"

	"github.com/vnykmshr/goguard/pkg/breaker"
	"github.com/vnykmshr/goguard/pkg/ratelimit/bucket"
	"github.com/vnykmshr/goguard/pkg/retry"
)

// Limiter is the admission surface the manager needs from a rate limiter.
// The bucket, window, and distributed limiters all satisfy it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Manager runs operations through the full guard chain: rate limiter,
// then circuit breaker, then retry.
type Manager interface {
	// Execute admits the call through the rate limiter once, then runs
	// the whole retry sequence inside a single circuit breaker
	// invocation. The breaker therefore observes one outcome per Execute:
	// a retry sequence that ultimately succeeds counts as one success,
	// and one that exhausts its attempts counts as one failure. Callers
	// that want per-attempt breaker accounting can invert the nesting in
	// their own operation.
	Execute(ctx context.Context, op func(ctx context.Context) error) error

	// Stats aggregates the state of the configured guards.
	Stats() Stats

	// ResetBreaker administratively closes the circuit.
	ResetBreaker()

	// ForceOpenBreaker administratively trips the circuit.
	ForceOpenBreaker()
}

// Stats aggregates guard state. Fields are nil for guards the manager
// was built without.
type Stats struct {
	RateLimit *bucket.Stats
	Breaker   *breaker.Stats
	Retry     *retry.Config
}

// Config holds per-guard configuration. A nil section disables that
// guard; calls then pass that stage through untouched.
type Config struct {
	RateLimit *bucket.Config
	Breaker   *breaker.Config
	Retry     *retry.Config
}

// manager implements Manager.
type manager struct {
	limiter Limiter
	breaker breaker.Breaker
	retrier retry.Retrier
}

// NewWithConfigSafe builds a manager and its guards from config,
// returning the first guard's ValidationError on invalid input.
func NewWithConfigSafe(config Config) (Manager, error) {
	m := &manager{}

	if config.RateLimit != nil {
		l, err := bucket.NewWithConfigSafe(*config.RateLimit)
		if err != nil {
			return nil, err
		}
		m.limiter = l
	}
	if config.Breaker != nil {
		b, err := breaker.NewWithConfigSafe(*config.Breaker)
		if err != nil {
			return nil, err
		}
		m.breaker = b
	}
	if config.Retry != nil {
		r, err := retry.NewWithConfigSafe(*config.Retry)
		if err != nil {
			return nil, err
		}
		m.retrier = r
	}

	return m, nil
}

// NewFromComponents builds a manager around already-constructed guards.
// Any of them may be nil to skip that stage; this is how a sliding
// window or distributed limiter is composed in place of the default
// token bucket.
func NewFromComponents(l Limiter, b breaker.Breaker, r retry.Retrier) Manager {
	return &manager{limiter: l, breaker: b, retrier: r}
}

// Preset names a bundled guard configuration.
type Preset int

const (
	// Conservative trips early and retries little; for fragile or
	// expensive dependencies.
	Conservative Preset = iota
	// Balanced suits most request/response dependencies.
	Balanced
	// Aggressive tolerates more failures and retries harder; for
	// high-volume, cheap-to-retry work.
	Aggressive
)

// String returns the preset name.
func (p Preset) String() string {
	switch p {
	case Conservative:
		return "conservative"
	case Balanced:
		return "balanced"
	case Aggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// NewPreset builds a manager from a named preset.
func NewPreset(p Preset) (Manager, error) {
	return NewWithConfigSafe(presetConfig(p))
}

// presetConfig returns the guard bundle for a preset. Balanced is the
// fallback for unknown values.
func presetConfig(p Preset) Config {
	switch p {
	case Conservative:
		return Config{
			RateLimit: &bucket.Config{Rate: 5, Burst: 5},
			Breaker:   &breaker.Config{FailureThreshold: 3, RecoveryTimeout: 60 * time.Second},
			Retry: &retry.Config{
				MaxAttempts:  2,
				InitialDelay: 500 * time.Millisecond,
				MaxDelay:     5 * time.Second,
				Strategy:     retry.StrategyExponential,
			},
		}
	case Aggressive:
		return Config{
			RateLimit: &bucket.Config{Rate: 100, Burst: 100},
			Breaker:   &breaker.Config{FailureThreshold: 10, RecoveryTimeout: 10 * time.Second},
			Retry: &retry.Config{
				MaxAttempts:  4,
				InitialDelay: 50 * time.Millisecond,
				MaxDelay:     2 * time.Second,
				Strategy:     retry.StrategyExponential,
			},
		}
	default:
		return Config{
			RateLimit: &bucket.Config{Rate: 25, Burst: 25},
			Breaker:   &breaker.Config{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second},
			Retry: &retry.Config{
				MaxAttempts:  3,
				InitialDelay: 200 * time.Millisecond,
				MaxDelay:     3 * time.Second,
				Strategy:     retry.StrategyExponential,
			},
		}
	}
}
