package retry

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/vnykmshr/goguard/pkg/common/errors"
	"github.com/vnykmshr/goguard/pkg/common/validation"
)

// Strategy selects how the delay grows between attempts.
type Strategy int

const (
	// StrategyFixed waits InitialDelay between every attempt.
	StrategyFixed Strategy = iota
	// StrategyLinear waits InitialDelay multiplied by the attempt number.
	StrategyLinear
	// StrategyExponential doubles the delay after each attempt.
	StrategyExponential
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyFixed:
		return "fixed"
	case StrategyLinear:
		return "linear"
	case StrategyExponential:
		return "exponential"
	default:
		return "unknown"
	}
}

// Retrier re-invokes a failing operation according to a backoff policy.
type Retrier interface {
	// Execute runs op up to MaxAttempts times. It returns nil on the first
	// success, the operation's own error when RetryIf classifies it as not
	// retryable, ctx.Err() when the context ends between attempts, and a
	// RetryError wrapping the final error once attempts are exhausted.
	Execute(ctx context.Context, op func(ctx context.Context) error) error

	// Config returns a copy of the retrier's configuration.
	Config() Config
}

// Config holds configuration options for creating a Retrier.
type Config struct {
	// MaxAttempts is the total number of invocations, first try included.
	// Must be at least 1.
	MaxAttempts int

	// InitialDelay is the base delay before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the per-wait delay after jitter. Zero means no cap.
	MaxDelay time.Duration

	// Strategy selects fixed, linear, or exponential growth.
	Strategy Strategy

	// RetryIf classifies errors; returning false stops retrying and the
	// error passes through unchanged. Nil retries every error.
	RetryIf func(error) bool

	// OnRetry, if set, is invoked before each wait with the attempt number
	// that just failed and its error.
	OnRetry func(attempt int, err error)
}

// retrier implements Retrier.
type retrier struct {
	config Config

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSafe creates a retrier with the given attempt budget and initial
// delay using exponential backoff, returning a ValidationError for
// invalid input.
func NewSafe(maxAttempts int, initialDelay time.Duration) (Retrier, error) {
	return NewWithConfigSafe(Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: initialDelay,
		Strategy:     StrategyExponential,
	})
}

// NewWithConfigSafe creates a retrier from config, returning a
// ValidationError for invalid input.
func NewWithConfigSafe(config Config) (Retrier, error) {
	if err := validation.ValidatePositive("retry", "maxAttempts", config.MaxAttempts); err != nil {
		return nil, err
	}
	if config.InitialDelay < 0 {
		return nil, errors.NewValidationError("retry", "initialDelay", config.InitialDelay, "delay must not be negative").
			WithHint("use 0 for immediate retries")
	}
	if config.MaxDelay < 0 {
		return nil, errors.NewValidationError("retry", "maxDelay", config.MaxDelay, "delay cap must not be negative").
			WithHint("use 0 to leave delays uncapped")
	}
	if config.Strategy < StrategyFixed || config.Strategy > StrategyExponential {
		return nil, errors.NewValidationError("retry", "strategy", config.Strategy, "unknown backoff strategy").
			WithHint("use StrategyFixed, StrategyLinear, or StrategyExponential")
	}

	return &retrier{
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}
