package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/vnykmshr/goguard/pkg/common/errors"
)

// Limit represents the maximum frequency of events per unit time.
// A zero Limit allows no refill. Use Inf for unlimited rates.
type Limit float64

// Inf is the infinite rate limit; it allows all events.
var Inf = Limit(math.Inf(1))

// Every converts a minimum time interval between events to a Limit.
func Every(interval time.Duration) Limit {
	if interval <= 0 {
		return Inf
	}
	return Limit(time.Second) / Limit(interval)
}

// Limiter controls how frequently events are allowed to happen using a
// token bucket: a reservoir of tokens refilled continuously over time and
// capped at the burst capacity.
type Limiter interface {
	// Allow reports whether an event may happen now. It does not block.
	Allow() bool

	// AllowN reports whether n events may happen now. It does not block.
	// Either all n tokens are consumed or none are.
	AllowN(n int) bool

	// Wait blocks until an event can happen. It returns an error
	// if the context is canceled or the deadline is exceeded.
	Wait(ctx context.Context) error

	// WaitN blocks until n events can happen. It returns an error
	// if the context is canceled or the deadline is exceeded.
	WaitN(ctx context.Context, n int) error

	// SetLimit changes the rate limit. It preserves the current burst size.
	SetLimit(limit Limit)

	// SetBurst changes the burst size. It preserves the current rate limit.
	SetBurst(burst int) error

	// Limit returns the current rate limit.
	Limit() Limit

	// Burst returns the current burst size.
	Burst() int

	// Tokens returns the number of tokens currently available.
	Tokens() float64

	// Stats returns a snapshot of the limiter state. The only mutation it
	// performs is the time-based refill bookkeeping needed for accuracy.
	Stats() Stats
}

// Stats is a read-only snapshot of a token bucket limiter.
type Stats struct {
	// Rate is the configured refill rate in tokens per second.
	Rate Limit

	// Burst is the bucket capacity.
	Burst int

	// Available is the number of tokens currently available.
	Available float64

	// Used is the number of tokens currently consumed (Burst - Available).
	Used float64

	// Utilization is the used fraction of capacity as a percentage.
	Utilization float64
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate Limit

	// Burst is the maximum number of tokens that can be stored.
	Burst int

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock

	// InitialTokens is the number of tokens to start with.
	// If negative, starts with full capacity.
	InitialTokens int
}

// tokenBucket implements the Limiter interface.
type tokenBucket struct {
	mu         sync.Mutex
	limit      Limit
	burst      int
	tokens     float64
	lastUpdate time.Time
	clock      Clock
}

// NewSafe creates a new rate limiter, validating the configuration.
func NewSafe(rate Limit, burst int) (Limiter, error) {
	return NewWithConfigSafe(Config{
		Rate:          rate,
		Burst:         burst,
		Clock:         SystemClock{},
		InitialTokens: -1, // Start with full capacity
	})
}

// NewWithConfigSafe creates a new rate limiter from a Config, validating it.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if config.Rate < 0 {
		return nil, errors.NewValidationError("bucket", "rate", config.Rate, "rate cannot be negative").
			WithHint("use 0 for no refill or a positive value")
	}
	if config.Burst <= 0 {
		return nil, errors.NewValidationError("bucket", "burst", config.Burst, "burst must be positive").
			WithHint("burst determines how many tokens can be consumed instantly")
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}

	initialTokens := float64(config.InitialTokens)
	if config.InitialTokens < 0 || initialTokens > float64(config.Burst) {
		initialTokens = float64(config.Burst)
	}

	return &tokenBucket{
		limit:      config.Rate,
		burst:      config.Burst,
		tokens:     initialTokens,
		lastUpdate: config.Clock.Now(),
		clock:      config.Clock,
	}, nil
}
