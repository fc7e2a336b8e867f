package distributed

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/goguard/pkg/common/errors"
	"github.com/vnykmshr/goguard/pkg/common/validation"
	"github.com/vnykmshr/goguard/pkg/ratelimit/window"
)

// Limiter is a sliding window rate limiter coordinated through Redis, so
// several process instances share one admission quota. Every method takes
// a context because admission is a network round trip here.
type Limiter interface {
	// Allow reports whether an event may happen now across all instances.
	Allow(ctx context.Context) bool

	// AllowN reports whether n events may happen now across all instances.
	AllowN(ctx context.Context, n int) bool

	// Wait blocks until an event can happen.
	Wait(ctx context.Context) error

	// WaitN blocks until n events can happen.
	WaitN(ctx context.Context, n int) error

	// SetMaxRequests changes the shared window capacity for all instances.
	SetMaxRequests(ctx context.Context, maxRequests int) error

	// Stats returns the shared limiter state.
	Stats(ctx context.Context) (*Stats, error)

	// Reset clears the shared state. Intended for tests.
	Reset(ctx context.Context) error

	// Close deregisters this instance.
	Close() error
}

// Stats holds the shared limiter state as seen by Redis.
type Stats struct {
	MaxRequests     int
	Window          time.Duration
	Used            int
	Available       int
	TotalRequests   int64
	AllowedRequests int64
	DeniedRequests  int64
	ActiveInstances []string
}

// Config holds configuration for the distributed limiter.
type Config struct {
	// Redis is the coordination backend.
	Redis redis.UniversalClient

	// Key is the Redis key prefix for this limiter.
	Key string

	// MaxRequests is the shared window capacity.
	MaxRequests int

	// Window is the sliding window span.
	Window time.Duration

	// InstanceID identifies this process in the instance registry.
	// Empty means a generated ID.
	InstanceID string

	// Fallback, if set, serves admission locally when Redis errors.
	Fallback window.Limiter

	// RedisTimeout bounds each Redis operation. Zero means 500ms.
	RedisTimeout time.Duration

	// PollInterval is the re-check cadence while WaitN blocks.
	// Zero means 100ms.
	PollInterval time.Duration

	// KeyTTL is how long idle keys live in Redis. Zero means 1 hour.
	KeyTTL time.Duration
}

// NewWithConfigSafe creates a distributed sliding window limiter,
// returning a ValidationError for invalid input. It registers the
// instance and writes the shared configuration to Redis.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if config.Redis == nil {
		return nil, errors.NewValidationError("distributed", "redis", nil, "redis client is required").
			WithHint("pass a connected redis.UniversalClient")
	}
	if err := validation.ValidateNotEmpty("distributed", "key", config.Key); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("distributed", "maxRequests", config.MaxRequests); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration("distributed", "window", config.Window); err != nil {
		return nil, err
	}

	if config.InstanceID == "" {
		config.InstanceID = generateInstanceID()
	}
	if config.RedisTimeout == 0 {
		config.RedisTimeout = 500 * time.Millisecond
	}
	if config.PollInterval == 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	if config.KeyTTL == 0 {
		config.KeyTTL = time.Hour
	}

	return newSlidingWindow(config)
}
