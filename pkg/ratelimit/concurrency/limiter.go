package concurrency

import (
	"context"

	"github.com/vnykmshr/goguard/pkg/common/validation"
)

// Limiter bounds the number of operations in flight at any moment. It is a
// semaphore with context support and state inspection, used by the batch
// executor to cap concurrent item execution.
type Limiter interface {
	// Acquire attempts to take one permit without blocking.
	Acquire() bool

	// AcquireN attempts to take n permits without blocking.
	// Either all n are taken or none.
	AcquireN(n int) bool

	// Wait blocks until one permit is available or ctx ends.
	Wait(ctx context.Context) error

	// WaitN blocks until n permits are available or ctx ends.
	WaitN(ctx context.Context, n int) error

	// Release returns one permit.
	// It panics if more permits are released than were acquired.
	Release()

	// ReleaseN returns n permits.
	// It panics if more permits are released than were acquired.
	ReleaseN(n int)

	// SetCapacity changes the permit ceiling. A reduction below current
	// usage takes effect as operations complete.
	SetCapacity(capacity int)

	// Capacity returns the permit ceiling.
	Capacity() int

	// Available returns the number of free permits.
	Available() int

	// InUse returns the number of permits currently held.
	InUse() int
}

// Config holds configuration options for a concurrency Limiter.
type Config struct {
	// Capacity is the maximum number of concurrent operations.
	Capacity int

	// InitialAvailable is the starting number of free permits.
	// Negative or above Capacity means Capacity.
	InitialAvailable int
}

// NewSafe creates a concurrency limiter with the given capacity,
// returning a ValidationError for invalid input.
func NewSafe(capacity int) (Limiter, error) {
	return NewWithConfigSafe(Config{
		Capacity:         capacity,
		InitialAvailable: -1,
	})
}

// NewWithConfigSafe creates a concurrency limiter from config,
// returning a ValidationError for invalid input.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if err := validation.ValidatePositive("concurrency", "capacity", config.Capacity); err != nil {
		return nil, err
	}

	free := config.InitialAvailable
	if free < 0 || free > config.Capacity {
		free = config.Capacity
	}

	return &semaphore{
		capacity: config.Capacity,
		free:     free,
		held:     config.Capacity - free,
	}, nil
}
