package window

import (
	"context"
	"sync"
	"time"

	"github.com/vnykmshr/goguard/pkg/common/errors"
	"github.com/vnykmshr/goguard/pkg/common/validation"
)

// Limiter admits events based on how many happened within a moving time
// span. Unlike a fixed window, capacity frees continuously as old requests
// age out of the span, avoiding bursts at window boundaries.
type Limiter interface {
	// Allow reports whether an event may happen now. It does not block.
	Allow() bool

	// AllowN reports whether n events may happen now. It does not block.
	AllowN(n int) bool

	// Wait blocks until an event can happen. It returns an error
	// if the context is canceled or the deadline is exceeded.
	Wait(ctx context.Context) error

	// WaitN blocks until n events can happen. It returns an error
	// if the context is canceled or the deadline is exceeded.
	WaitN(ctx context.Context, n int) error

	// Stats returns a snapshot of the limiter state. The only mutation it
	// performs is pruning expired log entries.
	Stats() Stats

	// Prune drops log entries that have aged out of the window. Admission
	// paths prune implicitly; Prune exists so a maintenance job can bound
	// the log's memory between requests.
	Prune()
}

// Stats is a read-only snapshot of a sliding window limiter.
type Stats struct {
	// MaxRequests is the admission capacity per window.
	MaxRequests int

	// Window is the moving time span requests are counted over.
	Window time.Duration

	// Used is the number of requests currently inside the window.
	Used int

	// Available is the remaining capacity (MaxRequests - Used).
	Available int

	// Utilization is the used fraction of capacity as a percentage.
	Utilization float64

	// Oldest is the timestamp of the oldest request still in the window.
	// Zero when the window is empty.
	Oldest time.Time
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
	// MaxRequests is the number of requests admitted per window.
	MaxRequests int

	// Window is the moving time span requests are counted over.
	Window time.Duration

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock
}

// entry records an admitted request batch in the log.
type entry struct {
	timestamp time.Time
	count     int
}

// slidingWindow implements the Limiter interface over a request log.
type slidingWindow struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	clock       Clock

	log  []entry
	used int // sum of counts in log, maintained incrementally
}

// NewSafe creates a new sliding window limiter, validating the configuration.
func NewSafe(maxRequests int, window time.Duration) (Limiter, error) {
	return NewWithConfigSafe(Config{
		MaxRequests: maxRequests,
		Window:      window,
		Clock:       SystemClock{},
	})
}

// NewWithConfigSafe creates a new sliding window limiter from a Config, validating it.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if err := validation.ValidatePositive("window", "maxRequests", config.MaxRequests); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration("window", "window", config.Window); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}

	return &slidingWindow{
		maxRequests: config.MaxRequests,
		window:      config.Window,
		clock:       config.Clock,
	}, nil
}

// errNeverAdmissible wraps ErrRateLimited for requests larger than the
// window capacity, which no amount of waiting can satisfy.
func errNeverAdmissible(op string) error {
	return errors.NewOperationError("window", op, errors.ErrRateLimited).
		WithContext("requested count exceeds window capacity")
}
