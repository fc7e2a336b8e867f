package breaker

import (
	"context"
	"time"

	"github.com/vnykmshr/goguard/pkg/common/validation"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed passes calls through and counts failures.
	StateClosed State = iota
	// StateOpen rejects calls without invoking the operation.
	StateOpen
	// StateHalfOpen lets probe calls through to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Transition describes a state change. Administrative is true when the
// change came from Reset or ForceOpen rather than observed outcomes, so
// operator actions stay distinguishable in audit logs.
type Transition struct {
	From           State
	To             State
	Administrative bool
	At             time.Time
}

// Stats is a snapshot of breaker state and counters.
type Stats struct {
	State                State
	Failures             int
	ConsecutiveSuccesses int
	TotalCalls           uint64
	TotalSuccesses       uint64
	TotalFailures        uint64
	TotalRejected        uint64
	OpenedAt             time.Time
}

// Breaker shields an operation behind a three-state circuit.
type Breaker interface {
	// Execute runs op if the circuit admits the call. When the circuit is
	// open it returns ErrCircuitOpen without invoking op; otherwise op's
	// error is returned unchanged.
	Execute(ctx context.Context, op func(ctx context.Context) error) error

	// State returns the current state, applying the lazy open-to-half-open
	// transition if the recovery timeout has elapsed.
	State() State

	// Stats returns a snapshot of state and counters.
	Stats() Stats

	// Reset administratively returns the circuit to closed and zeroes
	// the counters.
	Reset()

	// ForceOpen administratively trips the circuit.
	ForceOpen()
}

// Clock abstracts time for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using real time.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Config holds configuration options for creating a Breaker.
type Config struct {
	// FailureThreshold is the consecutive-failure budget in the closed
	// state; reaching it trips the circuit.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before a probe
	// is admitted.
	RecoveryTimeout time.Duration

	// SuccessesToClose is how many consecutive half-open successes close
	// the circuit. Zero means the default of 3.
	SuccessesToClose int

	// OnStateChange, if set, is invoked after every transition. It runs
	// outside the breaker lock.
	OnStateChange func(Transition)

	// Clock is the time source. Nil means SystemClock.
	Clock Clock
}

const defaultSuccessesToClose = 3

// NewSafe creates a circuit breaker with the given threshold and recovery
// timeout, returning a ValidationError for invalid input.
func NewSafe(failureThreshold int, recoveryTimeout time.Duration) (Breaker, error) {
	return NewWithConfigSafe(Config{
		FailureThreshold: failureThreshold,
		RecoveryTimeout:  recoveryTimeout,
	})
}

// NewWithConfigSafe creates a circuit breaker from config, returning a
// ValidationError for invalid input.
func NewWithConfigSafe(config Config) (Breaker, error) {
	if err := validation.ValidatePositive("breaker", "failureThreshold", config.FailureThreshold); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration("breaker", "recoveryTimeout", config.RecoveryTimeout); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("breaker", "successesToClose", float64(config.SuccessesToClose)); err != nil {
		return nil, err
	}

	successesToClose := config.SuccessesToClose
	if successesToClose == 0 {
		successesToClose = defaultSuccessesToClose
	}

	clock := config.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	return &circuitBreaker{
		failureThreshold: config.FailureThreshold,
		recoveryTimeout:  config.RecoveryTimeout,
		successesToClose: successesToClose,
		onStateChange:    config.OnStateChange,
		clock:            clock,
		state:            StateClosed,
	}, nil
}
