package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vnykmshr/goguard/internal/testutil"
	gferrors "github.com/vnykmshr/goguard/pkg/common/errors"
)

var errFlaky = errors.New("flaky")

func TestNewWithConfigSafe(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{MaxAttempts: 3, InitialDelay: time.Millisecond}, false},
		{"single attempt", Config{MaxAttempts: 1}, false},
		{"zero attempts", Config{MaxAttempts: 0}, true},
		{"negative attempts", Config{MaxAttempts: -1}, true},
		{"negative delay", Config{MaxAttempts: 3, InitialDelay: -time.Second}, true},
		{"negative cap", Config{MaxAttempts: 3, MaxDelay: -time.Second}, true},
		{"bad strategy", Config{MaxAttempts: 3, Strategy: Strategy(99)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithConfigSafe(tt.config)
			if tt.wantErr {
				testutil.AssertError(t, err)
				if !gferrors.IsValidationError(err) {
					t.Error("expected a ValidationError")
				}
				return
			}
			testutil.AssertNoError(t, err)
		})
	}
}

func TestSucceedsFirstAttempt(t *testing.T) {
	r, err := NewSafe(3, time.Millisecond)
	testutil.AssertNoError(t, err)

	op := testutil.NewFlakyOperation(0, errFlaky)
	testutil.AssertNoError(t, r.Execute(context.Background(), op.Do))
	testutil.AssertEqual(t, op.Calls(), 1)
}

func TestRecoversWithinBudget(t *testing.T) {
	r, err := NewSafe(3, time.Millisecond)
	testutil.AssertNoError(t, err)

	// Fails twice, succeeds on the third and final attempt
	op := testutil.NewFlakyOperation(2, errFlaky)
	testutil.AssertNoError(t, r.Execute(context.Background(), op.Do))
	testutil.AssertEqual(t, op.Calls(), 3)
}

func TestExhaustion(t *testing.T) {
	r, err := NewSafe(3, time.Millisecond)
	testutil.AssertNoError(t, err)

	op := testutil.NewFlakyOperation(10, errFlaky)
	execErr := r.Execute(context.Background(), op.Do)

	// Exactly MaxAttempts invocations, no more
	testutil.AssertEqual(t, op.Calls(), 3)

	testutil.AssertError(t, execErr)
	if !errors.Is(execErr, gferrors.ErrRetryExhausted) {
		t.Errorf("err = %v, want ErrRetryExhausted in chain", execErr)
	}
	if !errors.Is(execErr, errFlaky) {
		t.Errorf("err = %v, want final attempt error in chain", execErr)
	}

	var re *gferrors.RetryError
	if !errors.As(execErr, &re) {
		t.Fatal("expected a RetryError")
	}
	testutil.AssertEqual(t, re.Attempts, 3)
}

func TestRetryIfStopsEarly(t *testing.T) {
	permanent := errors.New("permanent")

	r, err := NewWithConfigSafe(Config{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		RetryIf:      func(err error) bool { return !errors.Is(err, permanent) },
	})
	testutil.AssertNoError(t, err)

	calls := 0
	execErr := r.Execute(context.Background(), func(_ context.Context) error {
		calls++
		return permanent
	})

	testutil.AssertEqual(t, calls, 1)
	// Non-retryable errors pass through unwrapped
	if execErr != permanent {
		t.Errorf("err = %v, want the operation's own error", execErr)
	}
}

func TestContextCanceledBeforeAttempt(t *testing.T) {
	r, err := NewSafe(3, time.Millisecond)
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	execErr := r.Execute(ctx, func(_ context.Context) error {
		calls++
		return errFlaky
	})

	testutil.AssertEqual(t, calls, 0)
	if execErr != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", execErr)
	}
}

func TestContextCanceledDuringDelay(t *testing.T) {
	r, err := NewWithConfigSafe(Config{
		MaxAttempts:  3,
		InitialDelay: time.Minute,
		Strategy:     StrategyFixed,
	})
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	execErr := r.Execute(ctx, func(_ context.Context) error {
		calls++
		return errFlaky
	})

	testutil.AssertEqual(t, calls, 1)
	if execErr != context.DeadlineExceeded {
		t.Errorf("err = %v, want context.DeadlineExceeded", execErr)
	}
}

func TestOnRetryHook(t *testing.T) {
	var notified []int
	r, err := NewWithConfigSafe(Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		OnRetry:      func(attempt int, _ error) { notified = append(notified, attempt) },
	})
	testutil.AssertNoError(t, err)

	op := testutil.NewFlakyOperation(10, errFlaky)
	_ = r.Execute(context.Background(), op.Do)

	// Fires after each failed attempt except the last
	testutil.AssertEqual(t, len(notified), 2)
	testutil.AssertEqual(t, notified[0], 1)
	testutil.AssertEqual(t, notified[1], 2)
}

func TestDelayFor(t *testing.T) {
	base := 100 * time.Millisecond

	tests := []struct {
		name     string
		strategy Strategy
		attempt  int
		min      time.Duration
		max      time.Duration
	}{
		{"fixed first", StrategyFixed, 1, base, base + base/10},
		{"fixed third", StrategyFixed, 3, base, base + base/10},
		{"linear first", StrategyLinear, 1, base, base + base/10},
		{"linear third", StrategyLinear, 3, 3 * base, 3*base + 3*base/10},
		{"exponential first", StrategyExponential, 1, base, base + base/10},
		{"exponential fourth", StrategyExponential, 4, 8 * base, 8*base + 8*base/10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewWithConfigSafe(Config{
				MaxAttempts:  5,
				InitialDelay: base,
				Strategy:     tt.strategy,
			})
			testutil.AssertNoError(t, err)

			// Jitter is random; sample repeatedly and check the envelope
			impl := r.(*retrier)
			for i := 0; i < 50; i++ {
				d := impl.delayFor(tt.attempt)
				if d < tt.min || d >= tt.max+time.Nanosecond {
					t.Fatalf("delay = %v, want in [%v, %v]", d, tt.min, tt.max)
				}
			}
		})
	}
}

func TestMaxDelayCapsJitteredTotal(t *testing.T) {
	r, err := NewWithConfigSafe(Config{
		MaxAttempts:  10,
		InitialDelay: time.Second,
		MaxDelay:     2 * time.Second,
		Strategy:     StrategyExponential,
	})
	testutil.AssertNoError(t, err)

	impl := r.(*retrier)
	for attempt := 1; attempt < 10; attempt++ {
		if d := impl.delayFor(attempt); d > 2*time.Second {
			t.Fatalf("delay for attempt %d = %v, want <= cap", attempt, d)
		}
	}
}

func TestZeroDelayRetriesImmediately(t *testing.T) {
	r, err := NewWithConfigSafe(Config{MaxAttempts: 3})
	testutil.AssertNoError(t, err)

	start := time.Now()
	op := testutil.NewFlakyOperation(2, errFlaky)
	testutil.AssertNoError(t, r.Execute(context.Background(), op.Do))

	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("took %v, expected no sleeping with zero delay", elapsed)
	}
}
