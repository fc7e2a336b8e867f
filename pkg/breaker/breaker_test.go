package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vnykmshr/goguard/internal/testutil"
	gferrors "github.com/vnykmshr/goguard/pkg/common/errors"
)

var errBoom = errors.New("boom")

func failing(_ context.Context) error { return errBoom }
func succeeding(_ context.Context) error { return nil }

func newTestBreaker(t *testing.T, threshold int, recovery time.Duration, clock Clock) Breaker {
	t.Helper()
	cb, err := NewWithConfigSafe(Config{
		FailureThreshold: threshold,
		RecoveryTimeout:  recovery,
		Clock:            clock,
	})
	testutil.AssertNoError(t, err)
	return cb
}

func TestNewSafe(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		recovery  time.Duration
		wantErr   bool
	}{
		{"valid parameters", 5, 30 * time.Second, false},
		{"zero threshold", 0, 30 * time.Second, true},
		{"negative threshold", -1, 30 * time.Second, true},
		{"zero recovery", 5, 0, true},
		{"negative recovery", 5, -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := NewSafe(tt.threshold, tt.recovery)
			if tt.wantErr {
				testutil.AssertError(t, err)
				if !gferrors.IsValidationError(err) {
					t.Error("expected a ValidationError")
				}
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, cb.State(), StateClosed)
		})
	}
}

func TestOpensAtThreshold(t *testing.T) {
	clock := testutil.NewMockClock(time.Now())
	cb := newTestBreaker(t, 3, 30*time.Second, clock)
	ctx := context.Background()

	// Two failures stay under the threshold
	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, failing); err != errBoom {
			t.Fatalf("err = %v, want errBoom", err)
		}
		testutil.AssertEqual(t, cb.State(), StateClosed)
	}

	// The third trips the circuit
	if err := cb.Execute(ctx, failing); err != errBoom {
		t.Fatalf("err = %v, want errBoom", err)
	}
	testutil.AssertEqual(t, cb.State(), StateOpen)

	// Open circuit rejects without invoking the operation
	invoked := false
	err := cb.Execute(ctx, func(_ context.Context) error {
		invoked = true
		return nil
	})
	if !errors.Is(err, gferrors.ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if invoked {
		t.Error("operation must not run while the circuit is open")
	}
}

func TestErrorPassthrough(t *testing.T) {
	clock := testutil.NewMockClock(time.Now())
	cb := newTestBreaker(t, 5, time.Second, clock)

	if err := cb.Execute(context.Background(), failing); err != errBoom {
		t.Errorf("err = %v, want the operation's own error", err)
	}
}

func TestRecoveryToHalfOpen(t *testing.T) {
	clock := testutil.NewMockClock(time.Now())
	cb := newTestBreaker(t, 1, 10*time.Second, clock)
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	testutil.AssertEqual(t, cb.State(), StateOpen)

	// Just short of the recovery timeout the circuit stays open
	clock.Advance(9 * time.Second)
	testutil.AssertEqual(t, cb.State(), StateOpen)

	clock.Advance(time.Second)
	testutil.AssertEqual(t, cb.State(), StateHalfOpen)
}

func TestHalfOpenClosesAfterThreeSuccesses(t *testing.T) {
	clock := testutil.NewMockClock(time.Now())
	cb := newTestBreaker(t, 1, time.Second, clock)
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	clock.Advance(time.Second)
	testutil.AssertEqual(t, cb.State(), StateHalfOpen)

	// Two successes are not enough
	for i := 0; i < 2; i++ {
		testutil.AssertNoError(t, cb.Execute(ctx, succeeding))
		testutil.AssertEqual(t, cb.State(), StateHalfOpen)
	}

	testutil.AssertNoError(t, cb.Execute(ctx, succeeding))
	testutil.AssertEqual(t, cb.State(), StateClosed)
	testutil.AssertEqual(t, cb.Stats().Failures, 0)
}

func TestHalfOpenReopensOnProbeFailure(t *testing.T) {
	clock := testutil.NewMockClock(time.Now())
	cb := newTestBreaker(t, 1, time.Second, clock)
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	clock.Advance(time.Second)

	testutil.AssertNoError(t, cb.Execute(ctx, succeeding))
	testutil.AssertEqual(t, cb.State(), StateHalfOpen)

	// One failed probe re-trips regardless of prior probe successes
	_ = cb.Execute(ctx, failing)
	testutil.AssertEqual(t, cb.State(), StateOpen)

	// The recovery window restarts from the re-trip
	clock.Advance(time.Second)
	testutil.AssertEqual(t, cb.State(), StateHalfOpen)
	testutil.AssertEqual(t, cb.Stats().ConsecutiveSuccesses, 0)
}

func TestClosedSuccessDecaysFailures(t *testing.T) {
	clock := testutil.NewMockClock(time.Now())
	cb := newTestBreaker(t, 3, time.Second, clock)
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, failing)
	testutil.AssertEqual(t, cb.Stats().Failures, 2)

	// One success pays down one failure, not all of them
	testutil.AssertNoError(t, cb.Execute(ctx, succeeding))
	testutil.AssertEqual(t, cb.Stats().Failures, 1)

	testutil.AssertNoError(t, cb.Execute(ctx, succeeding))
	testutil.AssertNoError(t, cb.Execute(ctx, succeeding))
	testutil.AssertEqual(t, cb.Stats().Failures, 0)
}

func TestReset(t *testing.T) {
	clock := testutil.NewMockClock(time.Now())

	var transitions []Transition
	cb, err := NewWithConfigSafe(Config{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		Clock:            clock,
		OnStateChange:    func(tr Transition) { transitions = append(transitions, tr) },
	})
	testutil.AssertNoError(t, err)

	_ = cb.Execute(context.Background(), failing)
	testutil.AssertEqual(t, cb.State(), StateOpen)

	cb.Reset()
	testutil.AssertEqual(t, cb.State(), StateClosed)
	testutil.AssertEqual(t, cb.Stats().Failures, 0)

	last := transitions[len(transitions)-1]
	testutil.AssertEqual(t, last.To, StateClosed)
	testutil.AssertEqual(t, last.Administrative, true)
}

func TestForceOpen(t *testing.T) {
	clock := testutil.NewMockClock(time.Now())

	var transitions []Transition
	cb, err := NewWithConfigSafe(Config{
		FailureThreshold: 5,
		RecoveryTimeout:  time.Minute,
		Clock:            clock,
		OnStateChange:    func(tr Transition) { transitions = append(transitions, tr) },
	})
	testutil.AssertNoError(t, err)

	cb.ForceOpen()
	testutil.AssertEqual(t, cb.State(), StateOpen)

	err = cb.Execute(context.Background(), succeeding)
	if !errors.Is(err, gferrors.ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}

	last := transitions[len(transitions)-1]
	testutil.AssertEqual(t, last.To, StateOpen)
	testutil.AssertEqual(t, last.Administrative, true)

	// Forced-open circuits still recover through the normal timeout
	clock.Advance(time.Minute)
	testutil.AssertEqual(t, cb.State(), StateHalfOpen)
}

func TestObservedTransitionsNotAdministrative(t *testing.T) {
	clock := testutil.NewMockClock(time.Now())

	var transitions []Transition
	cb, err := NewWithConfigSafe(Config{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Second,
		Clock:            clock,
		OnStateChange:    func(tr Transition) { transitions = append(transitions, tr) },
	})
	testutil.AssertNoError(t, err)
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	clock.Advance(time.Second)
	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, succeeding)
	}

	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %d, want %d", len(transitions), len(want))
	}
	for i, tr := range transitions {
		testutil.AssertEqual(t, tr.To, want[i])
		testutil.AssertEqual(t, tr.Administrative, false)
	}
}

func TestStatsCounters(t *testing.T) {
	clock := testutil.NewMockClock(time.Now())
	cb := newTestBreaker(t, 2, time.Minute, clock)
	ctx := context.Background()

	_ = cb.Execute(ctx, succeeding)
	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, succeeding) // rejected: circuit open

	stats := cb.Stats()
	testutil.AssertEqual(t, stats.State, StateOpen)
	testutil.AssertEqual(t, stats.TotalCalls, uint64(3))
	testutil.AssertEqual(t, stats.TotalSuccesses, uint64(1))
	testutil.AssertEqual(t, stats.TotalFailures, uint64(2))
	testutil.AssertEqual(t, stats.TotalRejected, uint64(1))
}
