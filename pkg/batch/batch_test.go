package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/goguard/internal/testutil"
	"github.com/vnykmshr/goguard/pkg/breaker"
	gferrors "github.com/vnykmshr/goguard/pkg/common/errors"
	"github.com/vnykmshr/goguard/pkg/resilience"
	"github.com/vnykmshr/goguard/pkg/retry"
)

var errItem = errors.New("item failed")

func newExecutor(t *testing.T) Executor {
	t.Helper()
	exec, err := NewSafe(nil)
	testutil.AssertNoError(t, err)
	return exec
}

func double(_ context.Context, item any) (any, error) {
	return item.(int) * 2, nil
}

func TestRunPreservesOrder(t *testing.T) {
	exec := newExecutor(t)

	items := []any{1, 2, 3, 4, 5}
	op := func(ctx context.Context, item any) (any, error) {
		n := item.(int)
		if n == 3 {
			return nil, errItem
		}
		// Let later items finish before earlier ones
		time.Sleep(time.Duration(6-n) * 5 * time.Millisecond)
		return n * 10, nil
	}

	results, err := exec.Run(context.Background(), items, op, Options{Concurrency: 2})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(results), 5)

	for i, r := range results {
		testutil.AssertEqual(t, r.Index, i)
		if i == 2 {
			if r.Err != errItem {
				t.Errorf("item 3: err = %v, want errItem", r.Err)
			}
			continue
		}
		testutil.AssertNoError(t, r.Err)
		testutil.AssertEqual(t, r.Value.(int), (i+1)*10)
	}
}

func TestRunPartialFailureDoesNotAbortSiblings(t *testing.T) {
	exec := newExecutor(t)

	var executed int32
	op := func(_ context.Context, item any) (any, error) {
		atomic.AddInt32(&executed, 1)
		if item.(int)%2 == 0 {
			return nil, errItem
		}
		return item, nil
	}

	items := make([]any, 10)
	for i := range items {
		items[i] = i
	}

	results, err := exec.Run(context.Background(), items, op, Options{Concurrency: 3})
	testutil.AssertNoError(t, err)

	// Every item ran despite half of them failing
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(10))

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
		}
	}
	testutil.AssertEqual(t, failures, 5)
}

func TestRunSliceBoundedConcurrency(t *testing.T) {
	exec := newExecutor(t)

	var active, maxActive int32
	op := func(_ context.Context, item any) (any, error) {
		cur := atomic.AddInt32(&active, 1)
		for {
			observed := atomic.LoadInt32(&maxActive)
			if cur <= observed || atomic.CompareAndSwapInt32(&maxActive, observed, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return item, nil
	}

	items := make([]any, 12)
	_, err := exec.Run(context.Background(), items, op, Options{Concurrency: 3})
	testutil.AssertNoError(t, err)

	if got := atomic.LoadInt32(&maxActive); got > 3 {
		t.Errorf("max concurrent = %d, want <= 3", got)
	}
}

func TestRunProgress(t *testing.T) {
	exec := newExecutor(t)

	var progress [][2]int
	opts := Options{
		Concurrency: 2,
		OnProgress:  func(completed, total int) { progress = append(progress, [2]int{completed, total}) },
	}

	items := []any{1, 2, 3, 4, 5}
	_, err := exec.Run(context.Background(), items, double, opts)
	testutil.AssertNoError(t, err)

	// One callback per settled slice: 2, 4, then 5 of 5
	want := [][2]int{{2, 5}, {4, 5}, {5, 5}}
	testutil.AssertEqual(t, len(progress), len(want))
	for i := range want {
		testutil.AssertEqual(t, progress[i], want[i])
	}
}

func TestRunContinuousProgressMonotonic(t *testing.T) {
	exec := newExecutor(t)

	var progress []int
	opts := Options{
		Concurrency: 3,
		Continuous:  true,
		OnProgress:  func(completed, _ int) { progress = append(progress, completed) },
	}

	items := make([]any, 9)
	for i := range items {
		items[i] = i
	}
	results, err := exec.Run(context.Background(), items, double, opts)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(results), 9)

	testutil.AssertEqual(t, len(progress), 9)
	for i := 1; i < len(progress); i++ {
		if progress[i] != progress[i-1]+1 {
			t.Fatalf("progress not monotonic: %v", progress)
		}
	}
	testutil.AssertEqual(t, progress[len(progress)-1], 9)
}

func TestRunPanicCapturedPerItem(t *testing.T) {
	exec := newExecutor(t)

	op := func(_ context.Context, item any) (any, error) {
		if item.(int) == 1 {
			panic("item exploded")
		}
		return item, nil
	}

	results, err := exec.Run(context.Background(), []any{0, 1, 2}, op, Options{Concurrency: 3})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, results[0].Err)
	testutil.AssertNoError(t, results[2].Err)

	panicErr := results[1].Err
	testutil.AssertError(t, panicErr)
	if !strings.Contains(panicErr.Error(), "item exploded") {
		t.Errorf("err = %v, want panic message in chain", panicErr)
	}

	var opErr *gferrors.OperationError
	if !errors.As(panicErr, &opErr) {
		t.Error("expected an OperationError carrying the stack")
	}
}

func TestRunEmptyInput(t *testing.T) {
	exec := newExecutor(t)

	called := false
	results, err := exec.Run(context.Background(), nil, double, Options{
		OnProgress: func(completed, total int) {
			called = true
			if completed != 0 || total != 0 {
				t.Errorf("progress = (%d, %d), want (0, 0)", completed, total)
			}
		},
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(results), 0)
	testutil.AssertEqual(t, called, true)
}

func TestRunNilOperation(t *testing.T) {
	exec := newExecutor(t)

	_, err := exec.Run(context.Background(), []any{1}, nil, Options{})
	testutil.AssertError(t, err)
	if !gferrors.IsValidationError(err) {
		t.Error("expected a ValidationError")
	}
}

func TestRunCanceledMidRun(t *testing.T) {
	exec := newExecutor(t)

	ctx, cancel := context.WithCancel(context.Background())

	op := func(_ context.Context, item any) (any, error) {
		if item.(int) == 1 {
			cancel()
		}
		return item, nil
	}

	items := make([]any, 8)
	for i := range items {
		items[i] = i
	}
	results, err := exec.Run(ctx, items, op, Options{Concurrency: 2})

	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	testutil.AssertEqual(t, len(results), 8)

	// The first slice settled; the unstarted tail carries ctx's error
	testutil.AssertNoError(t, results[0].Err)
	testutil.AssertNoError(t, results[1].Err)
	for i := 2; i < 8; i++ {
		if results[i].Err != context.Canceled {
			t.Errorf("item %d: err = %v, want context.Canceled", i, results[i].Err)
		}
	}
}

func TestRunGuardedItems(t *testing.T) {
	// Two retry attempts per item, so single-flake items succeed
	r, err := retry.NewWithConfigSafe(retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond})
	testutil.AssertNoError(t, err)
	mgr := resilience.NewFromComponents(nil, nil, r)

	exec, err := NewSafe(mgr)
	testutil.AssertNoError(t, err)

	var attempts int32
	op := func(_ context.Context, item any) (any, error) {
		if atomic.AddInt32(&attempts, 1)%2 == 1 {
			return nil, fmt.Errorf("first try of %v", item)
		}
		return item, nil
	}

	results, err := exec.Run(context.Background(), []any{"a", "b", "c"}, op, Options{Concurrency: 1})
	testutil.AssertNoError(t, err)
	for _, res := range results {
		testutil.AssertNoError(t, res.Err)
	}
	// Each item flaked once then recovered
	testutil.AssertEqual(t, atomic.LoadInt32(&attempts), int32(6))
}

func TestRunGuardedOpenCircuit(t *testing.T) {
	cb, err := breaker.NewSafe(1, time.Minute)
	testutil.AssertNoError(t, err)
	cb.ForceOpen()

	exec, err := NewSafe(resilience.NewFromComponents(nil, cb, nil))
	testutil.AssertNoError(t, err)

	results, err := exec.Run(context.Background(), []any{1, 2}, double, Options{Concurrency: 2})
	testutil.AssertNoError(t, err)

	for _, res := range results {
		if !errors.Is(res.Err, gferrors.ErrCircuitOpen) {
			t.Errorf("item %d: err = %v, want ErrCircuitOpen", res.Index, res.Err)
		}
	}
}
