package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	gferrors "github.com/vnykmshr/goguard/pkg/common/errors"
	"github.com/vnykmshr/goguard/pkg/ratelimit/concurrency"
)

func (e *executor) Run(ctx context.Context, items []any, op Operation, opts Options) ([]Result, error) {
	if op == nil {
		return nil, gferrors.NewValidationError("batch", "op", nil, "operation cannot be nil").
			WithHint("provide the function to run per item")
	}
	if opts.Concurrency < 0 {
		return nil, gferrors.NewValidationError("batch", "concurrency", opts.Concurrency, "concurrency must not be negative").
			WithHint("use 0 for the default")
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = DefaultConcurrency
	}

	if len(items) == 0 {
		if opts.OnProgress != nil {
			opts.OnProgress(0, 0)
		}
		return []Result{}, nil
	}

	if opts.Continuous {
		return e.runContinuous(ctx, items, op, opts)
	}
	return e.runSlices(ctx, items, op, opts)
}

// runSlices partitions items into consecutive slices of opts.Concurrency,
// settling each slice completely before the next starts.
func (e *executor) runSlices(ctx context.Context, items []any, op Operation, opts Options) ([]Result, error) {
	total := len(items)
	results := make([]Result, total)

	for start := 0; start < total; start += opts.Concurrency {
		if err := ctx.Err(); err != nil {
			for i := start; i < total; i++ {
				results[i] = Result{Index: i, Err: err}
			}
			return results, err
		}

		end := start + opts.Concurrency
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				value, err := e.runItem(ctx, items[idx], op)
				results[idx] = Result{Index: idx, Value: value, Err: err}
			}(i)
		}
		wg.Wait()

		if opts.OnProgress != nil {
			opts.OnProgress(end, total)
		}
	}

	return results, nil
}

// runContinuous keeps opts.Concurrency items in flight, starting the
// next item as soon as a slot frees.
func (e *executor) runContinuous(ctx context.Context, items []any, op Operation, opts Options) ([]Result, error) {
	total := len(items)
	results := make([]Result, total)

	limiter, err := concurrency.NewSafe(opts.Concurrency)
	if err != nil {
		return nil, err
	}

	var (
		wg        sync.WaitGroup
		progressMu sync.Mutex
		completed  int
	)

	settle := func(idx int, value any, itemErr error) {
		results[idx] = Result{Index: idx, Value: value, Err: itemErr}
		if opts.OnProgress == nil {
			return
		}
		progressMu.Lock()
		completed++
		opts.OnProgress(completed, total)
		progressMu.Unlock()
	}

	var runErr error
	for i := range items {
		if err := limiter.Wait(ctx); err != nil {
			// Context ended; settle the unstarted tail without running it.
			for j := i; j < total; j++ {
				settle(j, nil, err)
			}
			runErr = err
			break
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer limiter.Release()
			value, err := e.runItem(ctx, items[idx], op)
			settle(idx, value, err)
		}(i)
	}
	wg.Wait()

	return results, runErr
}

// runItem executes one item through the optional guard chain, converting
// a panic into that item's error instead of crashing the run.
func (e *executor) runItem(ctx context.Context, item any, op Operation) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = gferrors.NewOperationError("batch", "item",
				fmt.Errorf("panic: %v", r)).
				WithContext(string(debug.Stack()))
		}
	}()

	if e.mgr == nil {
		return op(ctx, item)
	}

	execErr := e.mgr.Execute(ctx, func(ctx context.Context) error {
		value, err = op(ctx, item)
		return err
	})
	if execErr != nil {
		return nil, execErr
	}
	return value, nil
}
