package batch

import (
	"context"

	"github.com/vnykmshr/goguard/pkg/resilience"
)

// Operation processes a single item.
type Operation func(ctx context.Context, item any) (any, error)

// Result is the settled outcome of one item, at the item's original
// position in the input.
type Result struct {
	Index int
	Value any
	Err   error
}

// ProgressFunc observes completion. completed is non-decreasing and
// reaches total exactly when the run settles.
type ProgressFunc func(completed, total int)

// DefaultConcurrency is used when Options.Concurrency is zero.
const DefaultConcurrency = 4

// Options controls a single run.
type Options struct {
	// Concurrency is the number of items in flight at once. Zero means
	// DefaultConcurrency.
	Concurrency int

	// OnProgress, if set, is called as items settle. In slice mode it
	// fires once per settled slice; in continuous mode once per item.
	OnProgress ProgressFunc

	// Continuous starts the next item as soon as a slot frees instead of
	// settling the whole slice first.
	Continuous bool
}

// Executor runs batches of independent items concurrently, preserving
// input order in the results.
type Executor interface {
	// Run executes op over items and returns one Result per item, at the
	// item's input index. A failing or panicking item never aborts its
	// siblings. When ctx ends mid-run, already-started items settle and
	// the rest carry ctx's error; Run then returns the partial results
	// alongside ctx's error.
	Run(ctx context.Context, items []any, op Operation, opts Options) ([]Result, error)
}

// executor implements Executor. Each item runs through the optional
// resilience manager, so rate limiting, circuit breaking, and retry
// apply per item.
type executor struct {
	mgr resilience.Manager
}

// NewSafe creates an executor. mgr may be nil to run items unguarded.
func NewSafe(mgr resilience.Manager) (Executor, error) {
	return &executor{mgr: mgr}, nil
}
