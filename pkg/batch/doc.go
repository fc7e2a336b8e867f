// Package batch executes independent items concurrently while preserving
// input order in the results.
//
// Run partitions the input into consecutive slices of the configured
// concurrency, starts every item in a slice at once, and settles the
// whole slice before the next begins. Each result lands at its item's
// original index with either a value or that item's error; one failing
// or panicking item never aborts its siblings. Continuous mode instead
// keeps the concurrency budget saturated, starting the next item the
// moment a slot frees.
//
// An executor built over a resilience.Manager runs every item through
// the rate limiting, circuit breaking, and retry guards.
//
// Basic usage:
//
//	exec, err := batch.NewSafe(nil)
//	if err != nil {
//		return err
//	}
//
//	results, err := exec.Run(ctx, items, fetch, batch.Options{Concurrency: 4})
//	for _, r := range results {
//		if r.Err != nil {
//			log.Printf("item %d failed: %v", r.Index, r.Err)
//		}
//	}
package batch
