// Package concurrency provides a limiter that bounds the number of
// operations in flight, independent of their rate.
//
// Unlike the rate-based limiters in bucket and window, permits here are
// held for the duration of an operation and must be released when it
// completes. The batch executor uses this limiter to cap concurrent
// item execution in continuous mode.
//
// Basic usage:
//
//	limiter, err := concurrency.NewSafe(10)
//	if err != nil {
//		return err
//	}
//
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
//	defer limiter.Release()
//	// ... do bounded work ...
package concurrency
