// Package bucket implements a token bucket rate limiter.
//
// A token bucket holds up to Burst tokens and refills continuously at Rate
// tokens per second. Allow consumes tokens without blocking; Wait suspends
// the caller until enough tokens accumulate, honoring context cancellation.
// The invariant 0 <= tokens <= burst holds at all times.
//
// Use NewWithConfigAndMetrics to wrap a limiter with Prometheus metrics.
package bucket
