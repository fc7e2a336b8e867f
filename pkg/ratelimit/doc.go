/*
Package ratelimit provides admission control primitives for goguard.

This package offers three main types of rate limiters:

  - bucket: Token bucket rate limiter allowing burst traffic
  - window: Sliding window rate limiter over a timestamped request log
  - concurrency: Concurrency limiter for bounding in-flight operations

Token bucket resets capacity continuously and permits controlled bursts:

	limiter, _ := bucket.NewSafe(10, 5) // 10 tokens/sec, burst of 5
	if limiter.Allow() {
		// Process request (allows immediate burst)
	}

Sliding window counts requests over a moving time span, avoiding the
boundary bursts of fixed windows:

	limiter, _ := window.NewSafe(100, time.Minute) // 100 requests per rolling minute
	if err := limiter.Wait(ctx); err == nil {
		// Admitted
	}

The distributed subpackage coordinates a sliding window across application
instances through Redis.

All limiters are safe for concurrent use and support context-aware
blocking admission (Wait/WaitN) alongside Stats inspection.
*/
package ratelimit
