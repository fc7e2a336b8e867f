/*
Package goguard provides resilience building blocks for calling unreliable
remote dependencies: rate limiting, circuit breaking, retry with backoff,
and order-preserving concurrent batch execution.

Rate Limiting (pkg/ratelimit):
  - bucket: Token bucket rate limiter with burst capacity
  - window: Sliding window rate limiter over a request log
  - concurrency: Control concurrent operations
  - distributed: Multi-instance sliding window with Redis

Guards (pkg/breaker, pkg/retry, pkg/resilience):
  - breaker: Three-state circuit breaker with recovery probing
  - retry: Bounded retries with fixed, linear, or exponential backoff
  - resilience: Manager composing limiter, breaker, and retry presets

Batch Execution (pkg/batch):
  - batch: Run many guarded operations concurrently, results in input order

Maintenance (pkg/scheduling/janitor):
  - janitor: Owned background runner for periodic cleanup jobs

Example usage:

	import (
		"github.com/vnykmshr/goguard/pkg/batch"
		"github.com/vnykmshr/goguard/pkg/resilience"
	)

	mgr, _ := resilience.NewPreset(resilience.Balanced)
	exec, _ := batch.NewSafe(mgr)

	results, _ := exec.Run(ctx, items, fetch, batch.Options{Concurrency: 4})
*/
package goguard
