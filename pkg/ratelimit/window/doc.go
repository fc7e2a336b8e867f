// Package window implements a sliding window rate limiter.
//
// Admitted requests are recorded in a timestamped log. An event is allowed
// when the number of requests within the moving span [now-window, now] plus
// the requested count does not exceed the configured capacity. Wait sleeps
// until the oldest logged request ages out, then re-evaluates admission
// from scratch, so concurrent waiters never over-admit.
package window
