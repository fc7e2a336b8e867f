package bucket

import (
	"context"
	"math"
	"time"

	gcontext "github.com/vnykmshr/goguard/pkg/common/context"
	"github.com/vnykmshr/goguard/pkg/common/errors"
)

// Allow reports whether an event may happen now.
func (tb *tokenBucket) Allow() bool {
	return tb.AllowN(1)
}

// AllowN reports whether n events may happen now. Consumption is
// all-or-nothing: on false no tokens are deducted.
func (tb *tokenBucket) AllowN(n int) bool {
	if n <= 0 {
		return true
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.updateTokens(tb.clock.Now())

	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}
	return false
}

// Wait blocks until an event can happen.
func (tb *tokenBucket) Wait(ctx context.Context) error {
	return tb.WaitN(ctx, 1)
}

// WaitN blocks until n events can happen. After each computed delay the
// bucket is re-evaluated from scratch: concurrent waiters may have drained
// the refill in the meantime, so admission is never assumed.
func (tb *tokenBucket) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tb.mu.Lock()
		now := tb.clock.Now()
		tb.updateTokens(now)

		if n > tb.burst {
			tb.mu.Unlock()
			return errors.NewOperationError("bucket", "WaitN", errors.ErrRateLimited).
				WithContext("requested tokens exceed burst capacity")
		}

		if tb.tokens >= float64(n) {
			tb.tokens -= float64(n)
			tb.mu.Unlock()
			return nil
		}

		if tb.limit == 0 {
			// No refill: the deficit can never be satisfied.
			tb.mu.Unlock()
			return errors.NewOperationError("bucket", "WaitN", errors.ErrRateLimited).
				WithContext("zero refill rate")
		}

		needed := float64(n) - tb.tokens
		delay := time.Duration(float64(time.Second) * needed / float64(tb.limit))
		tb.mu.Unlock()

		if err := gcontext.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// SetLimit changes the rate limit.
func (tb *tokenBucket) SetLimit(newLimit Limit) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.updateTokens(tb.clock.Now())
	tb.limit = newLimit
}

// SetBurst changes the burst size.
func (tb *tokenBucket) SetBurst(newBurst int) error {
	if newBurst <= 0 {
		return errors.NewValidationError("bucket", "burst", newBurst, "must be positive")
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.updateTokens(tb.clock.Now())
	tb.burst = newBurst

	// Clamp tokens to the new capacity
	if tb.tokens > float64(newBurst) {
		tb.tokens = float64(newBurst)
	}
	return nil
}

// Limit returns the current rate limit.
func (tb *tokenBucket) Limit() Limit {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.limit
}

// Burst returns the current burst size.
func (tb *tokenBucket) Burst() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.burst
}

// Tokens returns the number of tokens currently available.
func (tb *tokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.updateTokens(tb.clock.Now())
	return tb.tokens
}

// Stats returns a snapshot of the limiter state.
func (tb *tokenBucket) Stats() Stats {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.updateTokens(tb.clock.Now())

	used := float64(tb.burst) - tb.tokens
	return Stats{
		Rate:        tb.limit,
		Burst:       tb.burst,
		Available:   tb.tokens,
		Used:        used,
		Utilization: used / float64(tb.burst) * 100,
	}
}

// updateTokens adds tokens based on the time elapsed since the last update.
// The caller must hold tb.mu.
func (tb *tokenBucket) updateTokens(now time.Time) {
	if tb.limit == Inf {
		tb.tokens = float64(tb.burst)
		tb.lastUpdate = now
		return
	}

	if tb.limit == 0 {
		// Zero rate means no refill
		tb.lastUpdate = now
		return
	}

	elapsed := now.Sub(tb.lastUpdate)
	if elapsed <= 0 {
		return
	}

	tokensToAdd := elapsed.Seconds() * float64(tb.limit)
	tb.tokens = math.Min(tb.tokens+tokensToAdd, float64(tb.burst))
	tb.lastUpdate = now
}
