package window

import (
	"context"
	"time"

	gcontext "github.com/vnykmshr/goguard/pkg/common/context"
)

// Allow reports whether an event may happen now.
func (sw *slidingWindow) Allow() bool {
	return sw.AllowN(1)
}

// AllowN reports whether n events may happen now.
func (sw *slidingWindow) AllowN(n int) bool {
	if n <= 0 {
		return true
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.clock.Now()
	sw.pruneLocked(now)

	if sw.used+n > sw.maxRequests {
		return false
	}

	sw.appendLocked(now, n)
	return true
}

// Wait blocks until an event can happen.
func (sw *slidingWindow) Wait(ctx context.Context) error {
	return sw.WaitN(ctx, 1)
}

// WaitN blocks until n events can happen. After sleeping until the oldest
// log entry leaves the window it re-evaluates from scratch rather than
// assuming admission, because concurrent waiters may have consumed the
// freed capacity in the meantime.
func (sw *slidingWindow) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if n > sw.maxRequests {
		return errNeverAdmissible("WaitN")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sw.mu.Lock()
		now := sw.clock.Now()
		sw.pruneLocked(now)

		if sw.used+n <= sw.maxRequests {
			sw.appendLocked(now, n)
			sw.mu.Unlock()
			return nil
		}

		// Wait until the oldest entry exits the window, never negative.
		delay := sw.log[0].timestamp.Add(sw.window).Sub(now)
		sw.mu.Unlock()

		if delay < 0 {
			delay = 0
		}
		if err := gcontext.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// Stats returns a snapshot of the limiter state.
func (sw *slidingWindow) Stats() Stats {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.pruneLocked(sw.clock.Now())

	stats := Stats{
		MaxRequests: sw.maxRequests,
		Window:      sw.window,
		Used:        sw.used,
		Available:   sw.maxRequests - sw.used,
		Utilization: float64(sw.used) / float64(sw.maxRequests) * 100,
	}
	if len(sw.log) > 0 {
		stats.Oldest = sw.log[0].timestamp
	}
	return stats
}

// Prune drops log entries that have aged out of the window.
func (sw *slidingWindow) Prune() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.pruneLocked(sw.clock.Now())
}

// pruneLocked removes entries older than now-window. Caller holds sw.mu.
func (sw *slidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-sw.window)

	i := 0
	for i < len(sw.log) && !sw.log[i].timestamp.After(cutoff) {
		sw.used -= sw.log[i].count
		i++
	}
	if i > 0 {
		sw.log = append(sw.log[:0], sw.log[i:]...)
	}
}

// appendLocked records n admitted requests at time now. Caller holds sw.mu.
func (sw *slidingWindow) appendLocked(now time.Time, n int) {
	sw.log = append(sw.log, entry{timestamp: now, count: n})
	sw.used += n
}
