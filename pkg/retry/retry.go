package retry

import (
	"context"
	"time"

	gcontext "github.com/vnykmshr/goguard/pkg/common/context"
	gferrors "github.com/vnykmshr/goguard/pkg/common/errors"
)

// jitterFraction bounds the random slack added to each delay: a uniform
// draw from [0, delay/10).
const jitterFraction = 10

func (r *retrier) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		// Cancellation between attempts surfaces as the context's error,
		// never disguised as an operation failure.
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if r.config.RetryIf != nil && !r.config.RetryIf(lastErr) {
			return lastErr
		}

		if attempt == r.config.MaxAttempts {
			break
		}

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, lastErr)
		}

		if err := gcontext.Sleep(ctx, r.delayFor(attempt)); err != nil {
			return err
		}
	}

	return gferrors.NewRetryError(r.config.MaxAttempts, lastErr)
}

func (r *retrier) Config() Config {
	return r.config
}

// delayFor computes the jittered wait after the given failed attempt
// (1-based). The cap applies to the jittered total.
func (r *retrier) delayFor(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Strategy {
	case StrategyFixed:
		delay = r.config.InitialDelay
	case StrategyLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)
	case StrategyExponential:
		if attempt > 62 {
			delay = maxDuration(r.config.MaxDelay)
		} else {
			delay = r.config.InitialDelay << (attempt - 1)
			if delay < r.config.InitialDelay {
				// Shift overflowed; pin to the cap (or the largest duration).
				delay = maxDuration(r.config.MaxDelay)
			}
		}
	}

	if jittered := delay + r.jitter(delay); jittered > delay {
		delay = jittered
	}

	if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	return delay
}

// jitter draws a uniform duration from [0, delay/jitterFraction).
func (r *retrier) jitter(delay time.Duration) time.Duration {
	span := int64(delay) / jitterFraction
	if span <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Duration(r.rng.Int63n(span))
}

func maxDuration(limit time.Duration) time.Duration {
	if limit > 0 {
		return limit
	}
	return time.Duration(1<<63 - 1)
}
