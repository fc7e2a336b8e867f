// Package retry re-invokes failing operations with configurable backoff.
//
// A Retrier runs an operation up to MaxAttempts times, waiting between
// attempts according to a fixed, linear, or exponential schedule. Each
// delay carries a small uniform jitter (up to 10% of the base delay) to
// break up synchronized retries, and MaxDelay caps the jittered total.
//
// Errors are classified structurally: the optional RetryIf predicate
// decides retryability (typically built on errors.Is against sentinel
// errors), and a non-retryable error passes through unchanged. When all
// attempts fail the caller receives a RetryError that unwraps to both
// the final attempt's error and errors.ErrRetryExhausted.
//
// Basic usage:
//
//	r, err := retry.NewWithConfigSafe(retry.Config{
//		MaxAttempts:  3,
//		InitialDelay: 100 * time.Millisecond,
//		Strategy:     retry.StrategyExponential,
//		RetryIf:      gferrors.IsRetryable,
//	})
//	if err != nil {
//		return err
//	}
//
//	err = r.Execute(ctx, func(ctx context.Context) error {
//		return fetch(ctx)
//	})
package retry
