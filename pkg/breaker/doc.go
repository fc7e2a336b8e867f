// Package breaker provides a three-state circuit breaker that sheds load
// from a failing dependency.
//
// The circuit starts closed and passes calls through while counting
// failures; each success in the closed state pays one failure back down.
// When failures reach the configured threshold the circuit opens and
// rejects calls with errors.ErrCircuitOpen without invoking the
// operation. After the recovery timeout the next admission check moves
// the circuit to half-open, where probe calls flow through: a configured
// run of consecutive successes (3 by default) closes the circuit, while
// a single failure re-opens it.
//
// Reset and ForceOpen bypass the state machine for operator control;
// transitions they cause carry Administrative=true in the OnStateChange
// callback.
//
// Basic usage:
//
//	cb, err := breaker.NewSafe(5, 30*time.Second)
//	if err != nil {
//		return err
//	}
//
//	err = cb.Execute(ctx, func(ctx context.Context) error {
//		return callDependency(ctx)
//	})
//	if errors.Is(err, gferrors.ErrCircuitOpen) {
//		// shed load, serve fallback
//	}
package breaker
