package breaker

import (
	"context"
	"sync"
	"time"

	gferrors "github.com/vnykmshr/goguard/pkg/common/errors"
)

// circuitBreaker implements Breaker with mutex-guarded counters. The
// open-to-half-open transition happens lazily at the next admission check
// rather than on a timer, so an idle breaker costs nothing.
type circuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	recoveryTimeout  time.Duration
	successesToClose int
	onStateChange    func(Transition)
	clock            Clock

	state     State
	failures  int
	successes int
	openedAt  time.Time

	totalCalls     uint64
	totalSuccesses uint64
	totalFailures  uint64
	totalRejected  uint64
}

func (cb *circuitBreaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	admitted, transition := cb.admit()
	cb.notify(transition)

	if !admitted {
		return gferrors.ErrCircuitOpen
	}

	err := op(ctx)

	cb.notify(cb.record(err))
	return err
}

func (cb *circuitBreaker) State() State {
	cb.mu.Lock()
	transition := cb.maybeHalfOpenLocked()
	state := cb.state
	cb.mu.Unlock()

	cb.notify(transition)
	return state
}

func (cb *circuitBreaker) Stats() Stats {
	cb.mu.Lock()
	transition := cb.maybeHalfOpenLocked()
	stats := Stats{
		State:                cb.state,
		Failures:             cb.failures,
		ConsecutiveSuccesses: cb.successes,
		TotalCalls:           cb.totalCalls,
		TotalSuccesses:       cb.totalSuccesses,
		TotalFailures:        cb.totalFailures,
		TotalRejected:        cb.totalRejected,
		OpenedAt:             cb.openedAt,
	}
	cb.mu.Unlock()

	cb.notify(transition)
	return stats
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	transition := cb.transitionLocked(StateClosed, true)
	cb.failures = 0
	cb.successes = 0
	cb.openedAt = time.Time{}
	cb.mu.Unlock()

	cb.notify(transition)
}

func (cb *circuitBreaker) ForceOpen() {
	cb.mu.Lock()
	transition := cb.transitionLocked(StateOpen, true)
	cb.openedAt = cb.clock.Now()
	cb.successes = 0
	cb.mu.Unlock()

	cb.notify(transition)
}

// admit decides whether a call may proceed, applying the lazy transition
// out of the open state first.
func (cb *circuitBreaker) admit() (bool, *Transition) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	transition := cb.maybeHalfOpenLocked()

	if cb.state == StateOpen {
		cb.totalRejected++
		return false, transition
	}

	cb.totalCalls++
	return true, transition
}

// record applies one observed outcome to the state machine.
func (cb *circuitBreaker) record(err error) *Transition {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.totalSuccesses++
		switch cb.state {
		case StateClosed:
			// Sustained health pays down the failure budget one at a time.
			if cb.failures > 0 {
				cb.failures--
			}
		case StateHalfOpen:
			cb.successes++
			if cb.successes >= cb.successesToClose {
				t := cb.transitionLocked(StateClosed, false)
				cb.failures = 0
				cb.successes = 0
				cb.openedAt = time.Time{}
				return t
			}
		}
		return nil
	}

	cb.totalFailures++
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			t := cb.transitionLocked(StateOpen, false)
			cb.openedAt = cb.clock.Now()
			return t
		}
	case StateHalfOpen:
		// A single failed probe re-trips the circuit.
		t := cb.transitionLocked(StateOpen, false)
		cb.openedAt = cb.clock.Now()
		cb.successes = 0
		return t
	}
	return nil
}

// maybeHalfOpenLocked moves open to half-open once the recovery timeout
// has elapsed. Must be called with cb.mu held.
func (cb *circuitBreaker) maybeHalfOpenLocked() *Transition {
	if cb.state != StateOpen {
		return nil
	}
	if cb.clock.Now().Sub(cb.openedAt) < cb.recoveryTimeout {
		return nil
	}

	t := cb.transitionLocked(StateHalfOpen, false)
	cb.successes = 0
	return t
}

// transitionLocked changes state and builds the Transition record.
// Must be called with cb.mu held. Returns nil when the state is unchanged
// and the change is not administrative.
func (cb *circuitBreaker) transitionLocked(to State, administrative bool) *Transition {
	from := cb.state
	if from == to && !administrative {
		return nil
	}
	cb.state = to
	return &Transition{
		From:           from,
		To:             to,
		Administrative: administrative,
		At:             cb.clock.Now(),
	}
}

// notify delivers a transition to the callback outside the lock.
func (cb *circuitBreaker) notify(t *Transition) {
	if t == nil || cb.onStateChange == nil {
		return
	}
	cb.onStateChange(*t)
}
