package concurrency

import (
	"context"
	"sync"
)

// semaphore implements Limiter with a mutex-guarded permit count and an
// explicit waiter queue, so WaitN is FIFO-ish and cancellation never
// leaks permits.
type semaphore struct {
	mu       sync.Mutex
	capacity int
	free     int
	held     int
	waiters  []waiter
}

type waiter struct {
	n      int
	ready  chan struct{}
	cancel <-chan struct{}
}

func (s *semaphore) Acquire() bool {
	return s.AcquireN(1)
}

func (s *semaphore) AcquireN(n int) bool {
	if n <= 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.free < n {
		return false
	}
	s.free -= n
	s.held += n
	return true
}

func (s *semaphore) Wait(ctx context.Context) error {
	return s.WaitN(ctx, 1)
}

func (s *semaphore) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()

	if s.free >= n {
		s.free -= n
		s.held += n
		s.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	s.waiters = append(s.waiters, waiter{n: n, ready: ready, cancel: ctx.Done()})
	s.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		s.dropWaiter(ready)
		return ctx.Err()
	}
}

func (s *semaphore) Release() {
	s.ReleaseN(1)
}

func (s *semaphore) ReleaseN(n int) {
	if n <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held < n {
		panic("concurrency: released more permits than acquired")
	}

	s.free += n
	s.held -= n
	s.wakeLocked()
}

func (s *semaphore) SetCapacity(capacity int) {
	if capacity <= 0 {
		panic("concurrency: capacity must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delta := capacity - s.capacity
	s.capacity = capacity

	if delta > 0 {
		s.free += delta
		s.wakeLocked()
	} else if s.free+delta >= 0 {
		s.free += delta
	} else {
		// Over-committed; free permits recover as work completes.
		s.free = 0
	}
}

func (s *semaphore) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

func (s *semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.free
}

func (s *semaphore) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

// wakeLocked hands permits to as many queued waiters as the free count
// covers, skipping canceled ones. Must be called with s.mu held.
func (s *semaphore) wakeLocked() {
	var remaining []waiter

	for _, w := range s.waiters {
		select {
		case <-w.cancel:
			continue
		default:
		}

		if s.free >= w.n {
			s.free -= w.n
			s.held += w.n
			close(w.ready)
		} else {
			remaining = append(remaining, w)
		}
	}

	s.waiters = remaining
}

func (s *semaphore) dropWaiter(ready chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var remaining []waiter
	for _, w := range s.waiters {
		if w.ready != ready {
			remaining = append(remaining, w)
		}
	}
	s.waiters = remaining
}
