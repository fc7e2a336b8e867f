package testutil

import (
	"context"
	"sync"
	"time"
)

// MockClock implements the Clock interface the rate limiters and breaker
// accept, with controllable time. It avoids real delays in tests.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// FlakyOperation is a mock operation that fails a configured number of
// times before succeeding. It records every invocation.
type FlakyOperation struct {
	mu        sync.Mutex
	failures  int
	err       error
	callCount int
}

// NewFlakyOperation creates an operation that returns err for the first
// failures calls and nil afterwards.
func NewFlakyOperation(failures int, err error) *FlakyOperation {
	return &FlakyOperation{failures: failures, err: err}
}

// Do implements the operation signature used across goguard guards.
func (f *FlakyOperation) Do(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.callCount++
	if f.callCount <= f.failures {
		return f.err
	}
	return nil
}

// Calls returns the number of times the operation was invoked.
func (f *FlakyOperation) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}
