package resilience

import (
	"context"

	"github.com/vnykmshr/goguard/pkg/ratelimit/bucket"
)

func (m *manager) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	// Admission happens once, at the boundary. Retries below do not pay
	// for extra tokens.
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	guarded := op
	if m.retrier != nil {
		inner := guarded
		guarded = func(ctx context.Context) error {
			return m.retrier.Execute(ctx, inner)
		}
	}

	if m.breaker != nil {
		return m.breaker.Execute(ctx, guarded)
	}
	return guarded(ctx)
}

func (m *manager) Stats() Stats {
	var stats Stats

	if sp, ok := m.limiter.(interface{ Stats() bucket.Stats }); ok {
		s := sp.Stats()
		stats.RateLimit = &s
	}
	if m.breaker != nil {
		s := m.breaker.Stats()
		stats.Breaker = &s
	}
	if m.retrier != nil {
		c := m.retrier.Config()
		stats.Retry = &c
	}

	return stats
}

func (m *manager) ResetBreaker() {
	if m.breaker != nil {
		m.breaker.Reset()
	}
}

func (m *manager) ForceOpenBreaker() {
	if m.breaker != nil {
		m.breaker.ForceOpen()
	}
}
