// Package resilience composes the rate limiting, circuit breaking, and
// retry guards into a single execution surface.
//
// Manager.Execute runs an operation through the guards in a fixed order:
// the rate limiter admits the call once at the boundary, then the whole
// retry sequence executes inside one circuit breaker invocation. The
// breaker therefore counts a fully exhausted retry sequence as a single
// failure, which keeps trip timing a function of distinct units of work
// rather than individual attempts.
//
// Presets bundle tested guard configurations:
//
//	mgr, err := resilience.NewPreset(resilience.Balanced)
//	if err != nil {
//		return err
//	}
//
//	err = mgr.Execute(ctx, func(ctx context.Context) error {
//		return client.Fetch(ctx)
//	})
//
// Custom compositions inject prebuilt guards, including the sliding
// window or distributed limiters, via NewFromComponents.
package resilience
