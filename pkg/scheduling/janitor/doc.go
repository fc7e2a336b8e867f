// Package janitor runs periodic maintenance jobs with an explicit
// owner and lifecycle.
//
// A Runner schedules named jobs on cron specs (including "@every"
// descriptors), starts nothing until Start is called, and drains
// in-flight jobs on Stop. Job failures and panics are contained and
// reported through the configured error callback instead of crossing
// goroutine boundaries.
//
// Its main use here is keeping rate limiter windows tidy:
//
//	r, err := janitor.NewSafe()
//	if err != nil {
//		return err
//	}
//	if err := janitor.AddLocalPrune(r, "window-prune", "@every 30s", limiter); err != nil {
//		return err
//	}
//	r.Start()
//	defer func() { <-r.Stop().Done() }()
package janitor
