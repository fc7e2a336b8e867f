package janitor

import "context"

// LocalPruner is the maintenance surface of the in-memory window
// limiter.
type LocalPruner interface {
	Prune()
}

// RemotePruner is the maintenance surface of the distributed limiter.
type RemotePruner interface {
	Prune(ctx context.Context) error
}

// AddLocalPrune schedules periodic pruning of an in-memory window
// limiter's request log, so idle limiters shed aged-out entries without
// waiting for the next admission.
func AddLocalPrune(r Runner, name, spec string, p LocalPruner) error {
	return r.Add(name, spec, func(_ context.Context) error {
		p.Prune()
		return nil
	})
}

// AddRemotePrune schedules periodic pruning of a distributed limiter's
// shared window log.
func AddRemotePrune(r Runner, name, spec string, p RemotePruner) error {
	return r.Add(name, spec, p.Prune)
}
