package janitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/goguard/pkg/common/errors"
	"github.com/vnykmshr/goguard/pkg/common/validation"
)

// Job is one maintenance task. The context carries the per-run timeout.
type Job func(ctx context.Context) error

// Runner owns periodic maintenance work with an explicit lifecycle.
// Nothing runs before Start, and Stop waits for in-flight jobs, so the
// background work is always accounted for rather than leaking from
// package init or constructors.
type Runner interface {
	// Add registers a named job on a cron spec. Descriptors such as
	// "@every 30s" and standard cron expressions are accepted.
	Add(name, spec string, job Job) error

	// Start begins running scheduled jobs.
	Start()

	// Stop halts scheduling and returns a context that is done once
	// in-flight jobs finish.
	Stop() context.Context

	// Jobs returns the registered job names.
	Jobs() []string
}

// Config holds configuration options for a Runner.
type Config struct {
	// OnError, if set, receives job failures and captured panics.
	OnError func(name string, err error)

	// Timeout bounds each job run. Zero means no bound.
	Timeout time.Duration
}

// runner implements Runner around robfig/cron.
type runner struct {
	cron   *cron.Cron
	config Config

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// NewSafe creates a runner with default configuration.
func NewSafe() (Runner, error) {
	return NewWithConfigSafe(Config{})
}

// NewWithConfigSafe creates a runner from config, returning a
// ValidationError for invalid input.
func NewWithConfigSafe(config Config) (Runner, error) {
	if config.Timeout < 0 {
		return nil, errors.NewValidationError("janitor", "timeout", config.Timeout, "timeout must not be negative").
			WithHint("use 0 to leave job runs unbounded")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	return &runner{
		cron:   cron.New(cron.WithParser(parser)),
		config: config,
		jobs:   make(map[string]cron.EntryID),
	}, nil
}

func (r *runner) Add(name, spec string, job Job) error {
	if err := validation.ValidateNotEmpty("janitor", "name", name); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("janitor", "spec", spec); err != nil {
		return err
	}
	if job == nil {
		return errors.NewValidationError("janitor", "job", nil, "job cannot be nil").
			WithHint("provide the maintenance function to run")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[name]; exists {
		return errors.NewValidationError("janitor", "name", name, "job name already registered").
			WithHint("job names must be unique per runner")
	}

	id, err := r.cron.AddFunc(spec, func() { r.run(name, job) })
	if err != nil {
		return errors.NewValidationError("janitor", "spec", spec, "invalid schedule spec").
			WithHint(`use a cron expression or a descriptor such as "@every 30s"`)
	}

	r.jobs[name] = id
	return nil
}

// run executes one job occurrence with timeout and panic containment.
func (r *runner) run(name string, job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			r.reportError(name, errors.NewOperationError("janitor", name, fmt.Errorf("panic: %v", rec)))
		}
	}()

	ctx := context.Background()
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	if err := job(ctx); err != nil {
		r.reportError(name, err)
	}
}

func (r *runner) reportError(name string, err error) {
	if r.config.OnError != nil {
		r.config.OnError(name, err)
	}
}

func (r *runner) Start() {
	r.cron.Start()
}

func (r *runner) Stop() context.Context {
	return r.cron.Stop()
}

func (r *runner) Jobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	return names
}
