package migrate

import (
	"context"
	"time"

	"github.com/jorge-barreto/aiflow/internal/dispatch"
	"github.com/jorge-barreto/aiflow/internal/prompt"
	"github.com/jorge-barreto/aiflow/internal/runner"
	"github.com/jorge-barreto/aiflow/internal/state"
)

// Options control plan execution.
type Options struct {
	Force      bool
	Prompter   *prompt.Prompter
	Vars       map[string]string
	Dispatcher dispatch.Dispatcher
	Now        func() time.Time
}

// Execute runs the plan, persisting progress in the migration state file.
// Without Force the user is asked whether to continue after a failed step;
// with Force the first failure aborts.
func Execute(ctx context.Context, a *Analysis, plan *Plan, opts Options) (*state.Migration, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := state.New(string(plan.Phase), plan.Steps, now())
	m.CurrentPhase = string(plan.Phase)

	d := opts.Dispatcher
	if d == nil {
		d = &dispatch.DefaultDispatcher{}
	}
	r := &runner.Runner{
		Migration: m,
		Env: &dispatch.Environment{
			ProjectRoot:  a.Root,
			Force:        opts.Force,
			Vars:         opts.Vars,
			Prompter:     opts.Prompter,
			BackupFiles:  a.Conflicts,
			ProjectPhase: plan.Phase,
			Now:          now,
		},
		Dispatcher:    d,
		ResumeCommand: "aiflow stage resume",
		Now:           now,
	}
	if !opts.Force && opts.Prompter != nil {
		r.OnError = func(ctx context.Context, step state.Step, err error) (bool, error) {
			return opts.Prompter.Confirm(ctx, "A step failed. Continue with the remaining steps?", false)
		}
	}
	return m, r.Run(ctx)
}
