// Package runner drives a migration through its planned steps, persisting
// progress after every step so an interrupted run can be resumed.
package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jorge-barreto/aiflow/internal/dispatch"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

// Runner executes the remaining steps of a migration.
type Runner struct {
	Migration  *state.Migration
	Env        *dispatch.Environment
	Dispatcher dispatch.Dispatcher
	// OnError decides whether to carry on after a failed step. A nil
	// OnError stops at the first failure.
	OnError func(ctx context.Context, step state.Step, err error) (bool, error)
	// ResumeCommand is printed when the run stops early.
	ResumeCommand string
	Now           func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) save() {
	if err := r.Migration.Save(r.Env.ProjectRoot); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save migration state: %v\n", err)
	}
}

// stop saves state, prints a resume hint and returns err.
func (r *Runner) stop(err error) error {
	r.save()
	if r.ResumeCommand != "" {
		ux.ResumeHint(r.ResumeCommand)
	}
	return err
}

func (r *Runner) index(step state.Step) int {
	for i, s := range r.Migration.PlannedSteps {
		if s.ID == step.ID {
			return i
		}
	}
	return 0
}

// Run executes every step not yet completed, in plan order.
func (r *Runner) Run(ctx context.Context) error {
	m := r.Migration
	m.Start(r.now())
	r.save()

	total := len(m.PlannedSteps)
	for _, step := range m.Remaining() {
		i := r.index(step)
		if ctx.Err() != nil {
			m.Pause(r.now())
			return r.stop(ctx.Err())
		}

		ux.StepHeader(i, total, step.Name, step.Priority)
		m.AddStart(step.ID, r.now())
		start := time.Now()
		res, err := r.Dispatcher.Dispatch(ctx, step, r.Env)
		m.AddEnd(step.ID, r.now())

		if ctx.Err() != nil {
			m.Pause(r.now())
			return r.stop(ctx.Err())
		}

		if err != nil {
			ux.StepFail(i, step.Name, err.Error())
			m.Fail(step, err, r.now())
			r.save()
			carryOn := false
			if r.OnError != nil {
				var askErr error
				carryOn, askErr = r.OnError(ctx, step, err)
				if askErr != nil {
					return r.stop(askErr)
				}
			}
			if !carryOn {
				return r.stop(fmt.Errorf("step %q failed: %w", step.ID, err))
			}
			m.Start(r.now())
			continue
		}

		if res != nil && res.BackupPath != "" {
			m.BackupPath = res.BackupPath
		}
		m.Complete(step, r.now())
		r.save()
		ux.StepComplete(i, time.Since(start))
	}

	if left := len(m.Remaining()); left > 0 {
		m.Status = state.StatusFailed
		return r.stop(fmt.Errorf("%d of %d steps did not complete", left, total))
	}
	r.save()
	ux.Success("all %d steps complete", total)
	return nil
}

// DryRunPrint prints the remaining plan without executing it.
func (r *Runner) DryRunPrint() {
	total := len(r.Migration.PlannedSteps)
	fmt.Printf("\n%sDry run: %d steps%s\n\n", ux.Bold, total, ux.Reset)
	for i, s := range r.Migration.PlannedSteps {
		mark := " "
		if r.Migration.IsDone(s.ID) {
			mark = ux.Green + "✓" + ux.Reset
		}
		fmt.Printf("  %s %s%d.%s %s%s%s", mark, ux.Cyan, i+1, ux.Reset, ux.Bold, s.Name, ux.Reset)
		if s.Priority != "" {
			fmt.Printf(" (%s)", s.Priority)
		}
		if s.Phase != "" {
			fmt.Printf(" [%s]", s.Phase)
		}
		fmt.Println()
		if files, err := dispatch.StepFiles(s); err == nil {
			for _, f := range files {
				fmt.Printf("       %s\n", f)
			}
		}
	}
	fmt.Println()
}
