// Package stage manages a staged migration: a checklist of template steps
// from discovery up to a target phase, persisted in the migration state
// file so it can be paused and resumed across invocations.
package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jorge-barreto/aiflow/internal/dispatch"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/prompt"
	"github.com/jorge-barreto/aiflow/internal/runner"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/templates"
)

// ErrTransition marks a request the current status does not allow. The
// state is left untouched.
var ErrTransition = errors.New("not allowed in the current state")

// ResumeCommand is printed when a run stops early.
const ResumeCommand = "aiflow stage resume"

// Steps returns the staged steps from discovery through target, in order.
func Steps(target phase.Phase) []state.Step {
	var out []state.Step
	for _, p := range phase.Upto(target) {
		for _, s := range templates.StageSteps(p) {
			out = append(out, state.Step{
				ID:       s.ID,
				Name:     s.Name,
				Priority: s.Priority,
				Phase:    string(p),
			})
		}
	}
	return out
}

// Schedule plans a migration to target and saves it as scheduled. An
// in-progress migration must be paused or reset first.
func Schedule(root string, target phase.Phase, now time.Time) (*state.Migration, error) {
	if cur, err := state.Load(root); err == nil && cur.Status == state.StatusInProgress {
		return nil, fmt.Errorf("a migration to %s is in progress: %w", cur.TargetPhase, ErrTransition)
	} else if err != nil && !errors.Is(err, state.ErrNoMigration) {
		return nil, err
	}
	m := state.New(string(target), Steps(target), now)
	if err := m.Save(root); err != nil {
		return nil, err
	}
	return m, nil
}

// Options control Resume.
type Options struct {
	Force      bool
	Prompter   *prompt.Prompter
	Vars       map[string]string
	Out        io.Writer
	Dispatcher dispatch.Dispatcher
	Now        func() time.Time
}

// Resume runs the remaining steps of a scheduled, paused or failed
// migration. The returned migration reflects the saved state even when an
// error is returned.
func Resume(ctx context.Context, root string, opts Options) (*state.Migration, error) {
	m, err := state.Load(root)
	if err != nil {
		return nil, err
	}
	if !m.CanResume() {
		return m, fmt.Errorf("cannot resume a %s migration: %w", m.Status, ErrTransition)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	d := opts.Dispatcher
	if d == nil {
		d = &dispatch.DefaultDispatcher{}
	}
	target, _ := phase.Parse(m.TargetPhase)
	r := &runner.Runner{
		Migration: m,
		Env: &dispatch.Environment{
			ProjectRoot:  root,
			Force:        opts.Force,
			Vars:         opts.Vars,
			Prompter:     opts.Prompter,
			Out:          opts.Out,
			ProjectPhase: target,
			BackupPath:   m.BackupPath,
			Now:          now,
		},
		Dispatcher:    d,
		ResumeCommand: ResumeCommand,
		Now:           now,
	}
	if !opts.Force && opts.Prompter != nil {
		r.OnError = func(ctx context.Context, step state.Step, err error) (bool, error) {
			return opts.Prompter.Confirm(ctx, "A step failed. Continue with the remaining steps?", false)
		}
	}
	return m, r.Run(ctx)
}

// Pause pauses an in-progress migration.
func Pause(root string, now time.Time) (*state.Migration, error) {
	m, err := state.Load(root)
	if err != nil {
		return nil, err
	}
	if err := m.Pause(now); err != nil {
		return m, fmt.Errorf("%v: %w", err, ErrTransition)
	}
	return m, m.Save(root)
}

// Reset removes the migration state. It reports whether there was any.
func Reset(root string) (bool, error) {
	if _, err := state.Load(root); errors.Is(err, state.ErrNoMigration) {
		return false, nil
	}
	return true, state.Remove(root)
}
