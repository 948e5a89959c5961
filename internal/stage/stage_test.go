package stage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jorge-barreto/aiflow/internal/dispatch"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/templates"
)

var now = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func TestSteps_UpToTarget(t *testing.T) {
	got := Steps(phase.PoC)
	want := []string{"core-docs", "github-templates", "issue-templates", "scripts-basic", "ai-context"}
	if len(got) != len(want) {
		t.Fatalf("steps = %+v", got)
	}
	for i, s := range got {
		if s.ID != want[i] {
			t.Fatalf("step %d = %s, want %s", i, s.ID, want[i])
		}
	}
	if got[4].Phase != "poc" || got[0].Phase != "discovery" {
		t.Fatalf("phases not recorded: %+v", got)
	}
	if n := len(Steps(phase.Production)); n != 12 {
		t.Fatalf("production plan has %d steps, want 12", n)
	}
}

func TestSchedule(t *testing.T) {
	dir := t.TempDir()
	m, err := Schedule(dir, phase.Requirements, now)
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != state.StatusScheduled || m.TotalSteps != 3 {
		t.Fatalf("m = %+v", m)
	}
	loaded, err := state.Load(dir)
	if err != nil || loaded.ID != m.ID {
		t.Fatalf("not saved: %v", err)
	}
}

func TestSchedule_RefusesWhileInProgress(t *testing.T) {
	dir := t.TempDir()
	m, _ := Schedule(dir, phase.Discovery, now)
	m.Start(now)
	m.Save(dir)

	if _, err := Schedule(dir, phase.PoC, now); !errors.Is(err, ErrTransition) {
		t.Fatalf("err = %v", err)
	}
}

func TestResume_RunsToCompletion(t *testing.T) {
	dir := t.TempDir()
	if _, err := Schedule(dir, phase.Requirements, now); err != nil {
		t.Fatal(err)
	}
	m, err := Resume(context.Background(), dir, Options{
		Force: true,
		Vars:  templates.DefaultVars("demo", now),
		Out:   io.Discard,
		Now:   clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != state.StatusCompleted || m.CurrentPhase != "requirements" {
		t.Fatalf("m = %+v", m)
	}
	for _, f := range append(templates.CoreDocs, templates.PRTemplate) {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("%s not installed", f)
		}
	}

	if _, err := Resume(context.Background(), dir, Options{Now: clock}); !errors.Is(err, ErrTransition) {
		t.Fatalf("resuming a completed migration: %v", err)
	}
}

type failing struct{ id string }

func (f failing) Dispatch(ctx context.Context, step state.Step, env *dispatch.Environment) (*dispatch.Result, error) {
	if step.ID == f.id {
		return nil, errors.New("disk full")
	}
	return &dispatch.Result{}, nil
}

func TestResume_FailureThenRetry(t *testing.T) {
	dir := t.TempDir()
	Schedule(dir, phase.Requirements, now)

	m, err := Resume(context.Background(), dir, Options{Force: true, Dispatcher: failing{"github-templates"}, Now: clock})
	if err == nil {
		t.Fatal("expected failure")
	}
	if m.Status != state.StatusFailed || len(m.CompletedSteps) != 1 || len(m.Errors) != 1 {
		t.Fatalf("m = %+v", m)
	}

	m, err = Resume(context.Background(), dir, Options{Force: true, Dispatcher: failing{}, Now: clock})
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != state.StatusCompleted || len(m.CompletedSteps) != 3 {
		t.Fatalf("m = %+v", m)
	}
}

func TestPause(t *testing.T) {
	dir := t.TempDir()
	Schedule(dir, phase.Discovery, now)

	if _, err := Pause(dir, now); !errors.Is(err, ErrTransition) {
		t.Fatalf("pausing a scheduled migration: %v", err)
	}
	if m, _ := state.Load(dir); m.Status != state.StatusScheduled {
		t.Fatalf("status changed to %s", m.Status)
	}

	m, _ := state.Load(dir)
	m.Start(now)
	m.Save(dir)
	m, err := Pause(dir, now.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != state.StatusPaused || m.PausedAt == nil {
		t.Fatalf("m = %+v", m)
	}
	if !m.CanResume() {
		t.Fatal("paused migration should be resumable")
	}
}

func TestPause_NoMigration(t *testing.T) {
	if _, err := Pause(t.TempDir(), now); !errors.Is(err, state.ErrNoMigration) {
		t.Fatalf("err = %v", err)
	}
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	if had, err := Reset(dir); had || err != nil {
		t.Fatalf("empty dir: %v, %v", had, err)
	}
	Schedule(dir, phase.Discovery, now)
	if had, err := Reset(dir); !had || err != nil {
		t.Fatalf("reset: %v, %v", had, err)
	}
	if _, err := os.Stat(state.Path(dir)); !os.IsNotExist(err) {
		t.Fatal("state file still exists")
	}
}
