package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jorge-barreto/aiflow/internal/dispatch"
	"github.com/jorge-barreto/aiflow/internal/state"
)

// mockDispatcher records calls and returns configurable results.
type mockDispatcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string]*dispatch.Result
	errors  map[string]error
	onCall  func(id string)
}

func newMock() *mockDispatcher {
	return &mockDispatcher{
		results: make(map[string]*dispatch.Result),
		errors:  make(map[string]error),
	}
}

func (m *mockDispatcher) Dispatch(ctx context.Context, step state.Step, env *dispatch.Environment) (*dispatch.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, step.ID)
	m.mu.Unlock()
	if m.onCall != nil {
		m.onCall(step.ID)
	}
	if err, ok := m.errors[step.ID]; ok {
		return nil, err
	}
	if res, ok := m.results[step.ID]; ok {
		return res, nil
	}
	return &dispatch.Result{}, nil
}

func (m *mockDispatcher) callNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := make([]string, len(m.calls))
	copy(c, m.calls)
	return c
}

var steps = []state.Step{
	{ID: "core-docs", Name: "Core documents", Phase: "discovery"},
	{ID: "github-templates", Name: "GitHub templates", Phase: "requirements"},
	{ID: "issue-templates", Name: "Issue templates", Phase: "requirements"},
}

func newTestRunner(t *testing.T, mock dispatch.Dispatcher) *Runner {
	t.Helper()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Runner{
		Migration:  state.New("requirements", steps, now),
		Env:        &dispatch.Environment{ProjectRoot: t.TempDir()},
		Dispatcher: mock,
		Now:        func() time.Time { return now },
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRun_AllStepsSucceed(t *testing.T) {
	mock := newMock()
	r := newTestRunner(t, mock)
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := mock.callNames(); !equal(got, []string{"core-docs", "github-templates", "issue-templates"}) {
		t.Fatalf("calls = %v", got)
	}
	loaded, err := state.Load(r.Env.ProjectRoot)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != state.StatusCompleted || loaded.CurrentPhase != "requirements" {
		t.Fatalf("status %s phase %s", loaded.Status, loaded.CurrentPhase)
	}
	if len(loaded.Timing) != 3 {
		t.Fatalf("timing entries = %d", len(loaded.Timing))
	}
}

func TestRun_SkipsCompletedSteps(t *testing.T) {
	mock := newMock()
	r := newTestRunner(t, mock)
	r.Migration.Complete(steps[0], time.Now())
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := mock.callNames(); !equal(got, []string{"github-templates", "issue-templates"}) {
		t.Fatalf("calls = %v", got)
	}
}

func TestRun_StopsOnFailure(t *testing.T) {
	mock := newMock()
	mock.errors["github-templates"] = fmt.Errorf("disk full")
	r := newTestRunner(t, mock)

	err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := mock.callNames(); !equal(got, []string{"core-docs", "github-templates"}) {
		t.Fatalf("calls = %v", got)
	}
	loaded, _ := state.Load(r.Env.ProjectRoot)
	if loaded.Status != state.StatusFailed || len(loaded.Errors) != 1 || loaded.Errors[0].Step != "github-templates" {
		t.Fatalf("state = %+v", loaded)
	}
	if !loaded.CanResume() {
		t.Fatal("failed migration should be resumable")
	}
}

func TestRun_ContinueAfterFailure(t *testing.T) {
	mock := newMock()
	mock.errors["github-templates"] = fmt.Errorf("boom")
	r := newTestRunner(t, mock)
	asked := 0
	r.OnError = func(ctx context.Context, step state.Step, err error) (bool, error) {
		asked++
		return true, nil
	}

	err := r.Run(context.Background())
	if err == nil {
		t.Fatal("incomplete run should still report an error")
	}
	if asked != 1 {
		t.Fatalf("OnError called %d times", asked)
	}
	if got := mock.callNames(); len(got) != 3 {
		t.Fatalf("calls = %v", got)
	}
	if r.Migration.Status != state.StatusFailed || len(r.Migration.CompletedSteps) != 2 {
		t.Fatalf("migration = %+v", r.Migration)
	}
}

func TestRun_ResumeAfterFailure(t *testing.T) {
	mock := newMock()
	mock.errors["issue-templates"] = fmt.Errorf("flaky")
	r := newTestRunner(t, mock)
	r.Run(context.Background())

	delete(mock.errors, "issue-templates")
	loaded, err := state.Load(r.Env.ProjectRoot)
	if err != nil {
		t.Fatal(err)
	}
	r2 := &Runner{Migration: loaded, Env: r.Env, Dispatcher: mock}
	if err := r2.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if loaded.Status != state.StatusCompleted {
		t.Fatalf("status = %s", loaded.Status)
	}
	if got := mock.callNames(); !equal(got, []string{"core-docs", "github-templates", "issue-templates", "issue-templates"}) {
		t.Fatalf("calls = %v", got)
	}
}

func TestRun_CancelPauses(t *testing.T) {
	mock := newMock()
	ctx, cancel := context.WithCancel(context.Background())
	mock.onCall = func(id string) {
		if id == "core-docs" {
			cancel()
		}
	}
	r := newTestRunner(t, mock)
	if err := r.Run(ctx); err != context.Canceled {
		t.Fatalf("err = %v", err)
	}
	loaded, _ := state.Load(r.Env.ProjectRoot)
	if loaded.Status != state.StatusPaused || loaded.PausedAt == nil {
		t.Fatalf("state = %+v", loaded)
	}
	if len(loaded.CompletedSteps) != 0 {
		t.Fatal("interrupted step should not be recorded as complete")
	}
}

func TestRun_RecordsBackupPath(t *testing.T) {
	mock := newMock()
	mock.results["core-docs"] = &dispatch.Result{BackupPath: "/tmp/.backup-1"}
	r := newTestRunner(t, mock)
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.Migration.BackupPath != "/tmp/.backup-1" {
		t.Fatalf("BackupPath = %q", r.Migration.BackupPath)
	}
}
