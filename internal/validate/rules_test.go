package validate

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/jorge-barreto/aiflow/internal/config"
	"github.com/jorge-barreto/aiflow/internal/history"
)

func gitRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# app\n"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, args := range [][]string{
		{"init", "-q"},
		{"add", "-A"},
		{"-c", "user.name=t", "-c", "user.email=t@example.com", "commit", "-q", "-m", "init"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	return dir
}

func gitStatusDetail(t *testing.T, r *Report) Result {
	t.Helper()
	for _, d := range r.Details {
		if d.RuleID == "git-status" {
			return d
		}
	}
	t.Fatal("git-status rule not run")
	return Result{}
}

func TestRules_DirtyTreeIsCritical(t *testing.T) {
	dir := gitRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("wip\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r := Run(context.Background(), dir, Rules(), now)
	d := gitStatusDetail(t, r)
	if d.Passed || d.Level != LevelCritical {
		t.Fatalf("git-status = %+v", d)
	}
	if r.CriticalFailures() == 0 {
		t.Fatal("expected a critical failure")
	}
}

func TestCheckGitStatus_CleanAfterHistoryRecorded(t *testing.T) {
	dir := gitRepo(t)
	if r := checkGitStatus(context.Background(), dir); !r.Passed {
		t.Fatalf("fresh repo = %+v", r)
	}

	cfg := &config.Config{}
	cfg.History.Path = config.DefaultHistory
	err := history.With(cfg.HistoryPath(dir), func(s *history.Store) error {
		return s.RecordDetection(context.Background(), &history.Detection{Phase: "poc", Score: 0.6, Confidence: 0.8, Certainty: "high"})
	})
	if err != nil {
		t.Fatal(err)
	}

	if r := checkGitStatus(context.Background(), dir); !r.Passed {
		t.Fatalf("after recording history = %+v", r)
	}
}
