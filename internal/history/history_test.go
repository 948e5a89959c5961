package history

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), ".aiflow", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDetections_NewestFirst(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, p := range []string{"requirements", "poc", "implementation"} {
		d := &Detection{RunAt: base.Add(time.Duration(i) * time.Hour), Phase: p, Score: 0.5, Confidence: 0.7, Certainty: "medium"}
		if err := s.RecordDetection(ctx, d); err != nil {
			t.Fatal(err)
		}
		if d.ID == "" {
			t.Fatal("ID not assigned")
		}
	}

	got, err := s.Detections(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Phase != "implementation" || got[1].Phase != "poc" {
		t.Fatalf("got %+v", got)
	}
	if !got[0].RunAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("RunAt = %v", got[0].RunAt)
	}
}

func TestQualityEvaluations_PhaseFilter(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	s.RecordQuality(ctx, &QualityEvaluation{Phase: "poc", Score: 72, Grade: "B"})
	s.RecordQuality(ctx, &QualityEvaluation{Phase: "review", Score: 91, Grade: "A+"})

	all, err := s.QualityEvaluations(ctx, "", 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("all = %+v, %v", all, err)
	}
	poc, err := s.QualityEvaluations(ctx, "poc", 0)
	if err != nil || len(poc) != 1 || poc[0].Score != 72 {
		t.Fatalf("poc = %+v, %v", poc, err)
	}
}

func TestProgressSnapshots(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.RecordProgress(ctx, &ProgressSnapshot{Repository: "acme/app", CompletionRate: 40, BlockRate: 10, OpenBottlenecks: 3}); err != nil {
		t.Fatal(err)
	}
	got, err := s.ProgressSnapshots(ctx, 5)
	if err != nil || len(got) != 1 || got[0].OpenBottlenecks != 3 {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	err := With(path, func(s *Store) error {
		return s.RecordQuality(ctx, &QualityEvaluation{Phase: "poc", Score: 60, Grade: "C"})
	})
	if err != nil {
		t.Fatal(err)
	}
	err = With(path, func(s *Store) error {
		rows, err := s.QualityEvaluations(ctx, "", 0)
		if err != nil {
			return err
		}
		if len(rows) != 1 {
			t.Fatalf("rows = %+v", rows)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestOpen_DriverError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") }

	if _, err := Open(filepath.Join(t.TempDir(), "h.db")); err == nil || !strings.Contains(err.Error(), "history: open database") {
		t.Fatalf("got %v", err)
	}
}

func TestPrint(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	s.RecordDetection(ctx, &Detection{Phase: "poc", Score: 0.61, Confidence: 0.8, Certainty: "high"})

	var buf bytes.Buffer
	if err := s.Print(ctx, &buf, "", 10); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"detections", "poc", "80.0%", "quality", "(no entries)", "progress"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if err := s.Print(ctx, &buf, "bogus", 10); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestOpen_WritesGitignore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".aiflow")
	s, err := Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "history.db*\n.gitignore\n" {
		t.Fatalf(".gitignore = %q", data)
	}
}

func TestOpen_KeepsExistingGitignore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("custom\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if data, _ := os.ReadFile(filepath.Join(dir, ".gitignore")); string(data) != "custom\n" {
		t.Fatalf(".gitignore = %q", data)
	}
}
