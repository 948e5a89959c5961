package backup

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	os.MkdirAll(filepath.Dir(p), 0755)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func read(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCreate_WritesMetadata(t *testing.T) {
	root := t.TempDir()
	write(t, root, "docs/ARCHITECTURE.md", "# Existing architecture\n")
	write(t, root, "package.json", `{"name":"demo","version":"0.2.0"}`)

	now := time.UnixMilli(1700000000000)
	b, err := Create(root, []string{"docs/ARCHITECTURE.md", "docs/MISSING.md"}, Options{ProjectPhase: "poc", MigrationPhase: "PoC"}, now)
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != ".backup-1700000000000" {
		t.Fatalf("Name = %q", b.Name)
	}
	if b.Meta.FilesCount != 2 || b.Meta.BackupReason != "migration" {
		t.Fatalf("meta = %+v", b.Meta)
	}
	if b.Meta.OriginalPackageJSON == nil || b.Meta.OriginalPackageJSON.Version != "0.2.0" {
		t.Fatalf("OriginalPackageJSON = %+v", b.Meta.OriginalPackageJSON)
	}

	opened, err := Open(b.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if opened.Meta == nil || opened.Meta.ID != b.Meta.ID {
		t.Fatalf("reopened meta = %+v", opened.Meta)
	}
	if !opened.Created.Equal(now) {
		t.Fatalf("Created = %v, want %v", opened.Created, now)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	root := t.TempDir()
	original := "# Project context\n\nHand written notes that must survive.\n"
	write(t, root, "docs/PROJECT_CONTEXT.md", original)

	b, err := Create(root, []string{"docs/PROJECT_CONTEXT.md"}, Options{}, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	// Migration overwrites one file and adds another.
	write(t, root, "docs/PROJECT_CONTEXT.md", "template text")
	write(t, root, "docs/WORKFLOW_GUIDE.md", "new")
	os.Remove(filepath.Join(root, "docs/PROJECT_CONTEXT.md"))

	rep := Restore(root, b, []string{"docs/PROJECT_CONTEXT.md", "docs/WORKFLOW_GUIDE.md"})
	if len(rep.Failures) != 0 {
		t.Fatalf("failures: %+v", rep.Failures)
	}
	if got := read(t, root, "docs/PROJECT_CONTEXT.md"); got != original {
		t.Fatalf("restored content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, "docs/WORKFLOW_GUIDE.md")); !os.IsNotExist(err) {
		t.Fatal("file absent from backup should be removed")
	}
	if len(rep.Restored) != 1 || len(rep.Removed) != 1 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRestorePackageJSON(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"name":"before"}`)
	b, err := Create(root, nil, Options{}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	write(t, root, "package.json", `{"name":"after","scripts":{"setup":"aiflow setup"}}`)

	ok, err := RestorePackageJSON(root, b)
	if err != nil || !ok {
		t.Fatalf("RestorePackageJSON = %v, %v", ok, err)
	}
	if got := read(t, root, "package.json"); got != `{"name":"before"}` {
		t.Fatalf("package.json = %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, "package.json.rollback-backup")); !os.IsNotExist(err) {
		t.Fatal("temporary copy left behind")
	}
}

func TestList_NewestFirst(t *testing.T) {
	root := t.TempDir()
	older, _ := Create(root, nil, Options{}, time.UnixMilli(1000))
	newer, _ := Create(root, nil, Options{}, time.UnixMilli(2000))
	os.MkdirAll(filepath.Join(root, "not-a-backup"), 0755)

	list, err := List(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != newer.Name || list[1].Name != older.Name {
		t.Fatalf("List = %v", list)
	}
	var buf bytes.Buffer
	PrintList(&buf, list)
	if !strings.Contains(buf.String(), newer.Name) {
		t.Fatalf("listing missing backup:\n%s", buf.String())
	}
}

func TestFilter(t *testing.T) {
	paths := []string{"docs/A.md", ".github/workflows/x.yml", ".github/pull_request_template.md", "scripts/a.sh", "package.json"}
	got, err := Filter(paths, []string{"workflows", " package"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != ".github/workflows/x.yml" || got[1] != "package.json" {
		t.Fatalf("Filter = %v", got)
	}
	if _, err := Filter(paths, []string{"bogus"}); err == nil {
		t.Fatal("unknown component should fail")
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	if _, err := Find(root, ""); !errors.Is(err, ErrNoBackups) {
		t.Fatalf("empty root: %v", err)
	}
	b, _ := Create(root, nil, Options{}, time.UnixMilli(5000))
	got, err := Find(root, b.Name)
	if err != nil || got.Name != b.Name {
		t.Fatalf("Find = %v, %v", got, err)
	}
	if _, err := Find(root, ".backup-1"); err == nil {
		t.Fatal("missing backup should fail")
	}
}
