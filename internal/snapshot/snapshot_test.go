package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestTake_TreeSkipsToolDirs(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/app.js", "x")
	write(t, root, "node_modules/a/index.js", "x")
	write(t, root, ".backup-1700000000000/README.md", "x")
	write(t, root, ".aiflow/config.yaml", "x")

	s := Take(context.Background(), root)
	if !strings.Contains(s.Tree, "src/\n  app.js\n") {
		t.Fatalf("tree:\n%s", s.Tree)
	}
	for _, hidden := range []string{"node_modules", ".backup-", ".aiflow"} {
		if strings.Contains(s.Tree, hidden) {
			t.Errorf("tree should not list %s:\n%s", hidden, s.Tree)
		}
	}
}

func TestTake_KeyFiles(t *testing.T) {
	root := t.TempDir()
	write(t, root, "README.md", "# Hello")
	write(t, root, "docs/ARCHITECTURE.md", "layers")

	s := Take(context.Background(), root)
	if s.Files["README.md"] != "# Hello" || s.Files["docs/ARCHITECTURE.md"] != "layers" {
		t.Fatalf("files = %v", s.Files)
	}
	if _, ok := s.Files["package.json"]; ok {
		t.Fatal("missing files should be omitted")
	}
	if len(s.Commits) != 0 {
		t.Fatalf("commits outside a repo = %v", s.Commits)
	}
}

func TestTake_Truncates(t *testing.T) {
	root := t.TempDir()
	write(t, root, "README.md", strings.Repeat("x", MaxFileSize+100))

	got := Take(context.Background(), root).Files["README.md"]
	if !strings.Contains(got, "... (truncated, 8.3 kB total)") {
		t.Fatalf("suffix = %q", got[len(got)-40:])
	}
	if len(got) > MaxFileSize+50 {
		t.Fatalf("len = %d", len(got))
	}
}

func TestMarkdown_Sections(t *testing.T) {
	s := &Snapshot{
		Tree:    "src/\n",
		Files:   map[string]string{"go.mod": "module x\n", "README.md": "# Hi"},
		Commits: []string{"abc123 init"},
	}
	md := s.Markdown()
	for _, want := range []string{"## Project snapshot", "### README.md", "### go.mod", "### Recent commits", "abc123 init"} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Index(md, "### README.md") > strings.Index(md, "### go.mod") {
		t.Fatal("files should be sorted")
	}

	s.Commits = nil
	if strings.Contains(s.Markdown(), "Recent commits") {
		t.Fatal("no commits section expected")
	}
}

func TestAppend(t *testing.T) {
	root := t.TempDir()
	write(t, root, "README.md", "# Hello")
	prompt := filepath.Join(root, "prompt.md")
	write(t, root, "prompt.md", "# Handoff\n")

	if err := Append(context.Background(), prompt, root); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(prompt)
	if !strings.HasPrefix(string(data), "# Handoff\n\n## Project snapshot") {
		t.Fatalf("prompt:\n%s", data)
	}
}
