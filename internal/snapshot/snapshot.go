// Package snapshot summarises a project for inclusion in AI handoff
// prompts: a shallow directory tree, the key documents and recent commits.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jorge-barreto/aiflow/internal/git"
)

// MaxFileSize caps the bytes kept per file.
const MaxFileSize = 8 * 1024

const recentCommits = 10

var skipDirs = map[string]bool{
	".git":         true,
	".aiflow":      true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"__pycache__":  true,
	"temp":         true,
}

// keyFiles are read when present, relative to the project root.
var keyFiles = []string{
	"README.md",
	"package.json",
	"go.mod",
	"docs/PROJECT_CONTEXT.md",
	"docs/ARCHITECTURE.md",
	"docs/CODING_STANDARDS.md",
}

// Snapshot is the gathered summary.
type Snapshot struct {
	Tree    string
	Files   map[string]string
	Commits []string
}

// Take gathers the snapshot of root. Unreadable parts are left out.
func Take(ctx context.Context, root string) *Snapshot {
	s := &Snapshot{Tree: tree(root), Files: make(map[string]string)}
	for _, name := range keyFiles {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
		if err != nil {
			continue
		}
		s.Files[name] = truncate(data)
	}
	if git.IsRepo(root) {
		s.Commits, _ = git.RecentLog(ctx, root, recentCommits)
	}
	return s
}

func truncate(data []byte) string {
	if len(data) <= MaxFileSize {
		return string(data)
	}
	return fmt.Sprintf("%s\n... (truncated, %s total)", data[:MaxFileSize], humanize.Bytes(uint64(len(data))))
}

// skip reports whether a directory is left out of the tree. Migration
// backups are skipped along with tool and dependency directories.
func skip(name string) bool {
	return skipDirs[name] || strings.HasPrefix(name, ".backup-")
}

func tree(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "(unreadable)\n"
	}
	var b strings.Builder
	for _, e := range entries {
		if !e.IsDir() {
			b.WriteString(e.Name() + "\n")
			continue
		}
		if skip(e.Name()) {
			continue
		}
		b.WriteString(e.Name() + "/\n")
		sub, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		for _, se := range sub {
			name := se.Name()
			if se.IsDir() {
				name += "/"
			}
			b.WriteString("  " + name + "\n")
		}
	}
	return b.String()
}

// Markdown renders the snapshot as a prompt section.
func (s *Snapshot) Markdown() string {
	var b strings.Builder
	b.WriteString("## Project snapshot\n\n### Layout\n\n```\n")
	b.WriteString(s.Tree)
	b.WriteString("```\n")

	paths := make([]string, 0, len(s.Files))
	for p := range s.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(&b, "\n### %s\n\n```\n%s\n```\n", p, strings.TrimRight(s.Files[p], "\n"))
	}

	if len(s.Commits) > 0 {
		b.WriteString("\n### Recent commits\n\n```\n")
		b.WriteString(strings.Join(s.Commits, "\n"))
		b.WriteString("\n```\n")
	}
	return b.String()
}

// Append adds the snapshot of root to the prompt file at path.
func Append(ctx context.Context, path, root string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString("\n" + Take(ctx, root).Markdown()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
