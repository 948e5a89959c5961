package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jorge-barreto/aiflow/internal/git"
	"github.com/jorge-barreto/aiflow/internal/pkgjson"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

// Components maps --partial names to the path prefixes they restore.
var Components = map[string][]string{
	"docs":      {"docs/"},
	"github":    {".github/"},
	"scripts":   {"scripts/"},
	"workflows": {".github/workflows/"},
	"package":   {pkgjson.FileName},
}

// ComponentNames lists the valid --partial values.
func ComponentNames() []string {
	names := make([]string, 0, len(Components))
	for n := range Components {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Filter keeps the paths selected by components. Unknown component names
// are an error.
func Filter(paths, components []string) ([]string, error) {
	var prefixes []string
	for _, c := range components {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		p, ok := Components[c]
		if !ok {
			return nil, fmt.Errorf("backup: unknown component %q (valid: %s)", c, strings.Join(ComponentNames(), ", "))
		}
		prefixes = append(prefixes, p...)
	}
	var out []string
	for _, path := range paths {
		for _, pre := range prefixes {
			if path == pre || strings.HasPrefix(path, pre) {
				out = append(out, path)
				break
			}
		}
	}
	return out, nil
}

// Failure is a path that could not be restored.
type Failure struct {
	Path string
	Err  error
}

// Report summarises a restore.
type Report struct {
	Restored []string
	Removed  []string
	Failures []Failure
}

// Restore brings every path back to its backed-up state: paths captured in
// the backup are copied back and paths missing from it are removed.
// package.json is handled by RestorePackageJSON and skipped here. Failures
// are collected rather than returned.
func Restore(root string, b *Backup, paths []string) *Report {
	r := &Report{}
	for _, rel := range paths {
		if rel == pkgjson.FileName {
			continue
		}
		dst := filepath.Join(root, rel)
		if b.Has(rel) {
			if _, err := copyIfExists(filepath.Join(b.Dir, rel), dst); err != nil {
				r.Failures = append(r.Failures, Failure{rel, err})
				continue
			}
			r.Restored = append(r.Restored, rel)
			continue
		}
		if _, err := os.Lstat(dst); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(dst); err != nil {
			r.Failures = append(r.Failures, Failure{rel, err})
			continue
		}
		r.Removed = append(r.Removed, rel)
	}
	return r
}

// RestorePackageJSON copies the backed-up package.json over the current one.
// The current file is kept in a temporary copy and put back on failure.
// It reports false when the backup has no package.json.
func RestorePackageJSON(root string, b *Backup) (bool, error) {
	if !b.Has(pkgjson.FileName) {
		return false, nil
	}
	current := pkgjson.Path(root)
	tmp := current + ".rollback-backup"
	hadCurrent, err := copyIfExists(current, tmp)
	if err != nil {
		return false, fmt.Errorf("backup: saving current %s: %w", pkgjson.FileName, err)
	}
	defer os.Remove(tmp)

	if _, err := copyIfExists(filepath.Join(b.Dir, pkgjson.FileName), current); err != nil {
		if hadCurrent {
			copyIfExists(tmp, current)
		}
		return false, fmt.Errorf("backup: restoring %s: %w", pkgjson.FileName, err)
	}
	return true, nil
}

// CommitMessage is the message used for the rollback commit.
func CommitMessage(b *Backup) string {
	return fmt.Sprintf("Rollback AI workflow template migration (from backup: %s)", b.Name)
}

// Commit stages everything and records the rollback commit.
func Commit(ctx context.Context, root string, b *Backup) error {
	return git.CommitAll(ctx, root, CommitMessage(b))
}

// PrintList writes the backup listing.
func PrintList(w io.Writer, backups []*Backup) {
	if len(backups) == 0 {
		fmt.Fprintf(w, "%sNo backups found%s\n", ux.Yellow, ux.Reset)
		return
	}
	for i, b := range backups {
		fmt.Fprintf(w, "\n%d. %s%s%s\n", i+1, ux.Green, b.Name, ux.Reset)
		fmt.Fprintf(w, "   created: %s (%s)\n", b.Created.Local().Format("2006-01-02 15:04:05"), humanize.Time(b.Created))
		fmt.Fprintf(w, "   size:    %s\n", humanize.Bytes(uint64(b.Size)))
		if m := b.Meta; m != nil {
			if m.Version != "" {
				fmt.Fprintf(w, "   version: %s\n", m.Version)
			}
			if m.MigrationPhase != "" {
				fmt.Fprintf(w, "   phase:   %s\n", m.MigrationPhase)
			}
			if m.FilesCount > 0 {
				fmt.Fprintf(w, "   files:   %d\n", m.FilesCount)
			}
		}
	}
}

// TotalSize sums the size of every backup.
func TotalSize(backups []*Backup) string {
	var total int64
	for _, b := range backups {
		total += b.Size
	}
	return humanize.Bytes(uint64(total))
}
