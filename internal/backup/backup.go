// Package backup snapshots migration-managed files before a migration and
// restores them on rollback.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jorge-barreto/aiflow/internal/pkgjson"
	"github.com/jorge-barreto/aiflow/internal/state"
)

const (
	Prefix   = ".backup-"
	MetaFile = "_backup_meta.json"
	Version  = "1.0.0"
)

// ErrNoBackups is returned when a project has no backup directories.
var ErrNoBackups = errors.New("backup: no backups found")

// PackageRef identifies the package.json in effect when the backup was taken.
type PackageRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Meta is the backup metadata file.
type Meta struct {
	ID                  string      `json:"id"`
	Version             string      `json:"version"`
	Timestamp           time.Time   `json:"timestamp"`
	ProjectPhase        string      `json:"projectPhase"`
	MigrationPhase      string      `json:"migrationPhase"`
	FilesCount          int         `json:"filesCount"`
	BackedUpFiles       []string    `json:"backedUpFiles"`
	ProjectRoot         string      `json:"projectRoot"`
	BackupReason        string      `json:"backupReason"`
	OriginalPackageJSON *PackageRef `json:"originalPackageJson"`
}

// Options describe why a backup is taken.
type Options struct {
	ProjectPhase   string
	MigrationPhase string
	Reason         string
}

// Backup is a backup directory on disk.
type Backup struct {
	Name    string
	Dir     string
	Created time.Time
	Size    int64
	Meta    *Meta
}

// Create copies the existing files among rel, plus package.json, into a
// new .backup-<unix-ms> directory under root.
func Create(root string, rel []string, opts Options, now time.Time) (*Backup, error) {
	name := Prefix + strconv.FormatInt(now.UnixMilli(), 10)
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}

	meta := &Meta{
		ID:             uuid.New().String(),
		Version:        Version,
		Timestamp:      now.UTC(),
		ProjectPhase:   opts.ProjectPhase,
		MigrationPhase: opts.MigrationPhase,
		ProjectRoot:    root,
		BackupReason:   opts.Reason,
		BackedUpFiles:  []string{},
	}
	if meta.BackupReason == "" {
		meta.BackupReason = "migration"
	}

	for _, f := range rel {
		if f == pkgjson.FileName {
			continue
		}
		copied, err := copyIfExists(filepath.Join(root, f), filepath.Join(dir, f))
		if err != nil {
			return nil, fmt.Errorf("backup: %s: %w", f, err)
		}
		if copied {
			meta.BackedUpFiles = append(meta.BackedUpFiles, filepath.ToSlash(f))
		}
	}

	pkg, _ := pkgjson.Load(root)
	if pkg != nil {
		if _, err := copyIfExists(pkgjson.Path(root), filepath.Join(dir, pkgjson.FileName)); err != nil {
			return nil, fmt.Errorf("backup: %s: %w", pkgjson.FileName, err)
		}
		meta.BackedUpFiles = append(meta.BackedUpFiles, pkgjson.FileName)
		meta.OriginalPackageJSON = &PackageRef{Name: pkg.Name(), Version: pkg.Version()}
	}
	meta.FilesCount = len(meta.BackedUpFiles)

	if err := state.WriteJSON(filepath.Join(dir, MetaFile), meta); err != nil {
		return nil, fmt.Errorf("backup: writing metadata: %w", err)
	}
	return &Backup{Name: name, Dir: dir, Created: now, Size: dirSize(dir), Meta: meta}, nil
}

// List returns the backups under root, newest first.
func List(root string) ([]*Backup, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []*Backup
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), Prefix) {
			continue
		}
		b, err := Open(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Created.After(out[j].Created)
	})
	return out, nil
}

// Find resolves a backup by directory name, or by path relative to root.
// An empty name selects the newest backup, or ErrNoBackups when there is none.
func Find(root, name string) (*Backup, error) {
	if name == "" {
		list, err := List(root)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, ErrNoBackups
		}
		return list[0], nil
	}
	dir := name
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, name)
	}
	b, err := Open(dir)
	if err != nil {
		return nil, fmt.Errorf("backup: %s: %w", name, err)
	}
	return b, nil
}

// Open reads a backup directory. Missing or unreadable metadata leaves
// Meta nil; the creation time then falls back to the name or mtime.
func Open(dir string) (*Backup, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("backup: %s is not a directory", dir)
	}
	b := &Backup{Name: filepath.Base(dir), Dir: dir, Created: info.ModTime(), Size: dirSize(dir)}
	if ms, err := strconv.ParseInt(strings.TrimPrefix(b.Name, Prefix), 10, 64); err == nil {
		b.Created = time.UnixMilli(ms)
	}
	data, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if err == nil {
		var m Meta
		if json.Unmarshal(data, &m) == nil {
			b.Meta = &m
			if !m.Timestamp.IsZero() {
				b.Created = m.Timestamp
			}
		}
	}
	return b, nil
}

// Has reports whether rel was captured in the backup.
func (b *Backup) Has(rel string) bool {
	_, err := os.Stat(filepath.Join(b.Dir, rel))
	return err == nil
}

func copyIfExists(src, dst string) (bool, error) {
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return true, copyDir(src, dst)
	}
	return true, copyFile(src, dst, info.Mode().Perm())
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, p)
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(p, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
