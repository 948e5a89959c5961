// Package dispatch executes migration steps: installing template files,
// taking backups and updating package.json.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jorge-barreto/aiflow/internal/backup"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/pkgjson"
	"github.com/jorge-barreto/aiflow/internal/prompt"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/templates"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

// Special step IDs handled outside the template catalogues.
const (
	StepBackup      = "backup"
	StepPackageJSON = "package-json"
)

// ConflictMinSize is the size above which a differing file counts as
// user content rather than a stale copy of the template.
const ConflictMinSize = 100

// Conflict actions.
const (
	ActionKeep    = "keep"
	ActionReplace = "replace"
	ActionManual  = "manual"
)

// ManualSuffix is appended to a file name to drop the template next to a
// conflicting file for manual merging.
const ManualSuffix = ".aiflow-template"

// NPMScripts are merged into package.json by the package-json step.
var NPMScripts = map[string]string{
	"setup":           "aiflow setup",
	"ai-context":      "aiflow context check",
	"context-bridge":  "aiflow context complete",
	"progress-update": "aiflow progress",
	"quality-check":   "aiflow context quality",
	"collect-metrics": "aiflow metrics",
	"notify-team":     "aiflow notify",
}

// Environment holds what a step needs to run.
type Environment struct {
	ProjectRoot string
	// Force resolves every conflict by keeping the existing file.
	Force    bool
	Vars     map[string]string
	Prompter *prompt.Prompter
	Out      io.Writer

	// BackupFiles are the paths the backup step captures.
	BackupFiles  []string
	ProjectPhase phase.Phase
	// BackupPath is set once a backup step has run.
	BackupPath string
	Now        func() time.Time
}

func (e *Environment) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Environment) out() io.Writer {
	if e.Out != nil {
		return e.Out
	}
	return os.Stdout
}

// Result holds the outcome of a step.
type Result struct {
	Written    []string
	Unchanged  []string
	Kept       []string
	Manual     []string
	BackupPath string
}

// Dispatcher is the interface for running steps. Tests can substitute a mock.
type Dispatcher interface {
	Dispatch(ctx context.Context, step state.Step, env *Environment) (*Result, error)
}

// DefaultDispatcher routes steps to the real executors.
type DefaultDispatcher struct{}

func (d *DefaultDispatcher) Dispatch(ctx context.Context, step state.Step, env *Environment) (*Result, error) {
	return Dispatch(ctx, step, env)
}

// Dispatch routes a step to the appropriate executor.
func Dispatch(ctx context.Context, step state.Step, env *Environment) (*Result, error) {
	switch step.ID {
	case StepBackup:
		return runBackup(env)
	case StepPackageJSON:
		return runPackageJSON(env)
	}
	files, err := StepFiles(step)
	if err != nil {
		return nil, err
	}
	return Install(ctx, files, env)
}

// StepFiles resolves the template files a step installs. An explicit file
// list wins; otherwise steps with a phase come from the staged catalogue
// and the rest from the migration categories.
func StepFiles(step state.Step) ([]string, error) {
	if len(step.Files) > 0 {
		return step.Files, nil
	}
	if step.Phase != "" {
		for _, s := range templates.StageSteps(phase.Phase(step.Phase)) {
			if s.ID == step.ID {
				return s.Files, nil
			}
		}
		return nil, fmt.Errorf("unknown step %q for phase %s", step.ID, step.Phase)
	}
	if c, ok := templates.CategoryByID(step.ID); ok {
		return c.Files(), nil
	}
	return nil, fmt.Errorf("unknown step %q", step.ID)
}

// IsConflict reports whether existing content should be protected from
// being overwritten by the rendered template.
func IsConflict(existing, rendered string) bool {
	return existing != rendered && len(existing) > ConflictMinSize
}

// Install writes the rendered templates into the project.
func Install(ctx context.Context, files []string, env *Environment) (*Result, error) {
	res := &Result{}
	for _, rel := range files {
		rendered, ok := templates.Render(rel, env.Vars)
		if !ok {
			return res, fmt.Errorf("template %s is not embedded", rel)
		}
		target := filepath.Join(env.ProjectRoot, rel)
		existing, err := os.ReadFile(target)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return res, err
		case string(existing) == rendered:
			res.Unchanged = append(res.Unchanged, rel)
			continue
		case IsConflict(string(existing), rendered):
			action, err := resolveConflict(ctx, rel, env)
			if err != nil {
				return res, err
			}
			switch action {
			case ActionKeep:
				res.Kept = append(res.Kept, rel)
				continue
			case ActionManual:
				if err := writeTemplate(target+ManualSuffix, rel, rendered); err != nil {
					return res, err
				}
				res.Manual = append(res.Manual, rel)
				fmt.Fprintf(env.out(), "    merge %s into %s by hand\n", rel+ManualSuffix, rel)
				if env.Prompter != nil {
					if _, err := env.Prompter.Ask(ctx, "press Enter once merged"); err != nil {
						return res, err
					}
				}
				continue
			}
		}
		if err := writeTemplate(target, rel, rendered); err != nil {
			return res, err
		}
		res.Written = append(res.Written, rel)
	}
	return res, nil
}

func writeTemplate(path, rel, content string) error {
	perm := os.FileMode(0644)
	if templates.IsExecutable(rel) {
		perm = 0755
	}
	return state.WriteFileAtomic(path, []byte(content), perm)
}

func resolveConflict(ctx context.Context, rel string, env *Environment) (string, error) {
	if env.Force || env.Prompter == nil {
		return ActionKeep, nil
	}
	options := []string{
		"keep the existing file",
		"replace it with the template",
		"merge by hand, then continue",
	}
	i, err := env.Prompter.Select(ctx, fmt.Sprintf("%s already exists. What should happen?", rel), options, 0)
	if err != nil {
		return "", err
	}
	return []string{ActionKeep, ActionReplace, ActionManual}[i], nil
}

func runBackup(env *Environment) (*Result, error) {
	b, err := backup.Create(env.ProjectRoot, env.BackupFiles, backup.Options{
		ProjectPhase:   string(env.ProjectPhase),
		MigrationPhase: env.ProjectPhase.Title(),
	}, env.now())
	if err != nil {
		return nil, err
	}
	env.BackupPath = b.Dir
	ux.Detail("backup %s (%d files)", b.Name, b.Meta.FilesCount)
	return &Result{BackupPath: b.Dir}, nil
}

func runPackageJSON(env *Environment) (*Result, error) {
	pkg, err := pkgjson.Load(env.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, fmt.Errorf("%s not found", pkgjson.FileName)
	}
	pkg.MergeScripts(NPMScripts)
	if err := pkg.Save(env.ProjectRoot); err != nil {
		return nil, err
	}
	return &Result{Written: []string{pkgjson.FileName}}, nil
}
