// Package validate checks whether a project is ready for migration.
package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/aiflow/internal/dispatch"
	"github.com/jorge-barreto/aiflow/internal/git"
	"github.com/jorge-barreto/aiflow/internal/pkgjson"
)

// Levels, most severe first.
const (
	LevelCritical = "critical"
	LevelHigh     = "high"
	LevelMedium   = "medium"
	LevelLow      = "low"
)

// Fix actions.
const (
	FixCreatePackageJSON = "create-package-json"
	FixPackageJSON       = "fix-package-json"
	FixDirectories       = "create-directories"
)

// MinFreeBytes is the disk space the templates need.
const MinFreeBytes = 5 << 20

// Result is the outcome of one rule.
type Result struct {
	RuleID    string `json:"ruleId"`
	Name      string `json:"name"`
	Level     string `json:"level"`
	Passed    bool   `json:"passed"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	AutoFix   bool   `json:"autoFix"`
	FixAction string `json:"fixAction,omitempty"`
}

// Rule is a single readiness check.
type Rule struct {
	ID    string
	Name  string
	Level string
	Check func(ctx context.Context, root string) Result
}

// Rules returns the readiness checks in execution order.
func Rules() []Rule {
	return []Rule{
		{"git-status", "Git working tree", LevelCritical, checkGitStatus},
		{"toolchain", "Toolchain", LevelHigh, checkToolchain},
		{"package-json", "package.json", LevelMedium, checkPackageJSON},
		{"directory-structure", "Directory structure", LevelLow, checkDirectories},
		{"file-conflicts", "File conflicts", LevelHigh, checkConflicts},
		{"dependencies", "Dependencies", LevelMedium, checkDependencies},
		{"disk-space", "Disk space", LevelLow, checkDiskSpace},
		{"github-integration", "GitHub integration", LevelMedium, checkGitHub},
	}
}

func checkGitStatus(ctx context.Context, root string) Result {
	out, err := git.StatusPorcelain(ctx, root)
	if err != nil {
		return Result{Message: "not a git repository", Details: err.Error()}
	}
	if out != "" {
		return Result{Message: "uncommitted changes in the working tree", Details: out}
	}
	return Result{Passed: true, Message: "working tree is clean"}
}

func checkToolchain(ctx context.Context, root string) Result {
	needed := []string{"git"}
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
		needed = append(needed, "go")
	}
	if pkgjson.Exists(root) {
		needed = append(needed, "node")
	}
	if err := dispatch.RequireBinaries(needed...); err != nil {
		return Result{Message: err.Error(), Details: "needed: " + strings.Join(needed, ", ")}
	}
	msg := "found " + strings.Join(needed, ", ")
	if v, err := git.Version(ctx); err == nil {
		return Result{Passed: true, Message: msg, Details: v}
	}
	return Result{Passed: true, Message: msg}
}

func checkPackageJSON(_ context.Context, root string) Result {
	if !pkgjson.Exists(root) {
		return Result{Message: "package.json not found", Details: "run npm init or use --fix-auto", AutoFix: true, FixAction: FixCreatePackageJSON}
	}
	pkg, err := pkgjson.Load(root)
	if err != nil {
		return Result{Message: "package.json could not be read", Details: err.Error()}
	}
	var missing []string
	for _, field := range []string{"name", "version"} {
		if pkg.String(field) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return Result{
			Message:   "missing fields: " + strings.Join(missing, ", "),
			AutoFix:   true,
			FixAction: FixPackageJSON,
		}
	}
	return Result{Passed: true, Message: "package.json is valid"}
}

var requiredDirs = []string{"docs", ".github"}

func checkDirectories(_ context.Context, root string) Result {
	var have, missing []string
	for _, d := range requiredDirs {
		if info, err := os.Stat(filepath.Join(root, d)); err == nil && info.IsDir() {
			have = append(have, d)
		} else {
			missing = append(missing, d)
		}
	}
	details := fmt.Sprintf("present: %s | missing: %s", strings.Join(have, ", "), strings.Join(missing, ", "))
	if len(missing) > 0 {
		return Result{Message: "missing directories: " + strings.Join(missing, ", "), Details: details, AutoFix: true, FixAction: FixDirectories}
	}
	return Result{Passed: true, Message: "recommended directories exist", Details: details}
}

var conflictCandidates = []string{
	"docs/PROJECT_CONTEXT.md",
	"docs/WORKFLOW_GUIDE.md",
	".github/pull_request_template.md",
	pkgjson.FileName,
}

func checkConflicts(_ context.Context, root string) Result {
	var found []string
	for _, f := range conflictCandidates {
		if _, err := os.Stat(filepath.Join(root, f)); err == nil {
			found = append(found, f)
		}
	}
	if len(found) > 0 {
		return Result{Message: fmt.Sprintf("%d files may conflict", len(found)), Details: strings.Join(found, ", ")}
	}
	return Result{Passed: true, Message: "no conflicting files"}
}

// templateDependencies are packages the wrapper tooling pins loosely; an
// exact pin in the project may clash.
var templateDependencies = []string{"inquirer", "chalk", "js-yaml", "commander"}

func checkDependencies(_ context.Context, root string) Result {
	pkg, err := pkgjson.Load(root)
	if err != nil {
		return Result{Message: "dependency check failed", Details: err.Error()}
	}
	if pkg == nil {
		return Result{Message: "package.json not found"}
	}
	all := pkg.RuntimeDependencies()
	for k, v := range pkg.DevDependencies() {
		all[k] = v
	}
	var pinned []string
	for _, dep := range templateDependencies {
		if v, ok := all[dep]; ok && !strings.HasPrefix(v, "^") {
			pinned = append(pinned, dep)
		}
	}
	if len(pinned) > 0 {
		return Result{Message: fmt.Sprintf("%d dependencies may conflict", len(pinned)), Details: strings.Join(pinned, ", ")}
	}
	return Result{Passed: true, Message: "dependencies OK"}
}

func checkDiskSpace(_ context.Context, root string) Result {
	free, err := freeBytes(root)
	if err != nil {
		return Result{Message: "disk space check failed", Details: err.Error()}
	}
	if free < MinFreeBytes {
		return Result{Message: fmt.Sprintf("only %d bytes free", free), Details: "templates need about 5 MB"}
	}
	return Result{Passed: true, Message: "enough disk space", Details: fmt.Sprintf("%d MB free", free>>20)}
}

func checkGitHub(_ context.Context, root string) Result {
	data, err := os.ReadFile(filepath.Join(root, ".git", "config"))
	if err != nil {
		return Result{Message: "not a git repository", Details: "GitHub integration needs a repository"}
	}
	cfg := string(data)
	hasOrigin := strings.Contains(cfg, `[remote "origin"]`)
	hasGitHub := strings.Contains(cfg, "github.com")
	switch {
	case hasOrigin && hasGitHub:
		return Result{Passed: true, Message: "GitHub remote configured"}
	case hasOrigin:
		return Result{Message: "no GitHub remote configured", Details: "origin is not on github.com"}
	}
	return Result{Message: "no GitHub remote configured", Details: "no origin remote"}
}
