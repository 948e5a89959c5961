// Package health scores a migrated project: are the template files intact,
// do the wrappers work, is GitHub wired up and is the workflow in use.
package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jorge-barreto/aiflow/internal/gh"
	"github.com/jorge-barreto/aiflow/internal/git"
	"github.com/jorge-barreto/aiflow/internal/templates"
)

// Item statuses.
const (
	StatusOK      = "ok"
	StatusMissing = "missing"
	StatusWarning = "warning"
	StatusError   = "error"
)

// PassingScore is the overall score at which the project counts as healthy.
const PassingScore = 60

// MinFileSize is the size below which a required file counts as corrupted.
const MinFileSize = 50

// RequiredFiles must exist and carry real content.
var RequiredFiles = []string{
	"docs/PROJECT_CONTEXT.md",
	"docs/WORKFLOW_GUIDE.md",
	"scripts/ai-context.sh",
	"scripts/progress-update.sh",
	templates.PRTemplate,
}

var wrapperScripts = []string{
	"scripts/ai-context.sh",
	"scripts/progress-update.sh",
	"scripts/quality-check.sh",
}

// Item is one sub-check.
type Item struct {
	Name   string `json:"name"`
	Path   string `json:"path,omitempty"`
	Status string `json:"status"`
}

// Result is the outcome of a check.
type Result struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Passed          bool     `json:"passed"`
	Score           float64  `json:"score"`
	Items           []Item   `json:"items,omitempty"`
	Missing         []string `json:"missing,omitempty"`
	Corrupted       []string `json:"corrupted,omitempty"`
	Details         string   `json:"details,omitempty"`
	Error           string   `json:"error,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Env is what checks may consult.
type Env struct {
	Root string
	// GitHub is nil when no token is configured.
	GitHub gh.Client
	Now    time.Time
}

// Check is one health check.
type Check struct {
	ID       string
	Name     string
	Category string
	Run      func(ctx context.Context, env *Env) Result
}

// Checks returns the health checks in execution order.
func Checks() []Check {
	return []Check{
		{"files-integrity", "File integrity", "system", checkFiles},
		{"command-functionality", "Command functionality", "functionality", checkCommands},
		{"github-integration", "GitHub integration", "integration", checkGitHub},
		{"ai-context-system", "AI context system", "ai-features", checkContextSystem},
		{"workflow-metrics", "Workflow metrics", "metrics", checkWorkflowMetrics},
	}
}

func ratio(ok, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total) * 100
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func checkFiles(_ context.Context, env *Env) Result {
	var r Result
	for _, f := range RequiredFiles {
		data, err := os.ReadFile(filepath.Join(env.Root, f))
		switch {
		case os.IsNotExist(err):
			r.Missing = append(r.Missing, f)
		case err != nil || len(data) < MinFileSize:
			r.Corrupted = append(r.Corrupted, f)
		}
	}
	ok := len(RequiredFiles) - len(r.Missing) - len(r.Corrupted)
	r.Passed = ok == len(RequiredFiles)
	r.Score = ratio(ok, len(RequiredFiles))
	r.Details = fmt.Sprintf("%d required, %d missing, %d corrupted", len(RequiredFiles), len(r.Missing), len(r.Corrupted))
	if len(r.Missing) > 0 {
		r.Recommendations = []string{"re-run aiflow migrate or restore the missing files (aiflow health --fix-issues)"}
	}
	return r
}

func checkCommands(ctx context.Context, env *Env) Result {
	var r Result
	for _, s := range wrapperScripts {
		it := Item{Name: filepath.Base(s), Path: s, Status: StatusOK}
		info, err := os.Stat(filepath.Join(env.Root, s))
		switch {
		case err != nil:
			it.Status = StatusMissing
		case info.Mode().Perm()&0111 == 0:
			it.Status = StatusWarning
		}
		r.Items = append(r.Items, it)
	}
	gitItem := Item{Name: "git", Status: StatusOK}
	if _, err := git.Version(ctx); err != nil {
		gitItem.Status = StatusError
	}
	r.Items = append(r.Items, gitItem)

	ok := countOK(r.Items)
	r.Passed = ok == len(r.Items)
	r.Score = ratio(ok, len(r.Items))
	if !r.Passed {
		r.Recommendations = []string{"make sure git is installed and the wrapper scripts are executable"}
	}
	return r
}

func checkGitHub(ctx context.Context, env *Env) Result {
	var r Result
	for _, c := range []struct{ name, path string }{
		{"GitHub Actions workflow", templates.BridgeWorkflow},
		{"PR template", templates.PRTemplate},
		{"Issue templates", strings.TrimSuffix(templates.IssueTemplateDir, "/")},
	} {
		it := Item{Name: c.name, Path: c.path, Status: StatusMissing}
		if exists(filepath.Join(env.Root, c.path)) {
			it.Status = StatusOK
		}
		r.Items = append(r.Items, it)
	}
	remote := Item{Name: "GitHub remote", Status: StatusWarning}
	out, err := git.Remotes(ctx, env.Root)
	switch {
	case err != nil:
		remote.Status = StatusError
	case strings.Contains(out, "github.com"):
		remote.Status = StatusOK
	}
	r.Items = append(r.Items, remote)

	ok := countOK(r.Items)
	r.Passed = ok >= 3
	r.Score = ratio(ok, len(r.Items))
	if !r.Passed {
		r.Recommendations = []string{"GitHub files are missing; re-run aiflow migrate"}
	}
	return r
}

func checkContextSystem(_ context.Context, env *Env) Result {
	var r Result
	for _, p := range []string{"docs/ai-context", "docs/ai-prompts", "docs/PROJECT_CONTEXT.md", "docs/AI_INTERACTION_LOG.md"} {
		it := Item{Name: filepath.Base(p), Path: p, Status: StatusMissing}
		if exists(filepath.Join(env.Root, p)) {
			it.Status = StatusOK
			r.Score += 25
		}
		r.Items = append(r.Items, it)
	}
	r.Passed = r.Score >= 75
	if !r.Passed {
		r.Recommendations = []string{"the AI context setup is incomplete; run aiflow setup"}
	}
	return r
}

var logEntry = regexp.MustCompile(`## \d{4}-\d{2}-\d{2}`)

// ContextEntries counts dated headings in the AI interaction log.
func ContextEntries(root string) int {
	data, err := os.ReadFile(filepath.Join(root, "docs", "AI_INTERACTION_LOG.md"))
	if err != nil {
		return 0
	}
	return len(logEntry.FindAll(data, -1))
}

func checkWorkflowMetrics(ctx context.Context, env *Env) Result {
	commits, err := git.CommitsSince(ctx, env.Root, env.Now.AddDate(0, 0, -30))
	if err != nil {
		return Result{
			Error:           err.Error(),
			Recommendations: []string{"could not read the git history; check the repository"},
		}
	}
	issues := 0
	if env.GitHub != nil {
		if list, err := env.GitHub.Issues(ctx, gh.IssueQuery{}); err == nil {
			issues = min(len(list), gh.PerPage)
		}
	}
	entries := ContextEntries(env.Root)

	var r Result
	r.Score = float64(min(100, commits*2+issues+entries*5))
	r.Passed = r.Score > 0
	r.Details = fmt.Sprintf("%d commits in 30 days, %d issues, %d log entries", commits, issues, entries)
	if r.Score < 20 {
		r.Recommendations = []string{"little recent activity; consider using the context bridge more"}
	}
	return r
}

func countOK(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Status == StatusOK {
			n++
		}
	}
	return n
}
