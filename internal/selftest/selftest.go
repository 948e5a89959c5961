// Package selftest exercises the migration commands end to end against a
// throwaway mock project.
package selftest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jorge-barreto/aiflow/internal/backup"
	"github.com/jorge-barreto/aiflow/internal/detect"
	"github.com/jorge-barreto/aiflow/internal/git"
	"github.com/jorge-barreto/aiflow/internal/health"
	"github.com/jorge-barreto/aiflow/internal/migrate"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/stage"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/templates"
	"github.com/jorge-barreto/aiflow/internal/ux"
	"github.com/jorge-barreto/aiflow/internal/validate"
)

const (
	StatusPassed = "passed"
	StatusFailed = "failed"
	StatusError  = "error"

	AnalysisLimit   = 10 * time.Second
	ValidationLimit = 5 * time.Second
)

// Failed marks an assertion failure, as opposed to an error running a case.
type Failed string

func (f Failed) Error() string { return string(f) }

// Case is one in-process check against the mock project.
type Case struct {
	Name string
	Run  func(ctx context.Context, root string) error
}

type CaseResult struct {
	Name     string
	Status   string
	Duration time.Duration
	Error    string
}

type Timing struct {
	Name     string
	Duration time.Duration
	Limit    time.Duration
}

func (t Timing) Passed() bool { return t.Duration < t.Limit }

// Options control a run.
type Options struct {
	Verbose       bool
	Keep          bool
	FullMigration bool
	// Dir overrides the temp parent directory.
	Dir string
	Now func() time.Time
}

type Report struct {
	Root    string
	Cases   []CaseResult
	Timings []Timing
	// FullMigration is nil when the stage was not requested.
	FullMigration *CaseResult
	// HealthScore is the post-migration health score, when measured.
	HealthScore float64
}

func (r *Report) count(status string) int {
	n := 0
	for _, c := range r.Cases {
		if c.Status == status {
			n++
		}
	}
	return n
}

func (r *Report) Passed() int { return r.count(StatusPassed) }
func (r *Report) Failed() int { return r.count(StatusFailed) }
func (r *Report) Errors() int { return r.count(StatusError) }

// OK reports whether every case and the full migration passed. Slow
// timings are reported but do not fail the run.
func (r *Report) OK() bool {
	if r.Failed() > 0 || r.Errors() > 0 {
		return false
	}
	return r.FullMigration == nil || r.FullMigration.Status == StatusPassed
}

var mockPackage = map[string]any{
	"name":    "existing-project",
	"version": "1.0.0",
	"scripts": map[string]string{
		"start": "node app.js",
		"test":  `echo "No tests specified"`,
	},
	"dependencies": map[string]string{"express": "^4.18.0"},
}

const mockApp = `const express = require('express');
const app = express();

app.get('/', (req, res) => {
  res.send('Hello World!');
});

app.listen(3000, () => {
  console.log('Server running on port 3000');
});
`

// Setup creates the mock project under parent and returns its root. When
// git is on PATH the project is committed with a throwaway identity.
func Setup(ctx context.Context, parent string) (string, error) {
	root, err := os.MkdirTemp(parent, "aiflow-selftest-")
	if err != nil {
		return "", err
	}
	pkg, err := json.MarshalIndent(mockPackage, "", "  ")
	if err != nil {
		return "", err
	}
	files := map[string]string{
		"package.json":     string(pkg) + "\n",
		"app.js":           mockApp,
		"README.md":        "# Existing Project\n\nThis is an existing project for migration testing.\n",
		"docs/old-spec.md": "# Old Specification\n\nLegacy documentation.\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return "", err
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			return "", err
		}
	}

	if git.Available() {
		err := git.Init(ctx, root)
		if err == nil {
			_, err = git.Run(ctx, root, "remote", "add", "origin", "https://github.com/example/existing-project.git")
		}
		if err == nil {
			err = git.CommitAll(ctx, root, "Initial commit", "user.name=aiflow", "user.email=selftest@aiflow.invalid")
		}
		if err != nil {
			return root, fmt.Errorf("git setup: %w", err)
		}
	}
	return root, nil
}

// Cases returns the in-process checks in execution order.
func Cases(now func() time.Time) []Case {
	vars := func(root string) map[string]string {
		return templates.DefaultVars(filepath.Base(root), now())
	}
	return []Case{
		{"Phase detection", func(ctx context.Context, root string) error {
			res, err := detect.Detect(ctx, root, 0.7)
			if err != nil {
				return err
			}
			if res.Recommendation.Phase.Index() < 0 {
				return Failed(fmt.Sprintf("unknown phase %q", res.Recommendation.Phase))
			}
			return nil
		}},
		{"Pre-migration validation", func(ctx context.Context, root string) error {
			r := validate.Run(ctx, root, validate.Rules(), now())
			if r.Summary.Total == 0 {
				return Failed("no validation rules ran")
			}
			return nil
		}},
		{"Migration analysis", func(ctx context.Context, root string) error {
			a, err := migrate.Analyze(root, "", vars(root))
			if err != nil {
				return err
			}
			if a.MissingCount() == 0 {
				return Failed("a fresh project should be missing template files")
			}
			if len(migrate.NewPlan(a).Steps) == 0 {
				return Failed("empty migration plan")
			}
			return nil
		}},
		{"Staged migration", func(ctx context.Context, root string) error {
			if _, err := stage.Schedule(root, phase.PoC, now()); err != nil {
				return err
			}
			m, err := state.Load(root)
			if err != nil {
				return err
			}
			if m.Status != state.StatusScheduled || m.TotalSteps == 0 {
				return Failed(fmt.Sprintf("unexpected state %s with %d steps", m.Status, m.TotalSteps))
			}
			_, err = stage.Reset(root)
			return err
		}},
		{"Backup system", func(ctx context.Context, root string) error {
			b, err := backup.Create(root, []string{"README.md"}, backup.Options{Reason: "selftest"}, now())
			if err != nil {
				return err
			}
			list, err := backup.List(root)
			if err != nil {
				return err
			}
			if len(list) == 0 || list[0].Name != b.Name {
				return Failed("created backup not listed")
			}
			return os.RemoveAll(b.Dir)
		}},
	}
}

func runCase(ctx context.Context, root string, c Case) (res CaseResult) {
	res.Name = c.Name
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Status, res.Error = StatusError, fmt.Sprint(r)
		}
	}()

	err := c.Run(ctx, root)
	var f Failed
	switch {
	case err == nil:
		res.Status = StatusPassed
	case errors.As(err, &f):
		res.Status, res.Error = StatusFailed, err.Error()
	default:
		res.Status, res.Error = StatusError, err.Error()
	}
	return res
}

func measure(name string, limit time.Duration, fn func()) Timing {
	start := time.Now()
	fn()
	return Timing{Name: name, Duration: time.Since(start), Limit: limit}
}

// Run builds the mock project, runs the cases and optional stages, and
// removes the project unless Keep is set.
func Run(ctx context.Context, w io.Writer, opts Options) (*Report, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	fmt.Fprintf(w, "%s🔧 Preparing test project...%s\n", ux.Blue, ux.Reset)
	root, err := Setup(ctx, opts.Dir)
	if root != "" && !opts.Keep {
		defer os.RemoveAll(root)
	}
	if err != nil {
		if root == "" {
			return nil, err
		}
		fmt.Fprintf(w, "%s⚠ %v; continuing without git%s\n", ux.Yellow, err, ux.Reset)
	}
	r := &Report{Root: root}

	for _, c := range Cases(now) {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		res := runCase(ctx, root, c)
		r.Cases = append(r.Cases, res)
		if opts.Verbose {
			fmt.Fprintf(w, "  %s %s (%s)\n", statusIcon(res.Status), res.Name, ms(res.Duration))
		}
	}

	vars := templates.DefaultVars(filepath.Base(root), now())
	r.Timings = append(r.Timings,
		measure("Analysis", AnalysisLimit, func() {
			detect.Detect(ctx, root, 0.7)
			migrate.Analyze(root, "", vars)
		}),
		measure("Validation", ValidationLimit, func() {
			validate.Run(ctx, root, validate.Rules(), now())
		}),
	)

	if opts.FullMigration {
		fmt.Fprintf(w, "%s🚀 Running a forced migration to poc...%s\n", ux.Blue, ux.Reset)
		res := runCase(ctx, root, Case{Name: "Full migration", Run: func(ctx context.Context, root string) error {
			score, err := fullMigration(ctx, root, now)
			r.HealthScore = score
			return err
		}})
		r.FullMigration = &res
	}

	Print(w, r, opts.Verbose)
	if opts.Keep {
		fmt.Fprintf(w, "\nTest project kept at %s\n", root)
	}
	return r, nil
}

// fullMigration migrates the project to poc with Force, then runs the
// health checks. A low health score is reported but does not fail.
func fullMigration(ctx context.Context, root string, now func() time.Time) (float64, error) {
	vars := templates.DefaultVars(filepath.Base(root), now())
	a, err := migrate.Analyze(root, phase.PoC, vars)
	if err != nil {
		return 0, err
	}
	m, err := migrate.Execute(ctx, a, migrate.NewPlan(a), migrate.Options{Force: true, Vars: vars, Now: now})
	if err != nil {
		return 0, err
	}
	if m.Status != state.StatusCompleted {
		return 0, Failed("migration ended as " + m.Status)
	}
	hr := health.Run(ctx, &health.Env{Root: root, Now: now()}, health.Checks())
	return hr.Overall.Score, nil
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func statusIcon(status string) string {
	switch status {
	case StatusPassed:
		return "✅"
	case StatusFailed:
		return "❌"
	default:
		return "⚠️"
	}
}

// Print writes the summary. Per-case detail is shown when verbose or when
// anything went wrong.
func Print(w io.Writer, r *Report, verbose bool) {
	fmt.Fprintf(w, "\n%s📊 Self-test summary%s\n", ux.Bold, ux.Reset)
	fmt.Fprintf(w, "  total:  %d\n", len(r.Cases))
	fmt.Fprintf(w, "  %spassed%s: %d\n", ux.Green, ux.Reset, r.Passed())
	fmt.Fprintf(w, "  %sfailed%s: %d\n", ux.Red, ux.Reset, r.Failed())
	fmt.Fprintf(w, "  %serrors%s: %d\n", ux.Yellow, ux.Reset, r.Errors())

	if verbose || r.Failed() > 0 || r.Errors() > 0 {
		fmt.Fprintln(w, "\n📋 Details:")
		for _, c := range r.Cases {
			fmt.Fprintf(w, "  %s %s (%s)\n", statusIcon(c.Status), c.Name, ms(c.Duration))
			if c.Error != "" {
				fmt.Fprintf(w, "    %s%s%s\n", ux.Dim, c.Error, ux.Reset)
			}
		}
	}

	if len(r.Timings) > 0 {
		fmt.Fprintln(w, "\n⏱  Performance:")
		for _, t := range r.Timings {
			icon := "✅"
			if !t.Passed() {
				icon = "❌"
			}
			fmt.Fprintf(w, "  %s %-10s %s (limit %s)\n", icon, t.Name, ms(t.Duration), ms(t.Limit))
		}
	}

	if fm := r.FullMigration; fm != nil {
		fmt.Fprintf(w, "\n🚀 Full migration: %s %s", statusIcon(fm.Status), fm.Status)
		if fm.Status == StatusPassed {
			fmt.Fprintf(w, " (health %s%.0f%%%s)", ux.ScoreColor(r.HealthScore), r.HealthScore, ux.Reset)
		} else if fm.Error != "" {
			fmt.Fprintf(w, ": %s", fm.Error)
		}
		fmt.Fprintln(w)
	}

	if r.OK() {
		fmt.Fprintf(w, "\n🎯 %sAll migration features work.%s\n", ux.Green, ux.Reset)
	} else {
		fmt.Fprintf(w, "\n🎯 %sSome checks failed; see the details above.%s\n", ux.Red, ux.Reset)
	}
}
