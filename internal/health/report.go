package health

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jorge-barreto/aiflow/internal/dispatch"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

// Overall aggregates every check.
type Overall struct {
	Passed int     `json:"passed"`
	Total  int     `json:"total"`
	Score  float64 `json:"score"`
}

// Category aggregates the checks sharing a category.
type Category struct {
	Name   string  `json:"name"`
	Passed int     `json:"passed"`
	Total  int     `json:"total"`
	Score  float64 `json:"score"`
}

// Report is a full health run.
type Report struct {
	Timestamp       time.Time  `json:"timestamp"`
	Overall         Overall    `json:"overall"`
	Categories      []Category `json:"categories"`
	Checks          []Result   `json:"checks"`
	Recommendations []string   `json:"recommendations"`
}

// Healthy reports whether the overall score reaches PassingScore.
func (r *Report) Healthy() bool { return r.Overall.Score >= PassingScore }

// Run executes checks in order. A panicking check scores 0.
func Run(ctx context.Context, env *Env, checks []Check) *Report {
	r := &Report{Timestamp: env.Now, Recommendations: []string{}}
	byName := map[string]int{}
	for _, c := range checks {
		res := runCheck(ctx, env, c)
		res.ID, res.Name, res.Category = c.ID, c.Name, c.Category
		r.Checks = append(r.Checks, res)

		r.Overall.Total++
		r.Overall.Score += res.Score
		i, ok := byName[c.Category]
		if !ok {
			i = len(r.Categories)
			byName[c.Category] = i
			r.Categories = append(r.Categories, Category{Name: c.Category})
		}
		cat := &r.Categories[i]
		cat.Total++
		cat.Score += res.Score
		if res.Passed {
			r.Overall.Passed++
			cat.Passed++
		}
		r.Recommendations = append(r.Recommendations, res.Recommendations...)
	}
	if r.Overall.Total > 0 {
		r.Overall.Score /= float64(r.Overall.Total)
	}
	for i := range r.Categories {
		r.Categories[i].Score /= float64(r.Categories[i].Total)
	}
	return r
}

func runCheck(ctx context.Context, env *Env, c Check) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{Error: fmt.Sprint(p)}
		}
	}()
	return c.Run(ctx, env)
}

// Verdict is the one-line judgement for a score.
func Verdict(score float64) string {
	switch {
	case score >= 90:
		return "🎉 Excellent: the migration succeeded and everything works"
	case score >= 75:
		return "✅ Good: the migration succeeded and the basics work"
	case score >= PassingScore:
		return "⚠️ Attention: there are some problems, see the recommendations"
	}
	return "❌ Action needed: there are serious problems, review the migration"
}

// PrintResult writes a single check line as the run progresses.
func PrintResult(w io.Writer, res Result, detailed bool) {
	if res.Passed {
		fmt.Fprintf(w, "%s✅ %s: passed (%.1f%%)%s\n", ux.Green, res.Name, res.Score, ux.Reset)
	} else {
		fmt.Fprintf(w, "%s❌ %s: failed (%.1f%%)%s\n", ux.Red, res.Name, res.Score, ux.Reset)
	}
	if !detailed {
		return
	}
	if res.Details != "" {
		fmt.Fprintf(w, "   %s\n", res.Details)
	}
	for _, it := range res.Items {
		fmt.Fprintf(w, "   - %s: %s\n", it.Name, it.Status)
	}
	for _, f := range res.Missing {
		fmt.Fprintf(w, "   - missing %s\n", f)
	}
	for _, f := range res.Corrupted {
		fmt.Fprintf(w, "   - corrupted %s\n", f)
	}
	if res.Error != "" {
		fmt.Fprintf(w, "   error: %s\n", res.Error)
	}
}

// PrintConsole writes the summary.
func PrintConsole(w io.Writer, r *Report) {
	fmt.Fprintf(w, "\n%s📊 Health check summary%s\n", ux.Blue, ux.Reset)
	fmt.Fprintf(w, "\nOverall score: %s%.1f%%%s\n", ux.ScoreColor(r.Overall.Score), r.Overall.Score, ux.Reset)
	fmt.Fprintf(w, "Checks passed: %d/%d\n", r.Overall.Passed, r.Overall.Total)

	fmt.Fprintln(w, "\n📋 By category:")
	for _, c := range r.Categories {
		fmt.Fprintf(w, "  %s: %s%.1f%%%s (%d/%d)\n", c.Name, ux.ScoreColor(c.Score), c.Score, ux.Reset, c.Passed, c.Total)
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintf(w, "\n%s💡 Recommendations:%s\n", ux.Yellow, ux.Reset)
		for i, rec := range r.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
		}
	}
	fmt.Fprintf(w, "\n🎯 %s\n", Verdict(r.Overall.Score))
}

// Markdown renders the report.
func Markdown(r *Report) string {
	var b strings.Builder
	b.WriteString("# Migration health report\n\n")
	fmt.Fprintf(&b, "**Run at**: %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Overall score**: %.1f%%\n", r.Overall.Score)
	fmt.Fprintf(&b, "**Checks passed**: %d/%d\n\n", r.Overall.Passed, r.Overall.Total)

	b.WriteString("## By category\n\n")
	for _, c := range r.Categories {
		fmt.Fprintf(&b, "- **%s**: %.1f%% (%d/%d)\n", c.Name, c.Score, c.Passed, c.Total)
	}

	b.WriteString("\n## Checks\n")
	for _, c := range r.Checks {
		status := "✅ passed"
		if !c.Passed {
			status = "❌ failed"
		}
		fmt.Fprintf(&b, "\n### %s\n- **Status**: %s\n- **Score**: %.1f%%\n- **Category**: %s\n", c.Name, status, c.Score, c.Category)
		if c.Error != "" {
			fmt.Fprintf(&b, "- **Error**: %s\n", c.Error)
		}
	}

	b.WriteString("\n## Recommendations\n\n")
	if len(r.Recommendations) == 0 {
		b.WriteString("No recommendations.\n")
	}
	for i, rec := range r.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}
	b.WriteString("\n---\n*Generated by aiflow health*\n")
	return b.String()
}

// MissingFiles lists the required files the integrity check found missing.
func (r *Report) MissingFiles() []string {
	for _, c := range r.Checks {
		if c.ID == "files-integrity" {
			return c.Missing
		}
	}
	return nil
}

// Fix re-installs missing required files from the embedded templates.
// Existing files are never touched.
func Fix(ctx context.Context, r *Report, env *dispatch.Environment) (*dispatch.Result, error) {
	missing := r.MissingFiles()
	if len(missing) == 0 {
		return &dispatch.Result{}, nil
	}
	env.Force = true
	return dispatch.Install(ctx, missing, env)
}
