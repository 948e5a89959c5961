package metrics

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

// Dir is where reports are written, relative to the project root.
const Dir = "docs/metrics"

const notMeasured = "not measured"

func formatDays(d float64) string {
	if d == 0 {
		return notMeasured
	}
	return strconv.FormatFloat(math.Round(d*10)/10, 'f', -1, 64) + " days"
}

// Suggestions splits the measured areas into strengths and improvement
// opportunities. Sections without data are not judged.
func (r *Report) Suggestions() (strengths, improvements []string) {
	if req := r.Phases[phase.Requirements]; req != nil && req.Completed > 0 {
		switch {
		case req.AvgDays <= 3:
			strengths = append(strengths, "Requirements phase turns issues around quickly")
		case req.AvgDays > 5:
			improvements = append(improvements, "Look for ways to shorten the requirements phase")
		}
	}
	if r.AI != nil && r.AI.TotalCommits > 0 {
		switch rate := r.AI.Rate(); {
		case rate >= 30:
			strengths = append(strengths, "High AI usage is contributing to productivity")
		case rate < 15:
			improvements = append(improvements, "There is room to use AI assistance more")
		}
	}
	if r.Quality != nil && r.Quality.AvgFixDays > 0 {
		switch {
		case r.Quality.AvgFixDays <= 2:
			strengths = append(strengths, "Bugs are fixed quickly")
		case r.Quality.AvgFixDays > 5:
			improvements = append(improvements, "The bug fixing process needs to speed up")
		}
	}
	return strengths, improvements
}

// ActionItems lists the follow-ups for the team.
func (r *Report) ActionItems() []string {
	actions := []string{
		"Review these metrics weekly",
		"Hold a team retrospective",
	}
	if r.AI == nil || r.AI.ContextFiles < 3 {
		actions = append(actions, "Encourage use of the AI context bridge")
	}
	if r.AI == nil || r.AI.Rate() < 20 {
		actions = append(actions, "Run an AI tooling workshop")
	}
	if r.Quality != nil && r.Quality.OpenBugs > 5 {
		actions = append(actions, "Re-prioritise the open bugs")
	}
	return actions
}

// Markdown renders the report document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Workflow metrics report\n\n")
	fmt.Fprintf(&b, "**Period**: %s to %s\n", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	fmt.Fprintf(&b, "**Generated**: %s\n\n", r.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"))

	b.WriteString("## 📊 Summary\n\n### Phase performance\n\n")
	b.WriteString("| Phase | Issues | Completed | Completion | Avg duration |\n")
	b.WriteString("|-------|--------|-----------|------------|--------------|\n")
	for _, p := range phase.Bridge {
		s := r.Phases[p]
		if s == nil {
			s = &PhaseStats{}
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d%% | %s |\n", p.Title(), s.Count, s.Completed, percentage(s.Completed, s.Count), formatDays(s.AvgDays))
	}

	pr := r.PRs
	if pr == nil {
		pr = &PRStats{}
	}
	b.WriteString("\n### Pull request flow\n\n")
	fmt.Fprintf(&b, "- **Pull requests**: %d\n", pr.Total)
	fmt.Fprintf(&b, "- **Merge rate**: %d%%\n", percentage(pr.Merged, pr.Total))
	fmt.Fprintf(&b, "- **Average time to merge**: %s\n", formatDays(pr.AvgReviewDays))
	fmt.Fprintf(&b, "- **Average lines changed**: %s\n", humanize.Comma(int64(math.Round(pr.AvgLinesChanged))))
	fmt.Fprintf(&b, "- **Average commits**: %d\n", int(math.Round(pr.AvgCommits)))
	fmt.Fprintf(&b, "- **Reviews per pull request**: %.1f\n", pr.ReviewsPerPR)

	ai := r.AI
	if ai == nil {
		ai = &AIUsage{}
	}
	b.WriteString("\n### AI usage\n\n")
	fmt.Fprintf(&b, "- **AI-assisted commits**: %d%%\n", ai.Rate())
	fmt.Fprintf(&b, "- **Context documents**: %d\n\n", ai.ContextFiles)
	b.WriteString("#### Mentions by tool\n\n")
	for _, t := range Tools {
		fmt.Fprintf(&b, "- **%s**: %d\n", t, ai.ToolMentions[t])
	}

	q := r.Quality
	if q == nil {
		q = &Quality{}
	}
	b.WriteString("\n### Quality\n\n")
	fmt.Fprintf(&b, "- **Bugs**: %d\n", q.TotalBugs)
	fmt.Fprintf(&b, "- **Open bugs**: %d\n", q.OpenBugs)
	fmt.Fprintf(&b, "- **Fixed bugs**: %d\n", q.ClosedBugs)
	fmt.Fprintf(&b, "- **Average fix time**: %s\n", formatDays(q.AvgFixDays))

	strengths, improvements := r.Suggestions()
	b.WriteString("\n## 📈 Suggestions\n\n### Strengths\n\n")
	writeList(&b, strengths, "- ✅ ")
	b.WriteString("\n### Opportunities\n\n")
	writeList(&b, improvements, "- 🔄 ")
	b.WriteString("\n## 🎯 Next actions\n\n")
	writeList(&b, r.ActionItems(), "- [ ] ")

	if len(r.Errors) > 0 {
		b.WriteString("\n## ⚠️ Collection errors\n\n")
		writeList(&b, r.Errors, "- ")
	}
	b.WriteString("\n---\n*Generated by aiflow metrics.*\n")
	return b.String()
}

func writeList(b *strings.Builder, items []string, prefix string) {
	if len(items) == 0 {
		b.WriteString("- none\n")
		return
	}
	for _, it := range items {
		b.WriteString(prefix + it + "\n")
	}
}

// Save writes the Markdown report under root/docs/metrics and returns the
// path.
func Save(root string, r *Report) (string, error) {
	path := filepath.Join(root, Dir, "workflow-metrics-"+r.GeneratedAt.Format("2006-01-02")+".md")
	if err := state.WriteFileAtomic(path, []byte(r.Markdown()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// PrintSummary writes a short console digest.
func PrintSummary(w io.Writer, r *Report) {
	fmt.Fprintf(w, "%sWorkflow metrics%s %s(%s to %s)%s\n", ux.Bold, ux.Reset, ux.Dim,
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), ux.Reset)
	if r.PRs != nil {
		fmt.Fprintf(w, "  pull requests: %d, merged %d%%\n", r.PRs.Total, percentage(r.PRs.Merged, r.PRs.Total))
	}
	if r.AI != nil {
		fmt.Fprintf(w, "  AI-assisted commits: %d%% of %d\n", r.AI.Rate(), r.AI.TotalCommits)
	}
	if r.Quality != nil {
		fmt.Fprintf(w, "  bugs: %d open, %d fixed\n", r.Quality.OpenBugs, r.Quality.ClosedBugs)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s⚠ %s%s\n", ux.Yellow, e, ux.Reset)
	}
}
