package migrate

import (
	"fmt"
	"io"

	"github.com/jorge-barreto/aiflow/internal/ux"
)

var levelIcons = map[string]string{
	LevelCritical: "🚨",
	LevelHigh:     "❗",
	LevelWarning:  "⚠️",
	LevelInfo:     "ℹ️",
}

// PrintAnalysis writes the analysis and plan summary.
func PrintAnalysis(w io.Writer, a *Analysis, p *Plan) {
	yes := func(b bool) string {
		if b {
			return ux.Green + "✓" + ux.Reset
		}
		return ux.Red + "✗" + ux.Reset
	}
	fmt.Fprintf(w, "\n%s📊 Project analysis%s\n", ux.Bold, ux.Reset)
	fmt.Fprintf(w, "  phase:          %s %s\n", a.Phase.Title(), a.Phase.Emoji())
	fmt.Fprintf(w, "  git repository: %s\n", yes(a.GitRepo))
	fmt.Fprintf(w, "  package.json:   %s\n", yes(a.HasPackage))

	fmt.Fprintf(w, "\n%s📁 Files%s\n", ux.Bold, ux.Reset)
	for _, cs := range a.Categories {
		fmt.Fprintf(w, "  %-20s existing %d/%d, missing %d, conflicts %d\n",
			cs.Category.Name, len(cs.Existing), cs.Total(), len(cs.Missing), len(cs.Conflicts))
	}

	if len(a.Recommendations) > 0 {
		fmt.Fprintf(w, "\n%s💡 Recommendations%s\n", ux.Bold, ux.Reset)
		for _, r := range a.Recommendations {
			fmt.Fprintf(w, "  %s %s\n     %s\n", levelIcons[r.Level], r.Message, r.Action)
		}
	}

	if p != nil {
		PrintPlan(w, p)
	}
}

// PrintPlan writes the step list with time and risk estimates.
func PrintPlan(w io.Writer, p *Plan) {
	fmt.Fprintf(w, "\n%s📋 Migration plan%s\n", ux.Bold, ux.Reset)
	fmt.Fprintf(w, "  steps:          %d\n", len(p.Steps))
	fmt.Fprintf(w, "  estimated time: %s\n", p.EstimatedTime)
	fmt.Fprintf(w, "  risk:           %s\n", p.Risk)
	for i, s := range p.Steps {
		fmt.Fprintf(w, "  %d. %s", i+1, s.Name)
		if len(s.Files) > 0 {
			fmt.Fprintf(w, " %s(%d files)%s", ux.Dim, len(s.Files), ux.Reset)
		}
		fmt.Fprintln(w)
	}
	if p.BackupRequired {
		fmt.Fprintf(w, "\n  %sExisting files conflict with the templates; a backup is taken first.%s\n", ux.Yellow, ux.Reset)
	}
}

// PrintNextSteps writes the post-migration guide.
func PrintNextSteps(w io.Writer) {
	fmt.Fprintf(w, "\n%s📖 Next steps%s\n", ux.Yellow, ux.Reset)
	steps := []string{
		"Review the new files and commit them",
		"Record the current phase context: aiflow context complete",
		"Check progress: aiflow progress",
		"Allow GitHub Actions to write issues and pull requests (Settings → Actions)",
		"Configure Slack or Teams webhooks for aiflow notify",
	}
	for i, s := range steps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s)
	}
	fmt.Fprintf(w, "\n  Guides: docs/USAGE_AND_TESTING_GUIDE.md, docs/ADVANCED_FEATURES_GUIDE.md\n")
}
