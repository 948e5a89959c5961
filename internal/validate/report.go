package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

// Report file names, written to the project root.
const (
	JSONReport     = "migration-validation-report.json"
	MarkdownReport = "migration-validation-report.md"
)

var priorityIcons = map[string]string{
	LevelCritical:   "🚨",
	LevelHigh:       "⚠️",
	PrioritySuccess: "🎉",
	PriorityInfo:    "ℹ️",
}

func statusIcon(d Result) string {
	switch {
	case d.Passed:
		return "✅"
	case d.Level == LevelCritical:
		return "❌"
	}
	return "⚠️"
}

// PrintResult writes one rule outcome as it completes.
func PrintResult(w io.Writer, i, total int, d Result, detailed bool) {
	fmt.Fprintf(w, "[%d/%d] %s\n", i+1, total, d.Name)
	color := ux.Green
	if !d.Passed {
		color = ux.Yellow
		if d.Level == LevelCritical {
			color = ux.Red
		}
	}
	fmt.Fprintf(w, "  %s%s %s%s\n", color, statusIcon(d), d.Message, ux.Reset)
	if !d.Passed && d.AutoFix {
		fmt.Fprintf(w, "  %s🔧 fixable with --fix-auto%s\n", ux.Blue, ux.Reset)
	}
	if detailed && d.Details != "" {
		fmt.Fprintf(w, "  %s%s%s\n", ux.Dim, d.Details, ux.Reset)
	}
}

// PrintConsole writes the summary, recommendations and next steps.
func PrintConsole(w io.Writer, r *Report) {
	fmt.Fprintf(w, "\n%s📊 Validation summary%s\n", ux.Bold+ux.Blue, ux.Reset)
	fmt.Fprintf(w, "  total:        %d\n", r.Summary.Total)
	fmt.Fprintf(w, "  %spassed:       %d%s\n", ux.Green, r.Summary.Passed, ux.Reset)
	fmt.Fprintf(w, "  %sfailed:       %d%s\n", ux.Red, r.Summary.Failed, ux.Reset)
	fmt.Fprintf(w, "  %swarnings:     %d%s\n", ux.Yellow, r.Summary.Warnings, ux.Reset)
	fmt.Fprintf(w, "  %sauto-fixable: %d%s\n", ux.Blue, r.Summary.AutoFixable, ux.Reset)

	if len(r.Recommendations) > 0 {
		fmt.Fprintf(w, "\n%s💡 Recommendations%s\n", ux.Yellow, ux.Reset)
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "\n  %s %s\n", priorityIcons[rec.Priority], rec.Message)
			for _, a := range rec.Actions {
				fmt.Fprintf(w, "     - %s\n", a)
			}
		}
	}

	fmt.Fprintf(w, "\n%s📖 Next steps%s\n", ux.Blue, ux.Reset)
	if r.CriticalFailures() > 0 {
		fmt.Fprintln(w, "  1. Fix the critical problems above")
		fmt.Fprintln(w, "  2. Run aiflow validate again")
		return
	}
	fmt.Fprintln(w, "  1. Start the migration: aiflow migrate")
	fmt.Fprintln(w, "  2. Read the migration guide: aiflow docs migration")
}

// Markdown renders the report as a Markdown document.
func Markdown(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Migration validation report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(&b, "Project: %s\n\n", r.Project)
	b.WriteString("## Summary\n\n| Item | Count |\n|------|-------|\n")
	fmt.Fprintf(&b, "| Total | %d |\n| Passed | %d |\n| Failed | %d |\n| Warnings | %d |\n| Auto-fixable | %d |\n\n",
		r.Summary.Total, r.Summary.Passed, r.Summary.Failed, r.Summary.Warnings, r.Summary.AutoFixable)

	b.WriteString("## Results\n\n")
	for _, d := range r.Details {
		fmt.Fprintf(&b, "### %s %s\n\n", statusIcon(d), d.Name)
		fmt.Fprintf(&b, "- **Level**: %s\n- **Result**: %s\n", d.Level, d.Message)
		if d.Details != "" {
			fmt.Fprintf(&b, "- **Details**: %s\n", d.Details)
		}
		if d.AutoFix {
			b.WriteString("- **Auto-fix**: available\n")
		}
		b.WriteString("\n")
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "### %s %s\n\n", priorityIcons[rec.Priority], rec.Message)
			for _, a := range rec.Actions {
				fmt.Fprintf(&b, "- %s\n", a)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Export writes the report in format json or md and returns the path.
func Export(root string, r *Report, format string) (string, error) {
	switch format {
	case "json":
		path := filepath.Join(root, JSONReport)
		return path, state.WriteJSON(path, r)
	case "md":
		path := filepath.Join(root, MarkdownReport)
		return path, os.WriteFile(path, []byte(Markdown(r)), 0644)
	}
	return "", fmt.Errorf("unknown export format %q (want json, md or console)", format)
}
