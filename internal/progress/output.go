package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/aiflow/internal/aicontext"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
)

// Formats lists the accepted --output values.
var Formats = []string{FormatConsole, FormatJSON, FormatYAML}

// Write renders d in the given format.
func Write(w io.Writer, d *Dashboard, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case FormatYAML:
		data, err := yaml.Marshal(d)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatConsole, "":
		Print(w, d)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (valid: console, json, yaml)", format)
	}
}

// Print writes the console view of d.
func Print(w io.Writer, d *Dashboard) {
	o := d.OverallProgress
	fmt.Fprintf(w, "\n%s📊 Project progress%s", ux.Bold, ux.Reset)
	if d.Repository != "" {
		fmt.Fprintf(w, " %s%s%s", ux.Dim, d.Repository, ux.Reset)
	}
	fmt.Fprintf(w, "\n\n🎯 Overall: %s %d%%\n", ux.Bar(float64(o.CompletionRate)/100, 20), o.CompletionRate)
	fmt.Fprintf(w, "   completed:   %d/%d\n", o.CompletedIssues, o.TotalIssues)
	fmt.Fprintf(w, "   in progress: %d\n", o.InProgressIssues)
	fmt.Fprintf(w, "   blocked:     %d (%d%%)\n", o.BlockedIssues, o.BlockRate)

	fmt.Fprintln(w, "\n📋 Phases:")
	for _, p := range phase.Bridge {
		pp := d.ProjectPhases[string(p)]
		if pp == nil {
			continue
		}
		r := pp.Rate()
		status := "⏸️"
		switch {
		case r == 100:
			status = "✅"
		case r > 0:
			status = "🔄"
		}
		fmt.Fprintf(w, "   %s %-15s %3d%% (%d/%d)\n", status, p, r, pp.Completed, pp.Total)
		if pp.Blocked > 0 {
			fmt.Fprintf(w, "      %s⚠ blocked: %d%s\n", ux.Yellow, pp.Blocked, ux.Reset)
		}
	}

	s := d.PullRequestStats
	fmt.Fprintln(w, "\n🔄 Pull requests:")
	fmt.Fprintf(w, "   total %d, merged %d, open %d, closed %d\n", s.Total, s.Merged, s.Open, s.Closed)

	if q := d.QualityMetrics; q != nil && q.OverallStats.PhasesCompleted > 0 {
		st := q.OverallStats
		fmt.Fprintln(w, "\n🤖 AI context quality:")
		fmt.Fprintf(w, "   average %s%d/100%s over %d phase(s), %d high quality, %d need improvement\n",
			ux.ScoreColor(float64(st.AverageScore)), st.AverageScore, ux.Reset,
			st.PhasesCompleted, st.HighQualityPhases, st.NeedsImprovementPhases)
	}

	if len(d.Bottlenecks) > 0 {
		fmt.Fprintln(w, "\n⚠️  Bottlenecks:")
		for _, b := range d.Bottlenecks {
			icon := "🟡"
			if b.Severity == SeverityHigh {
				icon = "🔴"
			}
			fmt.Fprintf(w, "   %s %s\n", icon, b.Description)
			for _, it := range b.Items {
				fmt.Fprintf(w, "      %s- %s%s\n", ux.Dim, it.Title, ux.Reset)
			}
		}
	}
	fmt.Fprintf(w, "\nUpdated %s\n", d.UpdatedAt)
}

// DashboardPath is progress-dashboard.yml inside the context directory.
func DashboardPath(contextDir string) string {
	return filepath.Join(contextDir, aicontext.DashboardFile)
}

// Save writes the dashboard and its dated history copy. It returns both
// paths.
func Save(contextDir string, d *Dashboard, now time.Time) (string, string, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return "", "", err
	}
	dash := DashboardPath(contextDir)
	if err := state.WriteFileAtomic(dash, data, 0644); err != nil {
		return "", "", err
	}
	hist := filepath.Join(contextDir, aicontext.HistoryDir, "progress-"+now.UTC().Format("2006-01-02")+".yml")
	if err := state.WriteFileAtomic(hist, data, 0644); err != nil {
		return dash, "", err
	}
	return dash, hist, nil
}

// Load reads the saved dashboard. A missing file returns nil, nil.
func Load(contextDir string) (*Dashboard, error) {
	data, err := os.ReadFile(DashboardPath(contextDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var d Dashboard
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("progress: %w", err)
	}
	return &d, nil
}
