package ux

import (
	"fmt"
	"io"

	"github.com/jorge-barreto/aiflow/internal/state"
)

var statusIcons = map[string]string{
	state.StatusInProgress: "🔄",
	state.StatusPaused:     "⏸️",
	state.StatusCompleted:  "✅",
	state.StatusFailed:     "❌",
	state.StatusScheduled:  "📅",
}

// RenderMigration prints the status display for a migration. A nil
// migration prints a short notice.
func RenderMigration(w io.Writer, m *state.Migration) {
	if m == nil {
		fmt.Fprintf(w, "%sNo migration in progress.%s\n", Yellow, Reset)
		return
	}

	fmt.Fprintf(w, "%sMigration:%s %s\n", Bold, Reset, m.ID)
	fmt.Fprintf(w, "%sStatus:%s    %s %s\n", Bold, Reset, statusIcons[m.Status], m.Status)
	fmt.Fprintf(w, "%sPhase:%s     %s → %s\n", Bold, Reset, m.CurrentPhase, m.TargetPhase)
	fmt.Fprintf(w, "%sProgress:%s  %s %d/%d (%s)\n", Bold, Reset,
		Bar(m.Progress(), 20), len(m.CompletedSteps), m.TotalSteps, Percent(m.Progress()))
	fmt.Fprintf(w, "%sStarted:%s   %s\n", Bold, Reset, m.StartTime.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "%sUpdated:%s   %s\n", Bold, Reset, m.LastUpdate.Local().Format("2006-01-02 15:04:05"))
	if m.PausedAt != nil {
		fmt.Fprintf(w, "%sPaused:%s    %s\n", Bold, Reset, m.PausedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if m.BackupPath != "" {
		fmt.Fprintf(w, "%sBackup:%s    %s\n", Bold, Reset, m.BackupPath)
	}

	if len(m.CompletedSteps) > 0 {
		fmt.Fprintf(w, "\n%sCompleted:%s\n", Bold, Reset)
		for i, c := range m.CompletedSteps {
			dur := ""
			if d := m.StepDuration(c.ID); d != "" {
				dur = "(" + d + ")"
			}
			fmt.Fprintf(w, "  %s%d%s  %-24s %sdone%s  %s\n", Dim, i+1, Reset, c.Name, Green, Reset, dur)
		}
	}

	if rest := m.Remaining(); len(rest) > 0 {
		fmt.Fprintf(w, "\n%sRemaining:%s\n", Bold, Reset)
		for i, s := range rest {
			marker := "  "
			if i == 0 {
				marker = Yellow + "→" + Reset + " "
			}
			fmt.Fprintf(w, "  %s%s%d%s  %-24s %s(%s)%s\n", marker, Dim, i+1, Reset, s.Name, Dim, s.Priority, Reset)
		}
	}

	if len(m.Errors) > 0 {
		fmt.Fprintf(w, "\n%sErrors:%s\n", Bold+Red, Reset)
		for _, e := range m.Errors {
			fmt.Fprintf(w, "  %s  %s: %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Step, e.Message)
		}
	}
	fmt.Fprintln(w)
}
