package aicontext

import (
	"fmt"
	"io"
	"os"

	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

// PhaseStatus is the bridge state of one phase.
type PhaseStatus struct {
	Phase      phase.Phase `json:"phase"`
	HasContext bool        `json:"hasContext"`
	HasHandoff bool        `json:"hasHandoff"`
	Score      int         `json:"score,omitempty"`
	Grade      string      `json:"grade,omitempty"`
}

// BridgeMetrics summarises how far context has been carried through the
// bridge phases.
type BridgeMetrics struct {
	Phases       []PhaseStatus `json:"phases"`
	ContextRate  float64       `json:"contextRate"`
	Handoffs     int           `json:"handoffs"`
	AverageScore int           `json:"averageScore"`
	Evaluated    int           `json:"evaluated"`
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Metrics inspects dir for context documents, handoff prompts and the
// quality summary.
func Metrics(dir string) (*BridgeMetrics, error) {
	summary, err := LoadSummary(dir)
	if err != nil {
		return nil, err
	}
	m := &BridgeMetrics{AverageScore: summary.OverallStats.AverageScore, Evaluated: len(summary.Phases)}
	withContext := 0
	for _, p := range phase.Bridge {
		st := PhaseStatus{
			Phase:      p,
			HasContext: exists(Path(dir, p)),
			HasHandoff: exists(HandoffPath(dir, p)),
		}
		if q, ok := summary.Phases[string(p)]; ok {
			st.Score = q.LatestScore
			st.Grade = q.LatestGrade
		}
		if st.HasContext {
			withContext++
		}
		if st.HasHandoff {
			m.Handoffs++
		}
		m.Phases = append(m.Phases, st)
	}
	m.ContextRate = float64(withContext) / float64(len(phase.Bridge))
	return m, nil
}

func mark(ok bool) string {
	if ok {
		return ux.Green + "✓" + ux.Reset
	}
	return ux.Dim + "·" + ux.Reset
}

// Print renders m as a table.
func (m *BridgeMetrics) Print(w io.Writer) {
	fmt.Fprintf(w, "%sAI context bridge%s\n\n", ux.Bold, ux.Reset)
	fmt.Fprintf(w, "  %-16s %-8s %-8s %s\n", "PHASE", "CONTEXT", "HANDOFF", "QUALITY")
	for _, p := range m.Phases {
		quality := ux.Dim + "-" + ux.Reset
		if p.Grade != "" {
			quality = fmt.Sprintf("%s%d (%s)%s", ux.ScoreColor(float64(p.Score)), p.Score, p.Grade, ux.Reset)
		}
		fmt.Fprintf(w, "  %s %-13s %s        %s        %s\n", p.Phase.Emoji(), p.Phase, mark(p.HasContext), mark(p.HasHandoff), quality)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Context coverage: %s %s\n", ux.Bar(m.ContextRate, 20), ux.Percent(m.ContextRate))
	fmt.Fprintf(w, "  Handoff prompts:  %d\n", m.Handoffs)
	if m.Evaluated > 0 {
		fmt.Fprintf(w, "  Average quality:  %s%d/100%s over %d phase(s)\n",
			ux.ScoreColor(float64(m.AverageScore)), m.AverageScore, ux.Reset, m.Evaluated)
	} else {
		fmt.Fprintf(w, "  Average quality:  %snot evaluated; run aiflow context quality%s\n", ux.Dim, ux.Reset)
	}
}
