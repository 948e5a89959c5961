package aicontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/prompt"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

// ErrNoPrevious is returned when a phase has no earlier bridge phase to
// hand context from.
var ErrNoPrevious = errors.New("no previous phase to hand off from")

// DefaultTools is the suggested answer for the AI tools question.
const DefaultTools = "GitHub Copilot, Claude"

// Interview asks for the contents of a phase's context document. Each
// repeated group ends on a blank first answer.
func Interview(ctx context.Context, p *prompt.Prompter, ph phase.Phase, now time.Time) (*Document, error) {
	doc := &Document{
		Phase:          string(ph),
		CompletionDate: now.Format("2006-01-02"),
		QualityMetrics: map[string]any{},
	}
	for _, k := range PendingMetrics {
		doc.QualityMetrics[k] = nil
	}

	tools, err := p.AskDefault(ctx, "AI tools used (comma separated)", DefaultTools, nil)
	if err != nil {
		return nil, err
	}
	doc.AIToolsUsed = prompt.SplitList(tools)

	for {
		d, err := p.Ask(ctx, "Key decision (blank to finish)")
		if err != nil {
			return nil, err
		}
		if d == "" {
			break
		}
		reasoning, err := p.Ask(ctx, "  reasoning")
		if err != nil {
			return nil, err
		}
		impact, err := p.Ask(ctx, "  impact")
		if err != nil {
			return nil, err
		}
		doc.KeyDecisions = append(doc.KeyDecisions, Decision{Decision: d, Reasoning: reasoning, Impact: impact})
	}

	for {
		typ, err := p.Ask(ctx, "Constraint type (technical, business, ...; blank to finish)")
		if err != nil {
			return nil, err
		}
		if typ == "" {
			break
		}
		desc, err := p.Ask(ctx, "  description")
		if err != nil {
			return nil, err
		}
		doc.CriticalConstraints = append(doc.CriticalConstraints, Constraint{Type: typ, Description: desc})
	}

	for {
		pat, err := p.Ask(ctx, "Learned pattern (blank to finish)")
		if err != nil {
			return nil, err
		}
		if pat == "" {
			break
		}
		evidence, err := p.Ask(ctx, "  evidence")
		if err != nil {
			return nil, err
		}
		doc.LearnedPatterns = append(doc.LearnedPatterns, Pattern{Pattern: pat, Evidence: evidence})
	}

	for {
		item, err := p.Ask(ctx, "Next phase focus (blank to finish)")
		if err != nil {
			return nil, err
		}
		if item == "" {
			break
		}
		doc.NextPhaseFocus = append(doc.NextPhaseFocus, item)
	}
	return doc, nil
}

// Complete writes doc as the context document for its phase and returns
// the path written.
func Complete(dir string, doc *Document) (string, error) {
	ph, err := phase.Parse(doc.Phase)
	if err != nil {
		return "", err
	}
	path := Path(dir, ph)
	if err := doc.Save(path); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// NextBridge returns the bridge phase after p.
func NextBridge(p phase.Phase) (phase.Phase, bool) {
	for i, b := range phase.Bridge {
		if b == p && i+1 < len(phase.Bridge) {
			return phase.Bridge[i+1], true
		}
	}
	return "", false
}

// PreviousBridge returns the bridge phase before p.
func PreviousBridge(p phase.Phase) (phase.Phase, bool) {
	for i, b := range phase.Bridge {
		if b == p && i > 0 {
			return phase.Bridge[i-1], true
		}
	}
	return "", false
}

// HandoffPrompt builds the prompt that starts next with the previous
// phase's context document embedded verbatim.
func HandoffPrompt(prev, next phase.Phase, contextYAML string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s phase: AI handoff\n\n", next.Emoji(), next.Title())
	fmt.Fprintf(&b, "You are the AI assistant for the %s phase. The %s phase has finished and left the context below.\n\n",
		next.Title(), prev.Title())
	fmt.Fprintf(&b, "## Context from the %s phase\n\n```yaml\n%s\n```\n\n", prev.Title(), strings.TrimRight(contextYAML, "\n"))
	fmt.Fprintf(&b, "## Your responsibilities in the %s phase\n\n", next.Title())
	for _, r := range next.Responsibilities() {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("\n## Before you start\n\n")
	for _, item := range []string{
		"Read every key decision and the reasoning behind it",
		"Keep the critical constraints in view",
		"Reuse the learned patterns",
		"Work through the next phase focus items",
	} {
		fmt.Fprintf(&b, "- [ ] %s\n", item)
	}
	fmt.Fprintf(&b, "\nStart the %s phase with this context in mind and ask about anything that is unclear.\n", next.Title())
	return b.String()
}

// Start writes the handoff prompt for next and returns its path.
func Start(dir string, next phase.Phase) (string, error) {
	prev, ok := PreviousBridge(next)
	if !ok {
		return "", fmt.Errorf("%s: %w", next, ErrNoPrevious)
	}
	data, err := os.ReadFile(Path(dir, prev))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("no context for the %s phase; run aiflow context complete %s first: %w", prev, prev, err)
		}
		return "", err
	}
	path := HandoffPath(dir, next)
	if err := state.WriteFileAtomic(path, []byte(HandoffPrompt(prev, next, string(data))), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// FileInfo describes one YAML file in the context directory.
type FileInfo struct {
	Name  string
	Lines int
}

// ListFiles lists the .yml files in dir, sorted by name. A missing
// directory yields no files.
func ListFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []FileInfo
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, FileInfo{Name: e.Name(), Lines: countLines(string(data))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Split(strings.TrimRight(s, "\n"), "\n"))
}

// Checklist is the self-review asked by aiflow context check.
var Checklist = []string{
	"Key decisions record their reasoning",
	"Constraints are specific and classified",
	"Learned patterns cite evidence",
	"Next phase focus items are concrete",
	"AI tools used are listed",
	"The handoff prompt has been generated and reviewed",
}

// ChecklistVerdict scores a checklist as a percentage.
func ChecklistVerdict(checked, total int) (float64, string) {
	if total == 0 {
		return 0, "poor"
	}
	score := float64(checked) / float64(total) * 100
	switch {
	case score >= 80:
		return score, "good"
	case score >= 60:
		return score, "fair"
	default:
		return score, "poor"
	}
}

// Check prints the context files and runs the checklist interactively.
func Check(ctx context.Context, dir string, p *prompt.Prompter, w io.Writer) (float64, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(w, "%sContext files in %s%s\n", ux.Bold, dir, ux.Reset)
	if len(files) == 0 {
		fmt.Fprintf(w, "  %s(none)%s\n", ux.Dim, ux.Reset)
	}
	for _, f := range files {
		fmt.Fprintf(w, "  %-40s %4d lines\n", f.Name, f.Lines)
	}
	fmt.Fprintln(w)

	checked := 0
	for _, item := range Checklist {
		ok, err := p.Confirm(ctx, item, false)
		if err != nil {
			return 0, err
		}
		if ok {
			checked++
		}
	}
	score, verdict := ChecklistVerdict(checked, len(Checklist))
	color := ux.ScoreColor(score)
	fmt.Fprintf(w, "\nChecklist: %s%.0f%% (%s)%s\n", color, score, verdict, ux.Reset)
	return score, nil
}
