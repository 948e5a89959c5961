package aicontext

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/state"
)

const NextPhaseContext = "next-phase-context.md"

type phaseTemplate struct {
	title string
	body  string
}

var nextTemplates = map[phase.Phase]phaseTemplate{
	phase.PoC: {
		title: "🧪 PoC phase kickoff",
		body: `# PoC phase

## 🎯 Carried over from the previous phase

### Key decisions
{{key_decisions}}

### Constraints
{{critical_constraints}}

### Learned patterns
{{learned_patterns}}

## 📋 What the PoC must verify
{{poc_verification_items}}

## 🏗️ Verification approach
- [ ] Validate the base architecture
- [ ] Confirm the main features are feasible
- [ ] Take first performance measurements
- [ ] Confirm the security requirements can be met

## 🔄 Context handoff checklist
- [ ] Understand the previous phase's decisions
- [ ] Know the constraints
- [ ] Recognise the learned patterns
- [ ] Agree on what the PoC is responsible for

## 📝 Update on completion
- [ ] ` + "`docs/ARCHITECTURE.md`" + `
- [ ] Record the PoC results
- [ ] Summarise recommendations for the next phase
`,
	},
	phase.Implementation: {
		title: "⚙️ Implementation phase kickoff",
		body: `# Implementation phase

## 🎯 Carried over from the previous phase

### Technical verification results
{{technical_verification_results}}

### Recommended architecture
{{recommended_architecture}}

### Learned patterns
{{learned_patterns}}

## 🏗️ Implementation plan
{{implementation_plan}}

## 📋 Task breakdown
- [ ] Foundation components
- [ ] Main features
- [ ] Integration tests
- [ ] Documentation

## 🔄 Context handoff checklist
- [ ] Understand the PoC results
- [ ] Know the recommended architecture
- [ ] Recognise the technical constraints
- [ ] Confirm the quality bar

## 📝 Update on completion
- [ ] Summarise what was implemented
- [ ] List the review focus areas
- [ ] Clarify what testing should cover
`,
	},
	phase.Review: {
		title: "🔍 Review phase kickoff",
		body: `# Review phase

## 🎯 Carried over from the previous phase

### Implementation summary
{{implementation_summary}}

### Review focus areas
{{review_focus_areas}}

### Quality metrics
{{quality_metrics}}

## 📋 Review items
- [ ] Code quality
- [ ] Architectural consistency
- [ ] Security requirements
- [ ] Performance requirements
- [ ] Test coverage

## 🔄 Context handoff checklist
- [ ] Understand what was implemented
- [ ] Know the focus areas
- [ ] Confirm the quality bar
- [ ] Agree on what the review is responsible for

## 📝 Update on completion
- [ ] Summarise the review results
- [ ] Record the requested changes
- [ ] Hand the test focus areas to testing
`,
	},
	phase.Testing: {
		title: "🚀 Testing and deployment phase kickoff",
		body: `# Testing and deployment phase

## 🎯 Carried over from the previous phase

### Review results
{{review_results}}

### Fixed issues
{{fixed_issues}}

### Test focus areas
{{test_focus_areas}}

## 📋 AI-assisted test plan
- [ ] **Test cases**: generate cases from the requirements
- [ ] **Test data**: generate varied data sets
- [ ] **Test code**: draft tests with AI assistance
- [ ] **Analysis**: analyse the results automatically
- [ ] **Exploratory testing**: look for unknown problems with AI help

## 🔄 Context handoff checklist
- [ ] Understand the review results
- [ ] Know what was fixed
- [ ] Recognise the test focus areas
- [ ] Confirm the quality bar

## 📝 Update on completion
- [ ] Test report
- [ ] Deployment record
- [ ] Project retrospective
- [ ] Improvements for next time
`,
	},
}

var architectureRe = regexp.MustCompile(`(?i)技術|アーキテクチャ|architecture|technical|technology|stack`)

// NextContext is the generated kickoff document for the following phase.
type NextContext struct {
	From    phase.Phase
	Phase   phase.Phase
	Title   string
	Content string
}

// Markdown is the full document written to disk.
func (n *NextContext) Markdown() string {
	return "# " + n.Title + "\n\n" + n.Content
}

// GenerateNext loads the context document of current and fills the next
// phase's kickoff template. It returns nil when current is the last
// bridge phase.
func GenerateNext(dir string, current phase.Phase, repository string) (*NextContext, error) {
	next, ok := NextBridge(current)
	if !ok {
		return nil, nil
	}
	tmpl, ok := nextTemplates[next]
	if !ok {
		return nil, fmt.Errorf("no kickoff template for the %s phase", next)
	}
	doc, err := Load(Path(dir, current))
	if err != nil {
		return nil, err
	}

	r := strings.NewReplacer(
		"{{key_decisions}}", formatDecisions(doc.KeyDecisions),
		"{{critical_constraints}}", formatConstraints(doc.CriticalConstraints),
		"{{learned_patterns}}", formatPatterns(doc.LearnedPatterns),
		"{{poc_verification_items}}", formatFocus(doc.NextPhaseFocus, "- Confirm the core features are feasible\n- Validate the technology stack"),
		"{{technical_verification_results}}", formatArtifacts(doc.TechnicalArtifacts),
		"{{recommended_architecture}}", formatArchitecture(doc.KeyDecisions),
		"{{implementation_plan}}", formatFocus(doc.NextPhaseFocus, "- The implementation plan needs detail"),
		"{{implementation_summary}}", "- See the previous phase's context for details\n- Main components and features\n- Notable implementation choices",
		"{{review_focus_areas}}", formatFocus(doc.NextPhaseFocus, "- Code quality\n- Architectural consistency\n- Security requirements"),
		"{{quality_metrics}}", formatMetrics(doc.QualityMetrics),
		"{{review_results}}", "- See the previous phase's context for details\n- Findings and how they were addressed\n- Quality checks",
		"{{fixed_issues}}", "- See the previous phase's context for details\n- Main fixes\n- Remaining issues, if any",
		"{{test_focus_areas}}", formatFocus(doc.NextPhaseFocus, "- Functional tests\n- Performance tests\n- Security tests"),
	)
	content := r.Replace(tmpl.body)
	content += "\n\n## 🤖 AI handoff prompt\n\n```text\n" + aiHandoff(next, repository, doc) + "\n```\n"

	return &NextContext{From: current, Phase: next, Title: tmpl.title, Content: content}, nil
}

// WriteNext writes n to temp/next-phase-context.md under root.
func WriteNext(root string, n *NextContext) (string, error) {
	path := filepath.Join(root, TempDir, NextPhaseContext)
	if err := state.WriteFileAtomic(path, []byte(n.Markdown()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func aiHandoff(next phase.Phase, repository string, doc *Document) string {
	if repository == "" {
		repository = "this project"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are the AI responsible for the %s phase of %s.\n\n", next.Title(), repository)
	b.WriteString("The previous phase decided and learned the following:\n\n")
	fmt.Fprintf(&b, "## Key decisions\n%s\n\n", formatDecisions(doc.KeyDecisions))
	fmt.Fprintf(&b, "## Constraints\n%s\n\n", formatConstraints(doc.CriticalConstraints))
	fmt.Fprintf(&b, "## Learned patterns\n%s\n\n", formatPatterns(doc.LearnedPatterns))
	b.WriteString("## Your responsibilities in this phase\n")
	for _, r := range next.Responsibilities() {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	fmt.Fprintf(&b, "\nStart the %s phase with this context in mind.\nAsk if anything is unclear.", next.Title())
	return b.String()
}

func formatDecisions(ds []Decision) string {
	if len(ds) == 0 {
		return "- No decisions recorded"
	}
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = fmt.Sprintf("- **%s**\n  - Reasoning: %s\n  - Impact: %s", d.Decision, d.Reasoning, d.Impact)
	}
	return strings.Join(lines, "\n")
}

func formatConstraints(cs []Constraint) string {
	if len(cs) == 0 {
		return "- No constraints recorded"
	}
	lines := make([]string, len(cs))
	for i, c := range cs {
		lines[i] = fmt.Sprintf("- **%s**: %s", c.Type, c.Description)
	}
	return strings.Join(lines, "\n")
}

func formatPatterns(ps []Pattern) string {
	if len(ps) == 0 {
		return "- No learned patterns recorded"
	}
	lines := make([]string, len(ps))
	for i, p := range ps {
		lines[i] = fmt.Sprintf("- %s\n  - Evidence: %s", p.Pattern, p.Evidence)
	}
	return strings.Join(lines, "\n")
}

func formatFocus(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return "- " + strings.Join(items, "\n- ")
}

func formatArtifacts(as []Artifact) string {
	if len(as) == 0 {
		return "- No technical verification results recorded"
	}
	lines := make([]string, len(as))
	for i, a := range as {
		lines[i] = fmt.Sprintf("- **%s**: %s", a.Type, a.Content)
	}
	return strings.Join(lines, "\n")
}

func formatArchitecture(ds []Decision) string {
	var lines []string
	for _, d := range ds {
		if architectureRe.MatchString(d.Decision) {
			lines = append(lines, fmt.Sprintf("- %s: %s", d.Decision, d.Reasoning))
		}
	}
	if len(lines) == 0 {
		return "- No architecture recommendations recorded"
	}
	return strings.Join(lines, "\n")
}

// formatMetrics renders metric values of any YAML scalar type; null
// values show as "pending".
func formatMetrics(m map[string]any) string {
	if len(m) == 0 {
		return "- No quality metrics recorded"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		v := "pending"
		if m[k] != nil {
			v = cast.ToString(m[k])
		}
		lines[i] = fmt.Sprintf("- **%s**: %s", k, v)
	}
	return strings.Join(lines, "\n")
}
