// Package phase defines the fixed project lifecycle phases shared by every
// aiflow command.
package phase

import (
	"fmt"
	"strings"
)

type Phase string

const (
	Discovery      Phase = "discovery"
	Requirements   Phase = "requirements"
	PoC            Phase = "poc"
	Implementation Phase = "implementation"
	Review         Phase = "review"
	Testing        Phase = "testing"
	Production     Phase = "production"
)

// All lists the phases in lifecycle order.
var All = []Phase{Discovery, Requirements, PoC, Implementation, Review, Testing, Production}

// Bridge lists the phases that hand context to one another.
var Bridge = []Phase{Requirements, PoC, Implementation, Review, Testing}

type info struct {
	title            string
	description      string
	emoji            string
	responsibilities []string
	nextSteps        []string
}

var infos = map[Phase]info{
	Discovery: {
		title:       "Discovery",
		description: "Project concept stage, before technology selection",
		emoji:       "✨",
		responsibilities: []string{
			"Clarify the problem and the people it affects",
			"Collect candidate approaches and open questions",
		},
		nextSteps: []string{
			"Initialize the project: aiflow setup",
			"Apply every template",
			"Start with a requirements issue",
		},
	},
	Requirements: {
		title:       "Requirements",
		description: "Requirements are being defined",
		emoji:       "📋",
		responsibilities: []string{
			"Turn goals into testable requirements",
			"Record constraints and acceptance criteria",
			"Flag risks that a PoC should retire",
		},
		nextSteps: []string{
			"Apply the PoC and later templates",
			"Move existing requirements into docs/PROJECT_CONTEXT.md",
			"Introduce the AI context bridge",
		},
	},
	PoC: {
		title:       "PoC",
		description: "Prototyping and technical verification",
		emoji:       "🧪",
		responsibilities: []string{
			"Verify technical feasibility",
			"Present and evaluate architecture options",
			"Surface the main technical risks early",
			"Support prototype design and implementation",
			"Provide the evidence for the go/no-go decision",
		},
		nextSteps: []string{
			"Apply the implementation and later templates",
			"Record PoC results in a structured form",
			"Update the architecture document",
		},
	},
	Implementation: {
		title:       "Implementation",
		description: "Main development work",
		emoji:       "⚡",
		responsibilities: []string{
			"Implement production quality code",
			"Refine the architecture design",
			"Keep to the coding standards",
			"Support test implementation",
			"Account for performance and security",
		},
		nextSteps: []string{
			"Strengthen the review process",
			"Introduce the AI context bridge",
			"Apply code quality tooling",
		},
	},
	Review: {
		title:       "Review",
		description: "Code review and quality checks",
		emoji:       "👀",
		responsibilities: []string{
			"Review code quality end to end",
			"Detect security vulnerabilities",
			"Suggest performance improvements",
			"Assess maintainability and extensibility",
			"Share good practice with the team",
		},
		nextSteps: []string{
			"Introduce test automation",
			"Configure the GitHub Actions workflows",
			"Apply the context quality evaluator",
		},
	},
	Testing: {
		title:       "Testing",
		description: "Testing and deployment preparation",
		emoji:       "🚀",
		responsibilities: []string{
			"Design and generate test cases",
			"Prepare test data",
			"Implement test automation",
			"Design performance tests",
			"Plan the deployment strategy",
		},
		nextSteps: []string{
			"Strengthen the CI/CD pipeline",
			"Evaluate deployment automation",
			"Prepare operational monitoring",
		},
	},
	Production: {
		title:       "Production",
		description: "Serving users in production",
		emoji:       "✨",
		responsibilities: []string{
			"Watch operational health and incidents",
			"Feed production learnings into the backlog",
		},
		nextSteps: []string{
			"Introduce a continuous improvement process",
			"Capture knowledge for the next development cycle",
			"Use the team learning support tooling",
		},
	},
}

// Parse validates a phase name.
func Parse(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := infos[p]; !ok {
		return "", fmt.Errorf("unknown phase %q (valid: %s)", s, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns all phase names in order.
func Names() []string {
	names := make([]string, len(All))
	for i, p := range All {
		names[i] = string(p)
	}
	return names
}

// Index returns the position of p in All, or -1.
func (p Phase) Index() int {
	for i, q := range All {
		if q == p {
			return i
		}
	}
	return -1
}

// Next returns the phase after p.
func (p Phase) Next() (Phase, bool) {
	i := p.Index()
	if i < 0 || i+1 >= len(All) {
		return "", false
	}
	return All[i+1], true
}

// Previous returns the phase before p.
func (p Phase) Previous() (Phase, bool) {
	i := p.Index()
	if i <= 0 {
		return "", false
	}
	return All[i-1], true
}

// Upto returns every phase from discovery through p inclusive.
func Upto(p Phase) []Phase {
	i := p.Index()
	if i < 0 {
		return nil
	}
	return append([]Phase(nil), All[:i+1]...)
}

func (p Phase) Title() string       { return infos[p].title }
func (p Phase) Description() string { return infos[p].description }
func (p Phase) Emoji() string {
	if e := infos[p].emoji; e != "" {
		return e
	}
	return "✨"
}

// Responsibilities lists what an assistant owns during the phase.
func (p Phase) Responsibilities() []string { return infos[p].responsibilities }

// NextSteps lists the recommended migration actions for a project in p.
func (p Phase) NextSteps() []string { return infos[p].nextSteps }

// IsBridge reports whether p takes part in the context handoff flow.
func (p Phase) IsBridge() bool {
	for _, b := range Bridge {
		if b == p {
			return true
		}
	}
	return false
}
