package templates

import "github.com/jorge-barreto/aiflow/internal/phase"

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Priorities in execution order.
var Priorities = []string{PriorityHigh, PriorityMedium, PriorityLow}

// Category is a migration component group.
type Category struct {
	ID          string
	Name        string
	Description string
	Priority    string
	// Entries may name directories with a trailing slash.
	Entries []string
}

// Files expands the category entries into template files.
func (c Category) Files() []string {
	var out []string
	for _, e := range c.Entries {
		out = append(out, Expand(e)...)
	}
	return out
}

var CoreDocs = []string{
	"docs/PROJECT_CONTEXT.md",
	"docs/WORKFLOW_GUIDE.md",
	"docs/AI_INTERACTION_LOG.md",
	"docs/CODING_STANDARDS.md",
	"docs/ARCHITECTURE.md",
}

var AdvancedDocs = []string{
	"docs/ADVANCED_FEATURES_GUIDE.md",
	"docs/GITHUB_AUTO_CONTEXT_BRIDGE.md",
	"docs/PROMPT_ENGINEERING_STRATEGY.md",
	"docs/WORKFLOW_METRICS_ANALYSIS.md",
	"docs/USAGE_AND_TESTING_GUIDE.md",
}

var Scripts = []string{
	"scripts/ai-context.sh",
	"scripts/extract-context.sh",
	"scripts/next-phase-context.sh",
	"scripts/quality-check.sh",
	"scripts/progress-update.sh",
	"scripts/collect-metrics.sh",
	"scripts/notify-team.sh",
}

const (
	PRTemplate       = ".github/pull_request_template.md"
	IssueTemplateDir = ".github/ISSUE_TEMPLATE/"
	BridgeWorkflow   = ".github/workflows/auto-context-bridge.yml"
	ProgressWorkflow = ".github/workflows/progress-tracker.yml"
	ContextDirEntry  = "docs/ai-context/"
	PromptsDirEntry  = "docs/ai-prompts/"
)

// Categories is the migration component catalogue in declaration order.
var Categories = []Category{
	{
		ID:          "core-docs",
		Name:        "Core documents",
		Description: "Documents every project in the workflow needs",
		Priority:    PriorityHigh,
		Entries:     CoreDocs,
	},
	{
		ID:          "github-templates",
		Name:        "GitHub templates",
		Description: "Issue and pull request templates",
		Priority:    PriorityHigh,
		Entries:     []string{IssueTemplateDir, PRTemplate},
	},
	{
		ID:          "workflows",
		Name:        "GitHub Actions",
		Description: "Automation workflows",
		Priority:    PriorityMedium,
		Entries:     []string{BridgeWorkflow, ProgressWorkflow},
	},
	{
		ID:          "scripts",
		Name:        "Scripts",
		Description: "Wrapper scripts calling aiflow",
		Priority:    PriorityHigh,
		Entries:     Scripts,
	},
	{
		ID:          "advanced-docs",
		Name:        "Advanced documents",
		Description: "Detailed guides and strategy documents",
		Priority:    PriorityLow,
		Entries:     AdvancedDocs,
	},
	{
		ID:          "ai-context",
		Name:        "AI context",
		Description: "Directories for phase context documents and prompts",
		Priority:    PriorityMedium,
		Entries:     []string{ContextDirEntry, PromptsDirEntry},
	},
}

// CategoryByID looks up a catalogue entry.
func CategoryByID(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// ManagedFiles is every file a migration may create, in catalogue order.
func ManagedFiles() []string {
	var out []string
	for _, c := range Categories {
		out = append(out, c.Files()...)
	}
	return out
}

// StageStep is one entry of a staged migration plan.
type StageStep struct {
	ID       string
	Name     string
	Priority string
	Files    []string
}

var stageSteps = map[phase.Phase][]StageStep{
	phase.Discovery: {
		{ID: "core-docs", Name: "Core documents", Priority: PriorityHigh, Files: CoreDocs},
	},
	phase.Requirements: {
		{ID: "github-templates", Name: "GitHub templates", Priority: PriorityHigh, Files: []string{PRTemplate}},
		{ID: "issue-templates", Name: "Issue templates", Priority: PriorityMedium, Files: Expand(IssueTemplateDir)},
	},
	phase.PoC: {
		{ID: "scripts-basic", Name: "Basic scripts", Priority: PriorityHigh, Files: Scripts},
		{ID: "ai-context", Name: "AI context", Priority: PriorityHigh, Files: append(Expand(ContextDirEntry), Expand(PromptsDirEntry)...)},
	},
	phase.Implementation: {
		{ID: "workflows", Name: "GitHub Actions", Priority: PriorityMedium, Files: []string{BridgeWorkflow, ProgressWorkflow}},
		{ID: "quality-tools", Name: "Quality tooling", Priority: PriorityMedium, Files: []string{".github/workflows/quality-gate.yml"}},
	},
	phase.Review: {
		{ID: "review-automation", Name: "Review automation", Priority: PriorityMedium, Files: []string{".github/workflows/pr-review.yml"}},
		{ID: "metrics-collection", Name: "Metrics collection", Priority: PriorityLow, Files: []string{".github/workflows/metrics.yml", "docs/WORKFLOW_METRICS_ANALYSIS.md"}},
	},
	phase.Testing: {
		{ID: "test-automation", Name: "Test automation", Priority: PriorityLow, Files: []string{".github/workflows/test.yml", "docs/USAGE_AND_TESTING_GUIDE.md"}},
	},
	phase.Production: {
		{ID: "monitoring", Name: "Monitoring", Priority: PriorityLow, Files: []string{".github/workflows/health-check.yml"}},
		{ID: "maintenance", Name: "Maintenance", Priority: PriorityLow, Files: []string{
			"docs/ADVANCED_FEATURES_GUIDE.md",
			"docs/GITHUB_AUTO_CONTEXT_BRIDGE.md",
			"docs/PROMPT_ENGINEERING_STRATEGY.md",
		}},
	},
}

// StageSteps returns the staged steps introduced by a single phase.
func StageSteps(p phase.Phase) []StageStep {
	return stageSteps[p]
}

// StageStepByID finds a staged step in any phase.
func StageStepByID(id string) (StageStep, phase.Phase, bool) {
	for _, p := range phase.All {
		for _, s := range stageSteps[p] {
			if s.ID == id {
				return s, p, true
			}
		}
	}
	return StageStep{}, "", false
}
