package detect

import "github.com/jorge-barreto/aiflow/internal/phase"

// Kind names an indicator evaluator.
type Kind string

const (
	FilePresence        Kind = "file_presence"
	FileAbsence         Kind = "file_absence"
	DirPresence         Kind = "dir_presence"
	DirAbsence          Kind = "dir_absence"
	PackageDependencies Kind = "package_dependencies"
	FileContent         Kind = "file_content"
	GitHistory          Kind = "git_history"
	PackageVersion      Kind = "package_version"
	FileCount           Kind = "file_count"
)

// Indicator is one weighted signal for a phase. Target is a path for the
// file and directory kinds and a check name for the others.
type Indicator struct {
	Kind     Kind     `json:"kind"`
	Target   string   `json:"target"`
	Keywords []string `json:"keywords,omitempty"`
	Weight   float64  `json:"weight"`
}

// Rule is the indicator list for one phase.
type Rule struct {
	Phase      phase.Phase
	Prior      float64
	Indicators []Indicator
}

// Rules is the fixed rule table in phase order.
var Rules = []Rule{
	{phase.Discovery, 0.1, []Indicator{
		{Kind: FileAbsence, Target: "package.json", Weight: 0.3},
		{Kind: DirAbsence, Target: "src", Weight: 0.2},
		{Kind: FileAbsence, Target: "README.md", Weight: 0.1},
		{Kind: GitHistory, Target: "commit_count_low", Weight: 0.2},
		{Kind: FileCount, Target: "low_file_count", Weight: 0.2},
	}},
	{phase.Requirements, 0.15, []Indicator{
		{Kind: FilePresence, Target: "docs/requirements.md", Weight: 0.3},
		{Kind: FilePresence, Target: "docs/specification.md", Weight: 0.2},
		{Kind: FilePresence, Target: "README.md", Weight: 0.1},
		{Kind: FileContent, Target: "package.json", Keywords: []string{"name", "description"}, Weight: 0.2},
		{Kind: DirAbsence, Target: "src", Weight: 0.2},
	}},
	{phase.PoC, 0.2, []Indicator{
		{Kind: FilePresence, Target: "prototype", Weight: 0.3},
		{Kind: FilePresence, Target: "poc", Weight: 0.3},
		{Kind: PackageDependencies, Target: "few_dependencies", Weight: 0.2},
		{Kind: FileContent, Target: "README.md", Keywords: []string{"poc", "prototype", "proof of concept"}, Weight: 0.1},
		{Kind: GitHistory, Target: "experimental_commits", Weight: 0.1},
	}},
	{phase.Implementation, 0.25, []Indicator{
		{Kind: DirPresence, Target: "src", Weight: 0.3},
		{Kind: PackageDependencies, Target: "substantial_dependencies", Weight: 0.2},
		{Kind: FilePresence, Target: "test", Weight: 0.1},
		{Kind: GitHistory, Target: "regular_commits", Weight: 0.2},
		{Kind: FileContent, Target: "package.json", Keywords: []string{"scripts", "start", "build"}, Weight: 0.2},
	}},
	{phase.Review, 0.15, []Indicator{
		{Kind: FilePresence, Target: ".github/pull_request_template.md", Weight: 0.2},
		{Kind: GitHistory, Target: "pr_history", Weight: 0.3},
		{Kind: FilePresence, Target: ".eslintrc", Weight: 0.1},
		{Kind: FilePresence, Target: ".prettierrc", Weight: 0.1},
		{Kind: PackageDependencies, Target: "quality_tools", Weight: 0.3},
	}},
	{phase.Testing, 0.1, []Indicator{
		{Kind: FilePresence, Target: ".github/workflows", Weight: 0.3},
		{Kind: DirPresence, Target: "test", Weight: 0.2},
		{Kind: PackageDependencies, Target: "testing_frameworks", Weight: 0.2},
		{Kind: FileContent, Target: "package.json", Keywords: []string{"test", "jest", "mocha", "cypress"}, Weight: 0.3},
	}},
	{phase.Production, 0.05, []Indicator{
		{Kind: PackageVersion, Target: "stable_version", Weight: 0.3},
		{Kind: FilePresence, Target: "docker", Weight: 0.2},
		{Kind: FilePresence, Target: "deployment", Weight: 0.2},
		{Kind: GitHistory, Target: "release_tags", Weight: 0.3},
	}},
}
