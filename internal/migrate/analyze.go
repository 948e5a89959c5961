// Package migrate applies the workflow templates to an existing project:
// it analyses what is already there, plans the missing pieces and runs the
// plan through the step runner.
package migrate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/aiflow/internal/dispatch"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/pkgjson"
	"github.com/jorge-barreto/aiflow/internal/templates"
)

// Recommendation levels.
const (
	LevelCritical = "critical"
	LevelHigh     = "high"
	LevelWarning  = "warning"
	LevelInfo     = "info"
)

// Recommendation is an advisory produced by the analysis.
type Recommendation struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// CategoryStatus is the state of one catalogue category in the project.
type CategoryStatus struct {
	Category  templates.Category `json:"-"`
	ID        string             `json:"id"`
	Existing  []string           `json:"existing"`
	Missing   []string           `json:"missing"`
	Conflicts []string           `json:"conflicts"`
}

// Total is the number of files the category manages.
func (c CategoryStatus) Total() int {
	return len(c.Existing) + len(c.Missing)
}

// Analysis describes the project before migration.
type Analysis struct {
	Root            string           `json:"projectRoot"`
	Package         *pkgjson.Package `json:"-"`
	HasPackage      bool             `json:"packageJson"`
	GitRepo         bool             `json:"gitRepo"`
	Categories      []CategoryStatus `json:"categories"`
	Conflicts       []string         `json:"conflictFiles"`
	Phase           phase.Phase      `json:"phase"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Category returns the status of a catalogue category.
func (a *Analysis) Category(id string) CategoryStatus {
	for _, c := range a.Categories {
		if c.ID == id {
			return c
		}
	}
	return CategoryStatus{ID: id}
}

// MissingCount totals missing files over all categories.
func (a *Analysis) MissingCount() int {
	n := 0
	for _, c := range a.Categories {
		n += len(c.Missing)
	}
	return n
}

// Analyze inspects root. A non-empty override skips phase estimation.
// vars render the templates that existing files are compared against.
func Analyze(root string, override phase.Phase, vars map[string]string) (*Analysis, error) {
	a := &Analysis{Root: root}

	// An unreadable package.json is treated as absent.
	a.Package, _ = pkgjson.Load(root)
	a.HasPackage = a.Package != nil
	if info, err := os.Stat(filepath.Join(root, ".git")); err == nil && info != nil {
		a.GitRepo = true
	}

	for _, c := range templates.Categories {
		cs := CategoryStatus{Category: c, ID: c.ID, Existing: []string{}, Missing: []string{}, Conflicts: []string{}}
		for _, rel := range c.Files() {
			existing, err := os.ReadFile(filepath.Join(root, rel))
			if err != nil {
				cs.Missing = append(cs.Missing, rel)
				continue
			}
			cs.Existing = append(cs.Existing, rel)
			if rendered, ok := templates.Render(rel, vars); ok && dispatch.IsConflict(string(existing), rendered) {
				cs.Conflicts = append(cs.Conflicts, rel)
				a.Conflicts = append(a.Conflicts, rel)
			}
		}
		a.Categories = append(a.Categories, cs)
	}

	a.Phase = override
	if a.Phase == "" {
		a.Phase = EstimatePhase(a)
	}
	a.Recommendations = recommend(a)
	return a, nil
}

// EstimatePhase guesses the project phase from the analysis, checking the
// most advanced phase first.
func EstimatePhase(a *Analysis) phase.Phase {
	pkg := a.Package
	runtime := 0
	if pkg != nil {
		runtime = len(pkg.RuntimeDependencies())
	}
	coreDocs := a.Category("core-docs")
	has := func(rel string) bool {
		for _, f := range coreDocs.Existing {
			if f == rel {
				return true
			}
		}
		return false
	}

	checks := []struct {
		phase phase.Phase
		match func() bool
	}{
		{phase.Production, func() bool {
			if pkg == nil {
				return false
			}
			v := strings.TrimPrefix(pkg.Version(), "v")
			return v != "" && !strings.HasPrefix(v, "0.")
		}},
		{phase.Testing, func() bool { return pkg != nil && pkg.HasScript("test") }},
		{phase.Review, func() bool { return len(a.Category("workflows").Existing) > 0 }},
		{phase.Implementation, func() bool { return runtime > 5 }},
		{phase.PoC, func() bool { return has("docs/ARCHITECTURE.md") }},
		{phase.Requirements, func() bool { return has("docs/PROJECT_CONTEXT.md") }},
		{phase.Discovery, func() bool { return pkg == nil || runtime == 0 }},
	}
	for _, c := range checks {
		if c.match() {
			return c.phase
		}
	}
	return phase.Discovery
}

func recommend(a *Analysis) []Recommendation {
	recs := []Recommendation{}
	if !a.GitRepo {
		recs = append(recs, Recommendation{LevelCritical, "The project is not a git repository", "Run git init"})
	}
	if !a.HasPackage {
		recs = append(recs, Recommendation{LevelHigh, "No package.json found", "Run npm init, or skip the npm script integration"})
	}
	if n := len(a.Conflicts); n > 0 {
		recs = append(recs, Recommendation{LevelWarning, pluralize(n, "file may conflict", "files may conflict") + " with the templates", "A backup is taken before migrating"})
	}
	if n := a.MissingCount(); n > 10 {
		recs = append(recs, Recommendation{LevelInfo, pluralize(n, "new file", "new files") + " will be added", "Consider a staged migration with aiflow stage schedule"})
	}
	return recs
}
