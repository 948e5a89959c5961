package scaffold

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorge-barreto/aiflow/internal/pkgjson"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/templates"
)

// LanguageConfig is the tooling CODING_STANDARDS.md recommends.
type LanguageConfig struct {
	Style    string
	Naming   string
	Testing  string
	Security string
}

// LanguageConfigs is keyed by Languages entries. Unknown languages use
// the JavaScript entry.
var LanguageConfigs = map[string]LanguageConfig{
	"JavaScript": {"ESLint + Prettier", "camelCase", "Jest", "npm audit + ESLint security rules"},
	"TypeScript": {"ESLint + Prettier + TypeScript", "camelCase", "Jest + @types", "npm audit + ESLint security rules"},
	"Python":     {"PEP 8 + Black + isort", "snake_case", "pytest", "bandit + safety"},
	"Go":         {"gofmt + go vet + staticcheck", "MixedCaps", "go test", "govulncheck + gosec"},
	"Java":       {"Google Java Style + Checkstyle", "camelCase", "JUnit 5", "OWASP Dependency-Check + SpotBugs"},
}

// SetupDocs are the documents Setup writes, replacing any existing copy.
var SetupDocs = []string{
	"docs/PROJECT_CONTEXT.md",
	"docs/CODING_STANDARDS.md",
	"docs/AI_INTERACTION_LOG.md",
	"docs/ARCHITECTURE.md",
}

const highSecurity = `
#### High security
- **Encryption**: data at rest is encrypted
- **Audit log**: every operation is recorded
- **Access control**: least privilege
- **Scanning**: regular security scans
`

// IsHighSecurity reports whether the level asks for the extra section.
func IsHighSecurity(level string) bool {
	return strings.HasPrefix(strings.ToLower(level), "high")
}

// Vars turns answers into template variables.
func Vars(a Answers, now time.Time) map[string]string {
	vars := templates.DefaultVars(a.ProjectName, now)
	lc, ok := LanguageConfigs[a.Language]
	if !ok {
		lc = LanguageConfigs["JavaScript"]
	}
	tools := make([]string, len(a.AITools))
	for i, t := range a.AITools {
		tools[i] = "- " + t
	}
	vars["DESCRIPTION"] = a.Description
	vars["TEAM_SIZE"] = a.TeamSize
	vars["LANGUAGE"] = a.Language
	vars["FRAMEWORK"] = a.Framework
	vars["AI_TOOLS"] = strings.Join(tools, "\n")
	vars["SECURITY_LEVEL"] = a.SecurityLevel
	vars["STYLE"] = lc.Style
	vars["NAMING"] = lc.Naming
	vars["TEST_FRAMEWORK"] = lc.Testing
	vars["SECURITY_TOOLS"] = lc.Security
	if IsHighSecurity(a.SecurityLevel) {
		vars["HIGH_SECURITY"] = highSecurity
	}
	return vars
}

// PackageName converts a project name into an npm package name.
func PackageName(project string) string {
	return strings.Join(strings.Fields(strings.ToLower(project)), "-")
}

// SetupResult lists what Setup changed.
type SetupResult struct {
	Written        []string
	PackageUpdated bool
}

// Setup renders the core documents from answers and updates package.json
// when the project has one.
func Setup(_ context.Context, root string, a Answers, now time.Time) (*SetupResult, error) {
	vars := Vars(a, now)
	res := &SetupResult{}
	for _, rel := range SetupDocs {
		content, ok := templates.Render(rel, vars)
		if !ok {
			return res, fmt.Errorf("template %s is not embedded", rel)
		}
		if err := state.WriteFileAtomic(filepath.Join(root, rel), []byte(content), 0644); err != nil {
			return res, fmt.Errorf("writing %s: %w", rel, err)
		}
		res.Written = append(res.Written, rel)
	}

	pkg, err := pkgjson.Load(root)
	if err != nil {
		return res, fmt.Errorf("updating %s: %w", pkgjson.FileName, err)
	}
	if pkg == nil {
		return res, nil
	}
	pkg.Set("name", PackageName(a.ProjectName))
	pkg.Set("version", a.Version)
	pkg.Set("description", a.Description)
	if a.Author != "" {
		pkg.Set("author", a.Author)
	}
	if err := pkg.Save(root); err != nil {
		return res, fmt.Errorf("updating %s: %w", pkgjson.FileName, err)
	}
	res.PackageUpdated = true
	return res, nil
}

// ProjectName guesses a default project name from package.json or the
// directory name.
func ProjectName(root string) string {
	if pkg, err := pkgjson.Load(root); err == nil && pkg != nil && pkg.Name() != "" {
		return pkg.Name()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(root)
	}
	return filepath.Base(abs)
}
