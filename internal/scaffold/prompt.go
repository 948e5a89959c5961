package scaffold

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jorge-barreto/aiflow/internal/prompt"
)

// Answers describe the project for the generated documents.
type Answers struct {
	ProjectName   string
	Version       string
	Author        string
	Description   string
	Language      string
	Framework     string
	AITools       []string
	TeamSize      string
	SecurityLevel string
}

var (
	Languages      = []string{"JavaScript", "TypeScript", "Python", "Java", "Go", "Other"}
	Frameworks     = []string{"React", "Vue.js", "Angular", "Express.js", "Django", "FastAPI", "Spring Boot", "Other"}
	AITools        = []string{"GitHub Copilot", "Claude", "ChatGPT", "Windsurf", "Cursor", "Google Gemini"}
	aiToolDefaults = []bool{true, true, false, true, false, false}
	SecurityLevels = []string{
		"low (internal tools)",
		"medium (typical web app)",
		"high (finance, healthcare)",
	}
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ValidateVersion accepts MAJOR.MINOR.PATCH.
func ValidateVersion(v string) error {
	if !versionPattern.MatchString(v) {
		return fmt.Errorf("version must look like 0.0.0")
	}
	return nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("a value is required")
	}
	return nil
}

// DefaultAnswers are used with --yes and as prompt defaults.
func DefaultAnswers(projectName string) Answers {
	var tools []string
	for i, t := range AITools {
		if aiToolDefaults[i] {
			tools = append(tools, t)
		}
	}
	return Answers{
		ProjectName:   projectName,
		Version:       "0.1.0",
		Description:   "A new AI-assisted project",
		Language:      Languages[0],
		Framework:     Frameworks[0],
		AITools:       tools,
		TeamSize:      "3-5",
		SecurityLevel: SecurityLevels[0],
	}
}

// Ask interviews the user, offering def as defaults.
func Ask(ctx context.Context, p *prompt.Prompter, def Answers) (Answers, error) {
	var a Answers
	var err error
	if a.ProjectName, err = p.AskDefault(ctx, "Project name", def.ProjectName, required); err != nil {
		return a, err
	}
	if a.Version, err = p.AskDefault(ctx, "Project version", def.Version, ValidateVersion); err != nil {
		return a, err
	}
	if a.Author, err = p.AskDefault(ctx, "Author", def.Author, nil); err != nil {
		return a, err
	}
	if a.Description, err = p.AskDefault(ctx, "Description", def.Description, nil); err != nil {
		return a, err
	}
	if a.Language, err = choose(ctx, p, "Main language", Languages, def.Language); err != nil {
		return a, err
	}
	if a.Framework, err = choose(ctx, p, "Framework", Frameworks, def.Framework); err != nil {
		return a, err
	}
	checked := make([]bool, len(AITools))
	for i, t := range AITools {
		for _, d := range def.AITools {
			checked[i] = checked[i] || d == t
		}
	}
	if a.AITools, err = p.MultiSelect(ctx, "AI tools you plan to use", AITools, checked); err != nil {
		return a, err
	}
	if a.TeamSize, err = p.AskDefault(ctx, "Team size (people)", def.TeamSize, nil); err != nil {
		return a, err
	}
	if a.SecurityLevel, err = choose(ctx, p, "Security requirements", SecurityLevels, def.SecurityLevel); err != nil {
		return a, err
	}
	return a, nil
}

func choose(ctx context.Context, p *prompt.Prompter, label string, options []string, def string) (string, error) {
	idx := 0
	for i, o := range options {
		if o == def {
			idx = i
		}
	}
	i, err := p.Select(ctx, label, options, idx)
	if err != nil {
		return "", err
	}
	return options[i], nil
}
