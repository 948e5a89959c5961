package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jorge-barreto/aiflow/internal/aicontext"
	"github.com/jorge-barreto/aiflow/internal/detect"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/snapshot"
	"github.com/jorge-barreto/aiflow/internal/state"
)

// For testing.
var now = time.Now

func phaseArg(req mcp.CallToolRequest) (phase.Phase, *mcp.CallToolResult) {
	raw := strings.TrimSpace(req.GetString("phase", ""))
	if raw == "" {
		return "", mcp.NewToolResultError("'phase' is required (one of: " + strings.Join(phase.Names(), ", ") + ")")
	}
	p, err := phase.Parse(raw)
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	return p, nil
}

// --- detect_phase ---

type DetectTool struct{ p Project }

func NewDetectTool(p Project) *DetectTool { return &DetectTool{p: p} }

func (t *DetectTool) Definition() mcp.Tool {
	return mcp.NewTool("detect_phase",
		mcp.WithDescription("Estimate which workflow phase a project is in from its files, dependencies and git history."),
		mcp.WithString("path",
			mcp.Description("Project directory. Defaults to the server's project root."),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Confidence below which the recommendation becomes gradual (0-1)."),
		),
	)
}

func (t *DetectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root := req.GetString("path", t.p.Root)
	threshold := req.GetFloat("threshold", t.p.Threshold)
	if threshold < 0 || threshold > 1 {
		return mcp.NewToolResultError("'threshold' must be between 0 and 1"), nil
	}

	res, err := detect.Detect(ctx, root, threshold)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("detection failed: %v", err)), nil
	}

	rec := res.Recommendation
	var sb strings.Builder
	sb.WriteString("# Phase detection\n\n")
	fmt.Fprintf(&sb, "**Phase:** %s %s\n", rec.Phase.Emoji(), rec.Phase)
	fmt.Fprintf(&sb, "**Score:** %.2f\n", rec.Score)
	fmt.Fprintf(&sb, "**Confidence:** %.0f%% (%s)\n", rec.Confidence*100, rec.Certainty)
	fmt.Fprintf(&sb, "**Strategy:** %s\n\n", rec.Strategy)

	sb.WriteString("## Scores\n\n| Phase | Score | Confidence |\n|---|---|---|\n")
	for _, s := range detect.Ranked(res.Scores) {
		fmt.Fprintf(&sb, "| %s | %.2f | %.0f%% |\n", s.Phase, s.Score, s.Confidence*100)
	}
	if len(rec.Alternatives) > 0 {
		sb.WriteString("\n## Alternatives\n\n")
		for _, a := range rec.Alternatives {
			fmt.Fprintf(&sb, "- %s (%.2f)\n", a.Phase, a.Score)
		}
	}
	if len(rec.NextSteps) > 0 {
		sb.WriteString("\n## Next steps\n\n")
		for _, s := range rec.NextSteps {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// --- evaluate_context ---

type EvaluateTool struct{ p Project }

func NewEvaluateTool(p Project) *EvaluateTool { return &EvaluateTool{p: p} }

func (t *EvaluateTool) Definition() mcp.Tool {
	return mcp.NewTool("evaluate_context",
		mcp.WithDescription("Score a phase's AI context document (0-100) and list what to improve. Read-only: nothing is saved."),
		mcp.WithString("phase",
			mcp.Required(),
			mcp.Description("Phase whose ai-context-<phase>.yml to evaluate."),
			mcp.Enum(phase.Names()...),
		),
	)
}

func (t *EvaluateTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, bad := phaseArg(req)
	if bad != nil {
		return bad, nil
	}
	r, err := aicontext.Evaluate(aicontext.Path(t.p.ContextDir, p), p, now())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mcp.NewToolResultError(fmt.Sprintf("no context document for the %s phase; run 'aiflow context complete %s' first", p, p)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	s := r.DetailedScores
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Context quality: %s\n\n", p)
	fmt.Fprintf(&sb, "**Overall:** %d/100 (grade %s)\n\n", r.OverallScore, r.QualityGrade)
	sb.WriteString("| Category | Points |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Key decisions | %d/%d |\n", s.KeyDecisions, aicontext.MaxDecisions)
	fmt.Fprintf(&sb, "| Constraints | %d/%d |\n", s.Constraints, aicontext.MaxConstraints)
	fmt.Fprintf(&sb, "| Learned patterns | %d/%d |\n", s.LearnedPatterns, aicontext.MaxPatterns)
	fmt.Fprintf(&sb, "| Technical artifacts | %d/%d |\n", s.TechnicalArtifacts, aicontext.MaxArtifacts)
	fmt.Fprintf(&sb, "| Next phase focus | %d/%d |\n", s.NextPhaseFocus, aicontext.MaxFocus)
	if len(r.Recommendations) > 0 {
		sb.WriteString("\n## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", rec)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// --- migration_status ---

type StatusTool struct{ p Project }

func NewStatusTool(p Project) *StatusTool { return &StatusTool{p: p} }

func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("migration_status",
		mcp.WithDescription("Show the staged template migration: status, completed steps and what remains."),
	)
}

func (t *StatusTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := state.Load(t.p.Root)
	if errors.Is(err, state.ErrNoMigration) {
		return mcp.NewToolResultText("No migration in progress. Start one with `aiflow stage schedule`."), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString("# Migration status\n\n")
	fmt.Fprintf(&sb, "**ID:** %s\n", m.ID)
	fmt.Fprintf(&sb, "**Status:** %s\n", m.Status)
	fmt.Fprintf(&sb, "**Target phase:** %s\n", m.TargetPhase)
	fmt.Fprintf(&sb, "**Progress:** %d/%d (%.0f%%)\n", len(m.CompletedSteps), m.TotalSteps, m.Progress()*100)

	if len(m.CompletedSteps) > 0 {
		sb.WriteString("\n## Completed\n\n")
		for _, c := range m.CompletedSteps {
			fmt.Fprintf(&sb, "- [x] %s\n", c.Name)
		}
	}
	if rest := m.Remaining(); len(rest) > 0 {
		sb.WriteString("\n## Remaining\n\n")
		for _, s := range rest {
			fmt.Fprintf(&sb, "- [ ] %s (%s)\n", s.Name, s.Priority)
		}
	}
	if len(m.Errors) > 0 {
		sb.WriteString("\n## Errors\n\n")
		for _, e := range m.Errors {
			fmt.Fprintf(&sb, "- %s: %s\n", e.Step, e.Message)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// --- handoff_prompt ---

type HandoffTool struct{ p Project }

func NewHandoffTool(p Project) *HandoffTool { return &HandoffTool{p: p} }

func (t *HandoffTool) Definition() mcp.Tool {
	return mcp.NewTool("handoff_prompt",
		mcp.WithDescription("Build the prompt that starts a phase, embedding the previous phase's AI context document."),
		mcp.WithString("phase",
			mcp.Required(),
			mcp.Description("Phase to start (poc, implementation, review or testing)."),
			mcp.Enum(phase.Names()...),
		),
		mcp.WithBoolean("include_project",
			mcp.Description("Append a snapshot of the project layout, key documents and recent commits."),
		),
	)
}

func (t *HandoffTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	next, bad := phaseArg(req)
	if bad != nil {
		return bad, nil
	}
	prev, ok := aicontext.PreviousBridge(next)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%s has no previous phase to hand off from", next)), nil
	}
	data, err := os.ReadFile(aicontext.Path(t.p.ContextDir, prev))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mcp.NewToolResultError(fmt.Sprintf("no context for the %s phase; run 'aiflow context complete %s' first", prev, prev)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	prompt := aicontext.HandoffPrompt(prev, next, string(data))
	if req.GetBool("include_project", false) {
		prompt += "\n" + snapshot.Take(ctx, t.p.Root).Markdown()
	}
	return mcp.NewToolResultText(prompt), nil
}
