// Package mcpserver exposes phase detection, context evaluation and
// migration status to AI assistants over the Model Context Protocol.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Project locates the files the tools read.
type Project struct {
	Root       string
	ContextDir string
	Threshold  float64
}

// New creates the MCP server with every tool registered.
func New(p Project) *server.MCPServer {
	s := server.NewMCPServer(
		"aiflow",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	detectTool := NewDetectTool(p)
	s.AddTool(detectTool.Definition(), detectTool.Handle)

	evaluateTool := NewEvaluateTool(p)
	s.AddTool(evaluateTool.Definition(), evaluateTool.Handle)

	statusTool := NewStatusTool(p)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	handoffTool := NewHandoffTool(p)
	s.AddTool(handoffTool.Definition(), handoffTool.Handle)

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(p Project) error {
	return server.ServeStdio(New(p))
}

const instructions = `aiflow tracks a project through the AI development workflow phases:
requirements, poc, implementation, review, testing.

- detect_phase: estimate which phase the project is in.
- evaluate_context: score a phase's AI context document (0-100).
- migration_status: show the staged template migration, if any.
- handoff_prompt: build the prompt that starts a phase from the previous phase's context.`
