// Package prompts implements MCP prompt handlers for session continuity.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the session-start MCP prompt.
// It guides the AI to open a tracked development session.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("session-start",
		mcp.WithPromptDescription(
			"Start a tracked development session for a project. "+
				"The session records state snapshots and bug-fix contexts so work "+
				"can be rolled back and carried into future sessions.",
		),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("Project identifier"),
		),
		mcp.WithArgument("technology",
			mcp.ArgumentDescription("Primary technology (e.g. go, python). Default: go"),
		),
	)
}

// Handle processes the session-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectID := "my-project"
	if args := req.Params.Arguments; args != nil {
		if v, ok := args["project_id"]; ok && v != "" {
			projectID = v
		}
	}

	technology := "go"
	if args := req.Params.Arguments; args != nil {
		if v, ok := args["technology"]; ok && v != "" {
			technology = v
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start session for: %s", projectID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I'm starting a development session on project '%s' (%s).\n\n"+
						"Please:\n"+
						"1. Run `session_create` with project_id='%s' and technology='%s', "+
						"seeding initial_state with what I tell you about the current task\n"+
						"2. Call `snapshot_create` before each risky change and at natural checkpoints\n"+
						"3. When I hit a bug, open a `bugfix_start` context and log each attempt with `bugfix_log_attempt`\n"+
						"4. When I'm done, run `session_end` with a summary and show me the termination metrics",
					projectID, technology, projectID, technology,
				)),
			},
		},
	}, nil
}
