package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResumePrompt handles the session-resume MCP prompt.
// It guides the AI to start a new session bridged from a previous one.
type ResumePrompt struct{}

// NewResumePrompt creates a ResumePrompt.
func NewResumePrompt() *ResumePrompt {
	return &ResumePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ResumePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("session-resume",
		mcp.WithPromptDescription(
			"Resume work from an earlier session. Starts a new session with a "+
				"continuity bridge that carries forward the previous session's "+
				"context, unresolved issues, and learned patterns.",
		),
		mcp.WithArgument("previous_session_id",
			mcp.ArgumentDescription("The session to resume from"),
		),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("Project identifier"),
		),
	)
}

// Handle processes the session-resume prompt request.
func (p *ResumePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	previousID := ""
	projectID := "my-project"
	if args := req.Params.Arguments; args != nil {
		if v, ok := args["previous_session_id"]; ok {
			previousID = v
		}
		if v, ok := args["project_id"]; ok && v != "" {
			projectID = v
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Resume work on: %s", projectID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to resume work on project '%s' from session '%s'.\n\n"+
						"Please:\n"+
						"1. Run `session_create` with project_id='%s' and previous_session_id='%s'\n"+
						"2. Read the bridge in the response and summarize the unresolved issues "+
						"and learned patterns it carried forward\n"+
						"3. Ask me which unresolved issue to tackle first",
					projectID, previousID, projectID, previousID,
				)),
			},
		},
	}, nil
}
