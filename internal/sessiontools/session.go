package sessiontools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/solokit/sessiond/internal/session"
)

// CreateSessionTool handles the session_create MCP tool.
type CreateSessionTool struct {
	mgr *session.Manager
}

// NewCreateSessionTool creates a CreateSessionTool.
func NewCreateSessionTool(mgr *session.Manager) *CreateSessionTool {
	return &CreateSessionTool{mgr: mgr}
}

// Definition returns the MCP tool definition for session_create.
func (t *CreateSessionTool) Definition() mcp.Tool {
	return mcp.NewTool("session_create",
		mcp.WithDescription(
			"Start a new development session for a project. Takes an initial snapshot "+
				"automatically. Pass previous_session_id to carry unresolved context "+
				"forward from an earlier session.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("technology",
			mcp.Required(),
			mcp.Description("Primary technology of the session (e.g. go, python)"),
		),
		mcp.WithString("kind",
			mcp.Description("Session kind (default: development)"),
		),
		mcp.WithObject("initial_state",
			mcp.Description("Initial working-state document"),
		),
		mcp.WithString("previous_session_id",
			mcp.Description("Earlier session to bridge context from"),
		),
	)
}

// Handle processes the session_create tool call.
func (t *CreateSessionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("project_id", "")
	technology := req.GetString("technology", "")

	if projectID == "" {
		return mcp.NewToolResultError("'project_id' is required"), nil
	}
	if technology == "" {
		return mcp.NewToolResultError("'technology' is required"), nil
	}

	initial, err := stateArg(req, "initial_state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	kind := req.GetString("kind", "")
	previousID := req.GetString("previous_session_id", "")

	sess, bridge, err := t.mgr.CreateSession(projectID, technology, kind, initial, previousID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create session: %v", err)), nil
	}

	resp := map[string]any{
		"session_id": sess.ID,
		"project_id": sess.ProjectID,
		"technology": sess.Technology,
		"kind":       sess.Kind,
		"started_at": sess.StartedAt,
	}
	if bridge != nil {
		resp["bridge"] = map[string]any{
			"bridge_id":           bridge.ID,
			"previous_session_id": bridge.PreviousSessionID,
			"unresolved_issues":   bridge.UnresolvedIssues,
			"learned_patterns":    bridge.LearnedPatterns,
		}
	}
	return jsonResult(resp), nil
}

// ─── EndSessionTool ─────────────────────────────────────────────────────────

// EndSessionTool handles the session_end MCP tool.
type EndSessionTool struct {
	mgr *session.Manager
}

// NewEndSessionTool creates an EndSessionTool.
func NewEndSessionTool(mgr *session.Manager) *EndSessionTool {
	return &EndSessionTool{mgr: mgr}
}

// Definition returns the MCP tool definition for session_end.
func (t *EndSessionTool) Definition() mcp.Tool {
	return mcp.NewTool("session_end",
		mcp.WithDescription(
			"End an active session: takes the final snapshot, computes termination "+
				"metrics, and marks the session completed.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to end"),
		),
		mcp.WithString("summary",
			mcp.Description("Summary of what was accomplished"),
		),
	)
}

// Handle processes the session_end tool call.
func (t *EndSessionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	summary := req.GetString("summary", "")

	metrics, err := t.mgr.EndSession(sessionID, summary)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to end session: %v", err)), nil
	}
	return jsonResult(metrics), nil
}
