package sessiontools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/solokit/sessiond/internal/session"
)

// StartBugFixTool handles the bugfix_start MCP tool.
type StartBugFixTool struct {
	mgr *session.Manager
}

// NewStartBugFixTool creates a StartBugFixTool.
func NewStartBugFixTool(mgr *session.Manager) *StartBugFixTool {
	return &StartBugFixTool{mgr: mgr}
}

// Definition returns the MCP tool definition for bugfix_start.
func (t *StartBugFixTool) Definition() mcp.Tool {
	return mcp.NewTool("bugfix_start",
		mcp.WithDescription(
			"Open a bug-fix context within an active session. Captures the current "+
				"working state as a pre_bug_fix snapshot so it can be rolled back to "+
				"if the fix goes wrong.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session the bug was found in"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Description of the bug"),
		),
		mcp.WithObject("pre_fix_state",
			mcp.Description("Extra context merged into the captured pre-fix state (e.g. the failing input)"),
		),
	)
}

// Handle processes the bugfix_start tool call.
func (t *StartBugFixTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	description := req.GetString("description", "")

	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}

	overlay, err := stateArg(req, "pre_fix_state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bf, ref, err := t.mgr.StartBugFix(sessionID, description, overlay)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start bug fix: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"context_id":          bf.ID,
		"session_id":          bf.SessionID,
		"status":              bf.Status,
		"pre_fix_snapshot_id": ref.ID,
		"created_at":          bf.CreatedAt,
	}), nil
}

// ─── LogAttemptTool ─────────────────────────────────────────────────────────

// LogAttemptTool handles the bugfix_log_attempt MCP tool.
type LogAttemptTool struct {
	mgr *session.Manager
}

// NewLogAttemptTool creates a LogAttemptTool.
func NewLogAttemptTool(mgr *session.Manager) *LogAttemptTool {
	return &LogAttemptTool{mgr: mgr}
}

// Definition returns the MCP tool definition for bugfix_log_attempt.
func (t *LogAttemptTool) Definition() mcp.Tool {
	return mcp.NewTool("bugfix_log_attempt",
		mcp.WithDescription(
			"Record one fix attempt against an open bug-fix context: what was tried, "+
				"what changed, and how it turned out. Attempts are append-only.",
		),
		mcp.WithString("context_id",
			mcp.Required(),
			mcp.Description("Bug-fix context to log against"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What was tried"),
		),
		mcp.WithString("outcome",
			mcp.Required(),
			mcp.Description("How the attempt turned out (e.g. failed, partial, promising)"),
		),
		mcp.WithObject("changes",
			mcp.Description("Changes made during the attempt"),
		),
	)
}

// Handle processes the bugfix_log_attempt tool call.
func (t *LogAttemptTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextID := req.GetString("context_id", "")
	description := req.GetString("description", "")
	outcome := req.GetString("outcome", "")

	if contextID == "" {
		return mcp.NewToolResultError("'context_id' is required"), nil
	}
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}
	if outcome == "" {
		return mcp.NewToolResultError("'outcome' is required"), nil
	}

	changes, err := stateArg(req, "changes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bf, err := t.mgr.LogAttempt(contextID, description, outcome, changes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to log attempt: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"context_id":    bf.ID,
		"status":        bf.Status,
		"attempt_count": len(bf.Attempts),
	}), nil
}

// ─── ResolveBugFixTool ──────────────────────────────────────────────────────

// ResolveBugFixTool handles the bugfix_resolve MCP tool.
type ResolveBugFixTool struct {
	mgr *session.Manager
}

// NewResolveBugFixTool creates a ResolveBugFixTool.
func NewResolveBugFixTool(mgr *session.Manager) *ResolveBugFixTool {
	return &ResolveBugFixTool{mgr: mgr}
}

// Definition returns the MCP tool definition for bugfix_resolve.
func (t *ResolveBugFixTool) Definition() mcp.Tool {
	return mcp.NewTool("bugfix_resolve",
		mcp.WithDescription(
			"Resolve an open bug-fix context with the solution that worked and any "+
				"lessons learned. Captures a post_bug_fix snapshot of the session.",
		),
		mcp.WithString("context_id",
			mcp.Required(),
			mcp.Description("Bug-fix context to resolve"),
		),
		mcp.WithString("solution",
			mcp.Required(),
			mcp.Description("The solution that fixed the bug"),
		),
		mcp.WithArray("lessons_learned",
			mcp.Description("Lessons learned while fixing the bug"),
		),
	)
}

// Handle processes the bugfix_resolve tool call.
func (t *ResolveBugFixTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextID := req.GetString("context_id", "")
	solution := req.GetString("solution", "")

	if contextID == "" {
		return mcp.NewToolResultError("'context_id' is required"), nil
	}
	if solution == "" {
		return mcp.NewToolResultError("'solution' is required"), nil
	}

	lessons := stringSliceArg(req, "lessons_learned")

	bf, ref, err := t.mgr.ResolveBugFix(contextID, solution, lessons)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve bug fix: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"context_id":           bf.ID,
		"status":               bf.Status,
		"attempt_count":        len(bf.Attempts),
		"post_fix_snapshot_id": ref.ID,
		"resolved_at":          bf.ResolvedAt,
	}), nil
}
