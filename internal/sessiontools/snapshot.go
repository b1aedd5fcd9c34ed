package sessiontools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/solokit/sessiond/internal/session"
)

// CreateSnapshotTool handles the snapshot_create MCP tool.
type CreateSnapshotTool struct {
	mgr *session.Manager
}

// NewCreateSnapshotTool creates a CreateSnapshotTool.
func NewCreateSnapshotTool(mgr *session.Manager) *CreateSnapshotTool {
	return &CreateSnapshotTool{mgr: mgr}
}

// Definition returns the MCP tool definition for snapshot_create.
func (t *CreateSnapshotTool) Definition() mcp.Tool {
	return mcp.NewTool("snapshot_create",
		mcp.WithDescription(
			"Capture a point-in-time snapshot of a session's working state. "+
				"An optional state overlay is merged into the captured document "+
				"without changing the live working state.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to snapshot"),
		),
		mcp.WithString("type",
			mcp.Description("Snapshot type: checkpoint (default), pre_bug_fix, post_bug_fix"),
		),
		mcp.WithString("description",
			mcp.Description("What this snapshot captures"),
		),
		mcp.WithObject("state",
			mcp.Description("State overlay merged into the captured document"),
		),
	)
}

// Handle processes the snapshot_create tool call.
func (t *CreateSnapshotTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	overlay, err := stateArg(req, "state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	typ := session.SnapshotType(req.GetString("type", ""))
	description := req.GetString("description", "")

	ref, err := t.mgr.CreateSnapshot(sessionID, typ, description, overlay)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create snapshot: %v", err)), nil
	}
	return jsonResult(ref), nil
}

// ─── RestoreSnapshotTool ────────────────────────────────────────────────────

// RestoreSnapshotTool handles the snapshot_restore MCP tool.
type RestoreSnapshotTool struct {
	mgr *session.Manager
}

// NewRestoreSnapshotTool creates a RestoreSnapshotTool.
func NewRestoreSnapshotTool(mgr *session.Manager) *RestoreSnapshotTool {
	return &RestoreSnapshotTool{mgr: mgr}
}

// Definition returns the MCP tool definition for snapshot_restore.
func (t *RestoreSnapshotTool) Definition() mcp.Tool {
	return mcp.NewTool("snapshot_restore",
		mcp.WithDescription(
			"Roll a session's working state back by merging a stored snapshot over "+
				"the current state. The restore is itself recorded as a restoration "+
				"snapshot, so it can be rolled back too.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session owning the snapshot"),
		),
		mcp.WithString("snapshot_id",
			mcp.Required(),
			mcp.Description("Snapshot to restore from"),
		),
	)
}

// Handle processes the snapshot_restore tool call.
func (t *RestoreSnapshotTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	snapshotID := req.GetString("snapshot_id", "")

	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if snapshotID == "" {
		return mcp.NewToolResultError("'snapshot_id' is required"), nil
	}

	state, ref, err := t.mgr.RestoreSnapshot(sessionID, snapshotID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to restore snapshot: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"session_id":           sessionID,
		"restored_from":        snapshotID,
		"restoration_snapshot": ref.ID,
		"state_summary":        state.Summary(),
	}), nil
}
