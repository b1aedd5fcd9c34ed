package sessiontools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/solokit/sessiond/internal/session"
)

// RecommendTool handles the session_recommend MCP tool.
type RecommendTool struct {
	advisor *session.Advisor
}

// NewRecommendTool creates a RecommendTool.
func NewRecommendTool(advisor *session.Advisor) *RecommendTool {
	return &RecommendTool{advisor: advisor}
}

// Definition returns the MCP tool definition for session_recommend.
func (t *RecommendTool) Definition() mcp.Tool {
	return mcp.NewTool("session_recommend",
		mcp.WithDescription(
			"Assess a session's health (duration, snapshot cadence, bug-fix load) "+
				"and suggest next actions.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to assess"),
		),
	)
}

// Handle processes the session_recommend tool call.
func (t *RecommendTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	rec, err := t.advisor.RecommendActions(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute recommendations: %v", err)), nil
	}
	return jsonResult(rec), nil
}

// ─── PredictTool ────────────────────────────────────────────────────────────

// PredictTool handles the session_predict MCP tool.
type PredictTool struct {
	advisor *session.Advisor
}

// NewPredictTool creates a PredictTool.
func NewPredictTool(advisor *session.Advisor) *PredictTool {
	return &PredictTool{advisor: advisor}
}

// Definition returns the MCP tool definition for session_predict.
func (t *PredictTool) Definition() mcp.Tool {
	return mcp.NewTool("session_predict",
		mcp.WithDescription(
			"Predict a session's outcome: success probability, risk score, and "+
				"estimated remaining time, anchored on this project's completed sessions.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to predict"),
		),
	)
}

// Handle processes the session_predict tool call.
func (t *PredictTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	pred, err := t.advisor.PredictOutcome(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute prediction: %v", err)), nil
	}
	return jsonResult(pred), nil
}
