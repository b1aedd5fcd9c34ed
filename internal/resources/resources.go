// Package resources implements MCP resource handlers for sessiond.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (sessiond://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/solokit/sessiond/internal/session"
)

// Handler manages sessiond resource endpoints.
type Handler struct {
	mgr *session.Manager
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(mgr *session.Manager) *Handler {
	return &Handler{mgr: mgr}
}

// ActiveSessionsResource returns the MCP resource definition for the
// working set of active sessions.
func (h *Handler) ActiveSessionsResource() mcp.Resource {
	return mcp.NewResource(
		"sessiond://sessions/active",
		"Active Sessions",
		mcp.WithResourceDescription("Currently active sessions with duration, snapshot counts, and state summaries"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleActiveSessions returns the active-session working set as JSON.
func (h *Handler) HandleActiveSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	infos := h.mgr.ActiveSessions()

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling active sessions: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
