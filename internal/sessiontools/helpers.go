// Package sessiontools provides the MCP tool handlers for session
// continuity: lifecycle, snapshots, bug-fix contexts, and the advisor.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies (session.Manager or session.Advisor) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
package sessiontools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/solokit/sessiond/internal/session"
)

// stateArg extracts a state-document argument. Clients send it either as
// a JSON object or as a JSON-encoded string; both forms are accepted.
func stateArg(req mcp.CallToolRequest, key string) (session.State, error) {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return session.State{}, nil
	}
	switch val := v.(type) {
	case map[string]any:
		return session.State(val), nil
	case string:
		if val == "" {
			return session.State{}, nil
		}
		var s session.State
		if err := json.Unmarshal([]byte(val), &s); err != nil {
			return nil, fmt.Errorf("'%s' is not a JSON object: %v", key, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("'%s' must be a JSON object", key)
	}
}

// stringSliceArg extracts a list-of-strings argument. Non-string entries
// are skipped.
func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	return session.StringSlice(req.GetArguments()[key])
}

// jsonResult renders a structured payload as an indented JSON text result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}
