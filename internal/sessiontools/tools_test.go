package sessiontools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/solokit/sessiond/internal/session"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

// newTestDeps creates a Manager and Advisor backed by a temp directory.
func newTestDeps(t *testing.T) (*session.Manager, *session.Advisor) {
	t.Helper()
	cfg := session.Config{
		DataDir:                t.TempDir(),
		RingCapacity:           10,
		MaxDescriptionLength:   200,
		TargetSnapshotsPerHour: 2.0,
	}
	store, err := session.NewStore(cfg)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	codec, err := session.NewZstdCodec()
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return session.NewManager(store, codec, cfg), session.NewAdvisor(store, cfg)
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// resultJSON unmarshals a tool result's text payload.
func resultJSON(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, resultText(r))
	}
	return out
}

// createSession runs the session_create tool and returns the new session id.
func createSession(t *testing.T, mgr *session.Manager, args map[string]interface{}) string {
	t.Helper()
	res, err := NewCreateSessionTool(mgr).Handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("session_create handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("session_create failed: %s", resultText(res))
	}
	id, _ := resultJSON(t, res)["session_id"].(string)
	if id == "" {
		t.Fatalf("no session_id in response: %s", resultText(res))
	}
	return id
}

// ─── session_create ─────────────────────────────────────────────────────────

func TestCreateSessionTool_Definition(t *testing.T) {
	mgr, _ := newTestDeps(t)
	def := NewCreateSessionTool(mgr).Definition()
	if def.Name != "session_create" {
		t.Errorf("name = %q", def.Name)
	}
}

func TestCreateSessionTool_MissingArgs(t *testing.T) {
	mgr, _ := newTestDeps(t)
	tool := NewCreateSessionTool(mgr)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"technology": "go"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(res), "'project_id' is required") {
		t.Errorf("expected project_id error, got: %s", resultText(res))
	}

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"project_id": "proj"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(res), "'technology' is required") {
		t.Errorf("expected technology error, got: %s", resultText(res))
	}
}

func TestCreateSessionTool_Success(t *testing.T) {
	mgr, _ := newTestDeps(t)

	res, err := NewCreateSessionTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"project_id":    "proj",
		"technology":    "go",
		"initial_state": map[string]interface{}{"goal": "ship v1"},
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}

	out := resultJSON(t, res)
	if !strings.HasPrefix(out["session_id"].(string), "sess_") {
		t.Errorf("session_id = %v", out["session_id"])
	}
	if out["kind"] != "development" {
		t.Errorf("kind = %v", out["kind"])
	}
	if _, hasBridge := out["bridge"]; hasBridge {
		t.Error("bridge present without previous_session_id")
	}
}

func TestCreateSessionTool_WithBridge(t *testing.T) {
	mgr, _ := newTestDeps(t)

	firstID := createSession(t, mgr, map[string]interface{}{
		"project_id": "proj",
		"technology": "go",
		"initial_state": map[string]interface{}{
			"unresolved_issues": []interface{}{"slow query"},
		},
	})

	endRes, err := NewEndSessionTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id": firstID,
	}))
	if err != nil || endRes.IsError {
		t.Fatalf("session_end failed: %v %s", err, resultText(endRes))
	}

	res, err := NewCreateSessionTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"project_id":          "proj",
		"technology":          "go",
		"previous_session_id": firstID,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	out := resultJSON(t, res)
	bridge, ok := out["bridge"].(map[string]any)
	if !ok {
		t.Fatalf("no bridge in response: %s", resultText(res))
	}
	if bridge["previous_session_id"] != firstID {
		t.Errorf("bridge previous = %v", bridge["previous_session_id"])
	}
}

// ─── session_end ────────────────────────────────────────────────────────────

func TestEndSessionTool_ReturnsMetrics(t *testing.T) {
	mgr, _ := newTestDeps(t)
	id := createSession(t, mgr, map[string]interface{}{"project_id": "proj", "technology": "go"})

	res, err := NewEndSessionTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id": id,
		"summary":    "wrapped up",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}

	out := resultJSON(t, res)
	if out["session_id"] != id {
		t.Errorf("session_id = %v", out["session_id"])
	}
	if out["bug_fix_success_rate"].(float64) != 1.0 {
		t.Errorf("success rate = %v", out["bug_fix_success_rate"])
	}
}

func TestEndSessionTool_UnknownSession(t *testing.T) {
	mgr, _ := newTestDeps(t)
	res, err := NewEndSessionTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id": "sess_ghost",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(res), "not found") {
		t.Errorf("expected not-found error, got: %s", resultText(res))
	}
}

// ─── snapshot tools ─────────────────────────────────────────────────────────

func TestSnapshotTools_CreateAndRestore(t *testing.T) {
	mgr, _ := newTestDeps(t)
	id := createSession(t, mgr, map[string]interface{}{
		"project_id":    "proj",
		"technology":    "go",
		"initial_state": map[string]interface{}{"a": "1"},
	})

	snapRes, err := NewCreateSnapshotTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id":  id,
		"description": "before refactor",
		"state":       map[string]interface{}{"b": "2"},
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if snapRes.IsError {
		t.Fatalf("snapshot_create failed: %s", resultText(snapRes))
	}
	snapID := resultJSON(t, snapRes)["id"].(string)

	restoreRes, err := NewRestoreSnapshotTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id":  id,
		"snapshot_id": snapID,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if restoreRes.IsError {
		t.Fatalf("snapshot_restore failed: %s", resultText(restoreRes))
	}
	out := resultJSON(t, restoreRes)
	if out["restored_from"] != snapID {
		t.Errorf("restored_from = %v", out["restored_from"])
	}
	if !strings.Contains(out["state_summary"].(string), "2 keys") {
		t.Errorf("state_summary = %v", out["state_summary"])
	}
}

func TestCreateSnapshotTool_BadStateArg(t *testing.T) {
	mgr, _ := newTestDeps(t)
	id := createSession(t, mgr, map[string]interface{}{"project_id": "proj", "technology": "go"})

	res, err := NewCreateSnapshotTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id": id,
		"state":      42,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(res), "must be a JSON object") {
		t.Errorf("expected state-type error, got: %s", resultText(res))
	}
}

// ─── bug-fix tools ──────────────────────────────────────────────────────────

func TestBugFixTools_FullFlow(t *testing.T) {
	mgr, _ := newTestDeps(t)
	id := createSession(t, mgr, map[string]interface{}{"project_id": "proj", "technology": "go"})

	startRes, err := NewStartBugFixTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id":    id,
		"description":   "panic on empty input",
		"pre_fix_state": map[string]interface{}{"failing_input": "{}"},
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if startRes.IsError {
		t.Fatalf("bugfix_start failed: %s", resultText(startRes))
	}
	ctxID := resultJSON(t, startRes)["context_id"].(string)

	attemptRes, err := NewLogAttemptTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"context_id":  ctxID,
		"description": "added a guard clause",
		"outcome":     "failed",
		"changes":     map[string]interface{}{"edited": "handler.go"},
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if attemptRes.IsError {
		t.Fatalf("bugfix_log_attempt failed: %s", resultText(attemptRes))
	}
	if n := resultJSON(t, attemptRes)["attempt_count"].(float64); n != 1 {
		t.Errorf("attempt_count = %v", n)
	}

	// The pre_fix_state argument made it into the captured context.
	bf, err := mgr.LogAttempt(ctxID, "checking the capture", "n/a", nil)
	if err != nil {
		t.Fatalf("LogAttempt: %v", err)
	}
	if bf.PreFixState["failing_input"] != "{}" {
		t.Errorf("pre-fix state = %v", bf.PreFixState)
	}

	resolveRes, err := NewResolveBugFixTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"context_id":      ctxID,
		"solution":        "validate input at the boundary",
		"lessons_learned": []interface{}{"never trust raw input"},
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resolveRes.IsError {
		t.Fatalf("bugfix_resolve failed: %s", resultText(resolveRes))
	}
	out := resultJSON(t, resolveRes)
	if out["status"] != "resolved" {
		t.Errorf("status = %v", out["status"])
	}

	// A second resolve is rejected.
	again, err := NewResolveBugFixTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"context_id": ctxID,
		"solution":   "again",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !again.IsError {
		t.Error("second resolve should fail")
	}
}

func TestStartBugFixTool_BadPreFixState(t *testing.T) {
	mgr, _ := newTestDeps(t)
	id := createSession(t, mgr, map[string]interface{}{"project_id": "proj", "technology": "go"})

	res, err := NewStartBugFixTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id":    id,
		"description":   "some bug",
		"pre_fix_state": 42,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(res), "must be a JSON object") {
		t.Errorf("expected state-type error, got: %s", resultText(res))
	}
}

func TestLogAttemptTool_MissingOutcome(t *testing.T) {
	mgr, _ := newTestDeps(t)
	res, err := NewLogAttemptTool(mgr).Handle(context.Background(), makeReq(map[string]interface{}{
		"context_id":  "bugfix_x",
		"description": "tried something",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(res), "'outcome' is required") {
		t.Errorf("expected outcome error, got: %s", resultText(res))
	}
}

// ─── advisor tools ──────────────────────────────────────────────────────────

func TestRecommendTool(t *testing.T) {
	mgr, advisor := newTestDeps(t)
	id := createSession(t, mgr, map[string]interface{}{"project_id": "proj", "technology": "go"})

	res, err := NewRecommendTool(advisor).Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id": id,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("session_recommend failed: %s", resultText(res))
	}
	out := resultJSON(t, res)
	if out["health_label"] != "excellent" {
		t.Errorf("fresh session label = %v", out["health_label"])
	}
}

func TestPredictTool(t *testing.T) {
	mgr, advisor := newTestDeps(t)
	id := createSession(t, mgr, map[string]interface{}{"project_id": "proj", "technology": "go"})

	res, err := NewPredictTool(advisor).Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id": id,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("session_predict failed: %s", resultText(res))
	}
	out := resultJSON(t, res)
	if out["success_probability"].(float64) <= 0 {
		t.Errorf("success_probability = %v", out["success_probability"])
	}
}

func TestPredictTool_MissingSession(t *testing.T) {
	_, advisor := newTestDeps(t)
	res, err := NewPredictTool(advisor).Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(res), "'session_id' is required") {
		t.Errorf("expected session_id error, got: %s", resultText(res))
	}
}
