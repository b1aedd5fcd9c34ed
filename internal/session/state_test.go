package session

import (
	"strings"
	"testing"
)

// ─── Clone ──────────────────────────────────────────────────────────────────

func TestState_CloneIsDeep(t *testing.T) {
	s := State{
		"files": []any{"main.go"},
		"task":  map[string]any{"name": "refactor", "done": false},
	}

	c := s.Clone()
	c["task"].(map[string]any)["done"] = true
	c["files"] = append(c["files"].([]any), "extra.go")

	if s["task"].(map[string]any)["done"] != false {
		t.Error("mutating clone changed original nested map")
	}
	if len(s["files"].([]any)) != 1 {
		t.Error("mutating clone changed original slice")
	}
}

func TestState_CloneNil(t *testing.T) {
	var s State
	c := s.Clone()
	if c == nil {
		t.Fatal("Clone of nil state should be an empty, usable map")
	}
	c["k"] = "v"
}

// ─── Merge ──────────────────────────────────────────────────────────────────

func TestState_MergeOverlayWins(t *testing.T) {
	s := State{"a": "old", "keep": "yes"}
	s.Merge(State{"a": "new", "b": "added"})

	if s["a"] != "new" {
		t.Errorf("overlay key not overwritten: got %v", s["a"])
	}
	if s["b"] != "added" {
		t.Errorf("overlay key not added: got %v", s["b"])
	}
	if s["keep"] != "yes" {
		t.Errorf("key absent from overlay was touched: got %v", s["keep"])
	}
}

func TestState_MergeNilOverlay(t *testing.T) {
	s := State{"a": 1}
	s.Merge(nil)
	if len(s) != 1 {
		t.Errorf("nil overlay changed state: %v", s)
	}
}

// ─── Encode / Decode ────────────────────────────────────────────────────────

func TestDecodeState_Empty(t *testing.T) {
	s, err := DecodeState(nil)
	if err != nil {
		t.Fatalf("DecodeState(nil) error: %v", err)
	}
	if s == nil {
		t.Fatal("DecodeState(nil) should return a usable empty map")
	}
}

func TestDecodeState_Malformed(t *testing.T) {
	if _, err := DecodeState([]byte("{not json")); err == nil {
		t.Error("expected error for malformed document")
	}
}

// ─── Summary ────────────────────────────────────────────────────────────────

func TestState_Summary(t *testing.T) {
	if got := (State{}).Summary(); got != "empty state" {
		t.Errorf("empty summary = %q", got)
	}

	s := State{"beta": 1, "alpha": 2}
	got := s.Summary()
	if !strings.HasPrefix(got, "2 keys:") {
		t.Errorf("summary = %q, want key count prefix", got)
	}
	if !strings.Contains(got, "alpha, beta") {
		t.Errorf("summary keys not sorted: %q", got)
	}
}

// ─── StringSlice ────────────────────────────────────────────────────────────

func TestStringSlice(t *testing.T) {
	if got := StringSlice([]any{"a", 42, "b"}); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("StringSlice skipped wrong entries: %v", got)
	}
	if got := StringSlice([]string{"x"}); len(got) != 1 {
		t.Errorf("StringSlice on []string = %v", got)
	}
	if got := StringSlice("not a list"); got != nil {
		t.Errorf("StringSlice on scalar = %v, want nil", got)
	}
	if got := StringSlice(nil); got != nil {
		t.Errorf("StringSlice(nil) = %v, want nil", got)
	}
}
