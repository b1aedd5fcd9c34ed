package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// State is the free-form working-state document of a session: an arbitrary
// key-value payload supplied by the caller and refreshed by snapshot
// overlays and restorations. Merge semantics are per-key, later write wins.
type State map[string]any

// Clone returns a deep copy of the state. Nested maps and slices are
// copied; scalar values are shared (they are immutable after JSON decode).
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = cloneValue(inner)
		}
		return m
	case State:
		return map[string]any(val.Clone())
	case []any:
		l := make([]any, len(val))
		for i, inner := range val {
			l[i] = cloneValue(inner)
		}
		return l
	default:
		return v
	}
}

// Merge overlays another document onto this one. Overlay keys win; keys
// absent from the overlay are untouched. A nil overlay is a no-op.
func (s State) Merge(overlay State) {
	for k, v := range overlay {
		s[k] = cloneValue(v)
	}
}

// Encode serializes the state for storage.
func (s State) Encode() ([]byte, error) {
	if s == nil {
		s = State{}
	}
	return json.Marshal(s)
}

// DecodeState deserializes a stored state document.
func DecodeState(data []byte) (State, error) {
	if len(data) == 0 {
		return State{}, nil
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s == nil {
		s = State{}
	}
	return s, nil
}

// Summary returns a short human-readable description of the document,
// used in tool responses after a restore.
func (s State) Summary() string {
	if len(s) == 0 {
		return "empty state"
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 8 {
		keys = keys[:8]
	}
	return fmt.Sprintf("%d keys: %s", len(s), strings.Join(keys, ", "))
}

// StringSlice coerces a state value into a list of strings. JSON decoding
// produces []any; anything that is not a string list yields nil.
func StringSlice(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		var out []string
		for _, item := range val {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
