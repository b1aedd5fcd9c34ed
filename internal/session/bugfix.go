package session

import (
	"fmt"
	"strings"
)

// StartBugFix opens a bug-fix context within an active session. The
// current working state, with an optional overlay merged in, is captured
// both as the context's pre-fix state and as a pre_bug_fix snapshot, so
// the state at the moment the bug was encountered can be inspected and
// rolled back to later. The overlay does not touch the live working
// state, same as snapshot overlays.
func (m *Manager) StartBugFix(sessionID, description string, overlay State) (*BugFixContext, *SnapshotRef, error) {
	if strings.TrimSpace(description) == "" {
		return nil, nil, fmt.Errorf("bug description is required: %w", ErrInvalidArgument)
	}

	as, err := m.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	capture := as.state.Clone()
	capture.Merge(overlay)

	ts := m.now()
	ref, err := m.snapshotLocked(as, SnapshotPreBugFix,
		Truncate("before fixing: "+description, m.cfg.MaxDescriptionLength), capture)
	if err != nil {
		return nil, nil, err
	}

	bf := &BugFixContext{
		ID:          newBugFixID(sessionID, ts),
		SessionID:   sessionID,
		Description: description,
		PreFixState: capture,
		Attempts:    []Attempt{},
		Status:      StatusActive,
		CreatedAt:   formatTime(ts),
	}
	if err := m.store.InsertBugFix(bf); err != nil {
		return nil, nil, fmt.Errorf("start bug fix: %w", err)
	}

	as.bugFixIDs = append(as.bugFixIDs, bf.ID)
	return bf, ref, nil
}

// LogAttempt appends an attempt record to an open bug-fix context.
// Attempts are append-only; the store rejects attempts against a
// resolved context.
func (m *Manager) LogAttempt(contextID, description, outcome string, changes State) (*BugFixContext, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("attempt description is required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(outcome) == "" {
		return nil, fmt.Errorf("attempt outcome is required: %w", ErrInvalidArgument)
	}

	bf, err := m.store.GetBugFix(contextID)
	if err != nil {
		return nil, err
	}

	// Serialize against other mutations of the parent session while it
	// is active. A context may outlive its session in the working set;
	// the store-level status check still applies then.
	if as, ok := m.peek(bf.SessionID); ok {
		as.mu.Lock()
		defer as.mu.Unlock()
	}

	attempt := Attempt{
		LoggedAt:    formatTime(m.now()),
		Description: description,
		Changes:     changes.Clone(),
		Outcome:     outcome,
	}
	if err := m.store.AppendAttempt(contextID, attempt); err != nil {
		return nil, err
	}
	return m.store.GetBugFix(contextID)
}

// ResolveBugFix closes a bug-fix context with its solution and lessons
// learned, and captures the session's state as a post_bug_fix snapshot.
// The parent session must still be active: resolution is part of the
// session's record, so a completed session's contexts stay as they were.
func (m *Manager) ResolveBugFix(contextID, solution string, lessons []string) (*BugFixContext, *SnapshotRef, error) {
	if strings.TrimSpace(solution) == "" {
		return nil, nil, fmt.Errorf("solution is required: %w", ErrInvalidArgument)
	}

	bf, err := m.store.GetBugFix(contextID)
	if err != nil {
		return nil, nil, err
	}

	as, err := m.lookup(bf.SessionID)
	if err != nil {
		return nil, nil, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	if err := m.store.ResolveBugFix(contextID, solution, lessons, formatTime(m.now())); err != nil {
		return nil, nil, err
	}

	ref, err := m.snapshotLocked(as, SnapshotPostBugFix,
		Truncate("after fixing: "+bf.Description, m.cfg.MaxDescriptionLength), as.state)
	if err != nil {
		return nil, nil, err
	}

	resolved, err := m.store.GetBugFix(contextID)
	if err != nil {
		return nil, nil, err
	}
	return resolved, ref, nil
}
