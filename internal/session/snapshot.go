package session

import "fmt"

// CreateSnapshot captures the session's working state, with an optional
// overlay merged into the captured document. The overlay affects only
// the snapshot, not the live working state: a snapshot is a record of
// "state plus what the caller wants remembered at this point", while
// the working state only advances through restores.
func (m *Manager) CreateSnapshot(sessionID string, typ SnapshotType, description string, overlay State) (*SnapshotRef, error) {
	if typ == "" {
		typ = SnapshotCheckpoint
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("unknown snapshot type %q: %w", typ, ErrInvalidArgument)
	}
	if m.cfg.MaxDescriptionLength > 0 && len(description) > m.cfg.MaxDescriptionLength {
		return nil, fmt.Errorf("description exceeds %d characters: %w", m.cfg.MaxDescriptionLength, ErrInvalidArgument)
	}

	as, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	capture := as.state.Clone()
	capture.Merge(overlay)
	return m.snapshotLocked(as, typ, description, capture)
}

// snapshotLocked encodes, compresses, and appends a snapshot, then
// records it in the session's in-memory ring. Caller holds as.mu.
func (m *Manager) snapshotLocked(as *activeSession, typ SnapshotType, description string, doc State) (*SnapshotRef, error) {
	ts := m.now()

	raw, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode snapshot state: %w", err)
	}
	blob, err := m.codec.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("compress snapshot state: %w", err)
	}

	snap := &Snapshot{
		ID:          newSnapshotID(as.id, ts),
		SessionID:   as.id,
		Type:        typ,
		Description: description,
		TakenAt:     formatTime(ts),
		StateBlob:   blob,
	}
	if err := m.store.AppendSnapshot(snap); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	ref := SnapshotRef{ID: snap.ID, Type: typ, Description: description, TakenAt: ts}
	as.ring.Append(ref)
	return &ref, nil
}

// RestoreSnapshot rolls a session's working state back by merging a
// stored snapshot's document over the current state. The merged result
// is itself recorded as a restoration snapshot before it becomes the
// working state, so the rollback is in the audit trail and the working
// state never changes unless the durable write succeeded.
func (m *Manager) RestoreSnapshot(sessionID, snapshotID string) (State, *SnapshotRef, error) {
	as, err := m.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	snap, err := m.store.GetSnapshot(sessionID, snapshotID)
	if err != nil {
		return nil, nil, err
	}

	raw, err := m.codec.Decompress(snap.StateBlob)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w: %v", snapshotID, ErrCorruptData, err)
	}
	restored, err := DecodeState(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w: %v", snapshotID, ErrCorruptData, err)
	}

	candidate := as.state.Clone()
	candidate.Merge(restored)

	ref, err := m.snapshotLocked(as, SnapshotRestoration,
		fmt.Sprintf("restored from %s", snapshotID), candidate)
	if err != nil {
		return nil, nil, err
	}
	if err := m.store.UpdateContext(sessionID, candidate); err != nil {
		return nil, nil, fmt.Errorf("persist restored state: %w", err)
	}

	as.state = candidate
	return candidate.Clone(), ref, nil
}

// RecentSnapshots returns the session's in-memory ring entries, oldest
// first. Older snapshots evicted from the ring remain retrievable
// through the durable log.
func (m *Manager) RecentSnapshots(sessionID string) ([]SnapshotRef, error) {
	as, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.ring.Refs(), nil
}
