package session

import "time"

// SnapshotRef is a lightweight reference to a persisted snapshot, kept in
// the per-session in-memory ring for fast recent-activity access.
type SnapshotRef struct {
	ID          string       `json:"id"`
	Type        SnapshotType `json:"type"`
	Description string       `json:"description,omitempty"`
	TakenAt     time.Time    `json:"taken_at"`
}

// snapshotRing is a fixed-capacity list of recent snapshot references.
// Appending past capacity evicts the oldest entry. Eviction is purely an
// in-memory cache concern: the durable snapshot log is never touched.
type snapshotRing struct {
	capacity int
	refs     []SnapshotRef
}

func newSnapshotRing(capacity int) *snapshotRing {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &snapshotRing{capacity: capacity}
}

func (r *snapshotRing) Append(ref SnapshotRef) {
	r.refs = append(r.refs, ref)
	if len(r.refs) > r.capacity {
		r.refs = r.refs[1:]
	}
}

func (r *snapshotRing) Len() int { return len(r.refs) }

// Refs returns a copy of the current entries, oldest first.
func (r *snapshotRing) Refs() []SnapshotRef {
	out := make([]SnapshotRef, len(r.refs))
	copy(out, r.refs)
	return out
}
