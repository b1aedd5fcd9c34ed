package session

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Manager owns the in-memory working set of active sessions and
// coordinates every mutation against the durable store. The durable
// store is the source of truth: in-memory state is only updated after
// the corresponding write succeeds.
type Manager struct {
	store *Store
	codec Codec
	cfg   Config

	mu     sync.RWMutex
	active map[string]*activeSession

	// now is a hook for tests.
	now func() time.Time
}

// activeSession is the in-memory working set entry for one active
// session. Its mutex serializes all mutations of that session; the
// manager's RWMutex only guards the active map itself.
type activeSession struct {
	mu sync.Mutex

	id         string
	projectID  string
	technology string
	kind       string
	startedAt  time.Time

	state     State
	ring      *snapshotRing
	bugFixIDs []string
}

// NewManager creates a Manager over the given store and codec.
func NewManager(store *Store, codec Codec, cfg Config) *Manager {
	return &Manager{
		store:  store,
		codec:  codec,
		cfg:    cfg,
		active: make(map[string]*activeSession),
		now:    time.Now,
	}
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

// CreateSession starts a new session: validates inputs, persists the
// session row, builds a continuity bridge to the previous session when
// one is named, registers the session in the working set, and takes the
// initial snapshot. The returned bridge is nil when no previous session
// was given or the referenced session does not exist.
func (m *Manager) CreateSession(projectID, technology, kind string, initial State, previousSessionID string) (*Session, *ContinuityBridge, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, nil, fmt.Errorf("project_id is required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(technology) == "" {
		return nil, nil, fmt.Errorf("technology is required: %w", ErrInvalidArgument)
	}
	if kind == "" {
		kind = "development"
	}

	ts := m.now()
	sess := &Session{
		ID:         newSessionID(projectID, technology, ts),
		ProjectID:  projectID,
		Technology: technology,
		Kind:       kind,
		Status:     StatusActive,
		StartedAt:  formatTime(ts),
		Context:    initial.Clone(),
	}
	if err := m.store.InsertSession(sess); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	var bridge *ContinuityBridge
	if previousSessionID != "" {
		var err error
		bridge, err = m.buildBridge(sess.ID, previousSessionID, ts)
		if err != nil {
			return nil, nil, fmt.Errorf("create session: %w", err)
		}
	}

	as := &activeSession{
		id:         sess.ID,
		projectID:  projectID,
		technology: technology,
		kind:       kind,
		startedAt:  ts,
		state:      sess.Context.Clone(),
		ring:       newSnapshotRing(m.cfg.RingCapacity),
	}
	if bridge != nil {
		as.state.Merge(bridge.CarriedContext)
	}

	m.mu.Lock()
	m.active[sess.ID] = as
	m.mu.Unlock()

	if _, err := m.snapshotLocked(as, SnapshotInitial, "session start", as.state); err != nil {
		m.mu.Lock()
		delete(m.active, sess.ID)
		m.mu.Unlock()
		// A session without its initial snapshot must not survive as a
		// durable row: nothing could ever operate on it again.
		if derr := m.store.DeleteSession(sess.ID); derr != nil {
			log.Printf("WARNING: rollback of session %s: %v", sess.ID, derr)
		}
		return nil, nil, fmt.Errorf("initial snapshot: %w", err)
	}

	return sess, bridge, nil
}

// EndSession terminates an active session: computes termination metrics
// from the durable record, takes the final snapshot, marks the session
// completed, persists the metrics, and evicts the session from the
// working set. Ending an unknown or already-completed session is NotFound;
// there is nothing left to act on either way.
func (m *Manager) EndSession(sessionID, summary string) (*TerminationMetrics, error) {
	m.mu.RLock()
	as, ok := m.active[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("active session %s: %w", sessionID, ErrNotFound)
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	ts := m.now()
	endedAt := formatTime(ts)

	// Metrics come from the durable log before the final snapshot is
	// appended, so the final snapshot itself is not counted.
	metrics, err := m.computeMetrics(as, ts)
	if err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}

	raw, err := as.state.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode final state: %w", err)
	}
	blob, err := m.codec.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("compress final state: %w", err)
	}
	snap := &Snapshot{
		ID:          newSnapshotID(sessionID, ts),
		SessionID:   sessionID,
		Type:        SnapshotFinal,
		Description: Truncate(summary, m.cfg.MaxDescriptionLength),
		TakenAt:     endedAt,
		StateBlob:   blob,
	}
	if err := m.store.FinalizeSession(snap, endedAt, as.state, summary, metrics.metricRows()); err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}

	m.mu.Lock()
	delete(m.active, sessionID)
	m.mu.Unlock()

	return metrics, nil
}

func (m *Manager) computeMetrics(as *activeSession, ts time.Time) (*TerminationMetrics, error) {
	duration := ts.Sub(as.startedAt).Hours()
	if duration < 0 {
		duration = 0
	}

	snapshots, err := m.store.CountSnapshots(as.id)
	if err != nil {
		return nil, err
	}
	attempted, resolved, err := m.store.CountBugFixes(as.id)
	if err != nil {
		return nil, err
	}

	successRate := 1.0
	if attempted > 0 {
		successRate = float64(resolved) / float64(attempted)
	}

	// Productivity blends snapshot cadence against the target rate with
	// the bug-fix success rate, 60/40.
	cadence := 0.0
	if duration > 0 {
		cadence = float64(snapshots) / duration / m.cfg.TargetSnapshotsPerHour
		if cadence > 1 {
			cadence = 1
		}
	}
	productivity := cadence*0.6 + successRate*0.4

	return &TerminationMetrics{
		SessionID:         as.id,
		DurationHours:     duration,
		SnapshotsCreated:  snapshots,
		BugFixesAttempted: attempted,
		BugFixesResolved:  resolved,
		BugFixSuccessRate: successRate,
		ProductivityScore: productivity,
	}, nil
}

// ─── Working-set access ──────────────────────────────────────────────────────

// lookup returns the working-set entry for a session, distinguishing a
// session that never existed (NotFound) from one that already completed
// (InvalidState).
func (m *Manager) lookup(sessionID string) (*activeSession, error) {
	m.mu.RLock()
	as, ok := m.active[sessionID]
	m.mu.RUnlock()
	if ok {
		return as, nil
	}

	sess, err := m.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusCompleted {
		return nil, fmt.Errorf("session %s is completed: %w", sessionID, ErrInvalidState)
	}
	// Active in the store but not in memory: the server restarted.
	// Sessions do not survive a restart; callers must start a new one
	// with a continuity bridge.
	return nil, fmt.Errorf("session %s is not in the working set: %w", sessionID, ErrInvalidState)
}

// peek returns the working-set entry if the session is active, without
// consulting the store.
func (m *Manager) peek(sessionID string) (*activeSession, bool) {
	m.mu.RLock()
	as, ok := m.active[sessionID]
	m.mu.RUnlock()
	return as, ok
}

// ActiveInfo is a read-only view of one active session, exposed through
// the server's active-sessions resource.
type ActiveInfo struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Technology      string    `json:"technology"`
	Kind            string    `json:"kind"`
	StartedAt       time.Time `json:"started_at"`
	DurationHours   float64   `json:"duration_hours"`
	RecentSnapshots int       `json:"recent_snapshots"`
	OpenBugFixes    int       `json:"open_bug_fixes"`
	StateSummary    string    `json:"state_summary"`
}

// ActiveSessions returns a point-in-time view of the working set.
func (m *Manager) ActiveSessions() []ActiveInfo {
	m.mu.RLock()
	entries := make([]*activeSession, 0, len(m.active))
	for _, as := range m.active {
		entries = append(entries, as)
	}
	m.mu.RUnlock()

	now := m.now()
	infos := make([]ActiveInfo, 0, len(entries))
	for _, as := range entries {
		as.mu.Lock()
		infos = append(infos, ActiveInfo{
			ID:              as.id,
			ProjectID:       as.projectID,
			Technology:      as.technology,
			Kind:            as.kind,
			StartedAt:       as.startedAt,
			DurationHours:   now.Sub(as.startedAt).Hours(),
			RecentSnapshots: as.ring.Len(),
			OpenBugFixes:    len(as.bugFixIDs),
			StateSummary:    as.state.Summary(),
		})
		as.mu.Unlock()
	}
	return infos
}

// ─── Continuity bridges ──────────────────────────────────────────────────────

// buildBridge carries context from a previous session into a new one.
// A previous session that does not exist is logged and skipped rather
// than failing session creation: a stale id should not block new work.
func (m *Manager) buildBridge(sessionID, previousSessionID string, ts time.Time) (*ContinuityBridge, error) {
	prev, err := m.store.GetSession(previousSessionID)
	if errors.Is(err, ErrNotFound) {
		log.Printf("continuity bridge skipped: previous session %s not found", previousSessionID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	bridge := &ContinuityBridge{
		ID:                newBridgeID(sessionID, previousSessionID),
		SessionID:         sessionID,
		PreviousSessionID: previousSessionID,
		CarriedContext:    prev.Context.Clone(),
		UnresolvedIssues:  StringSlice(prev.Context["unresolved_issues"]),
		LearnedPatterns:   StringSlice(prev.Context["patterns_used"]),
		CreatedAt:         formatTime(ts),
	}
	if err := m.store.InsertBridge(bridge); err != nil {
		return nil, fmt.Errorf("continuity bridge: %w", err)
	}
	return bridge, nil
}
