// Package session implements session continuity and snapshot/rollback
// management for sessiond.
//
// It tracks developer work sessions backed by SQLite: point-in-time state
// snapshots for audit and rollback, nested bug-fix investigation contexts,
// and continuity bridges that carry unresolved context from one session
// into the next. The Manager owns the in-memory working set of active
// sessions; the Store is the append-mostly durable source of truth.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// Session statuses. A session is created active and transitions to
// completed exactly once; there is no reactivation.
const (
	StatusActive    = "active"
	StatusResolved  = "resolved"
	StatusCompleted = "completed"
)

// SnapshotType classifies why a snapshot was taken.
type SnapshotType string

// Snapshot types. Every session has exactly one initial snapshot (created
// with the session) and, once completed, exactly one final snapshot.
const (
	SnapshotInitial     SnapshotType = "initial"
	SnapshotCheckpoint  SnapshotType = "checkpoint"
	SnapshotPreBugFix   SnapshotType = "pre_bug_fix"
	SnapshotPostBugFix  SnapshotType = "post_bug_fix"
	SnapshotRestoration SnapshotType = "restoration"
	SnapshotFinal       SnapshotType = "final"
)

// Valid reports whether t is one of the known snapshot types.
func (t SnapshotType) Valid() bool {
	switch t {
	case SnapshotInitial, SnapshotCheckpoint, SnapshotPreBugFix,
		SnapshotPostBugFix, SnapshotRestoration, SnapshotFinal:
		return true
	}
	return false
}

// Session is a bounded unit of developer work against one project and
// technology, with explicit start and end.
type Session struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"project_id"`
	Technology string  `json:"technology"`
	Kind       string  `json:"kind"`
	Status     string  `json:"status"`
	StartedAt  string  `json:"started_at"`
	EndedAt    *string `json:"ended_at,omitempty"`
	Context    State   `json:"context"`
	Summary    *string `json:"summary,omitempty"`
}

// Snapshot is an immutable, timestamped capture of a session's working
// state. StateBlob holds the compressed serialized document.
type Snapshot struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"session_id"`
	Type        SnapshotType `json:"type"`
	Description string       `json:"description,omitempty"`
	TakenAt     string       `json:"taken_at"`
	StateBlob   []byte       `json:"-"`
}

// Attempt is one logged bug-fix attempt within a context.
type Attempt struct {
	LoggedAt    string `json:"logged_at"`
	Description string `json:"description"`
	Changes     State  `json:"changes,omitempty"`
	Outcome     string `json:"outcome"`
}

// BugFixContext tracks the investigation and resolution of a single
// defect within a session. Attempts are append-only; status transitions
// active → resolved exactly once.
type BugFixContext struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	Description    string    `json:"description"`
	PreFixState    State     `json:"pre_fix_state"`
	Attempts       []Attempt `json:"attempts"`
	Status         string    `json:"status"`
	Solution       *string   `json:"solution,omitempty"`
	LessonsLearned []string  `json:"lessons_learned,omitempty"`
	CreatedAt      string    `json:"created_at"`
	ResolvedAt     *string   `json:"resolved_at,omitempty"`
}

// ContinuityBridge links a new session to a prior one, carrying forward
// unresolved state. Created at most once per new session, never mutated.
type ContinuityBridge struct {
	ID                string   `json:"id"`
	SessionID         string   `json:"session_id"`
	PreviousSessionID string   `json:"previous_session_id"`
	CarriedContext    State    `json:"carried_context"`
	UnresolvedIssues  []string `json:"unresolved_issues,omitempty"`
	LearnedPatterns   []string `json:"learned_patterns,omitempty"`
	CreatedAt         string   `json:"created_at"`
}

// TerminationMetrics is computed once when a session ends.
type TerminationMetrics struct {
	SessionID         string  `json:"session_id"`
	DurationHours     float64 `json:"duration_hours"`
	SnapshotsCreated  int     `json:"snapshots_created"`
	BugFixesAttempted int     `json:"bug_fixes_attempted"`
	BugFixesResolved  int     `json:"bug_fixes_resolved"`
	BugFixSuccessRate float64 `json:"bug_fix_success_rate"`
	ProductivityScore float64 `json:"productivity_score"`
}

// metricRows flattens the metrics for the session_analytics relation,
// which feeds the predictor's historical averages.
func (m *TerminationMetrics) metricRows() map[string]float64 {
	return map[string]float64{
		"duration_hours":       m.DurationHours,
		"snapshots_created":    float64(m.SnapshotsCreated),
		"bug_fixes_attempted":  float64(m.BugFixesAttempted),
		"bug_fixes_resolved":   float64(m.BugFixesResolved),
		"bug_fix_success_rate": m.BugFixSuccessRate,
		"productivity_score":   m.ProductivityScore,
	}
}

// ─── Config ──────────────────────────────────────────────────────────────────

// DefaultRingCapacity is the per-session in-memory snapshot ring size.
const DefaultRingCapacity = 50

// Config holds session engine configuration.
type Config struct {
	DataDir                string
	RingCapacity           int
	MaxDescriptionLength   int
	TargetSnapshotsPerHour float64
}

// DefaultConfig returns the default session engine configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:                filepath.Join(home, ".sessiond"),
		RingCapacity:           DefaultRingCapacity,
		MaxDescriptionLength:   200,
		TargetSnapshotsPerHour: 2.0,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the durable session store backed by SQLite. It persists four
// append-mostly relations (sessions, snapshots, bug-fix contexts,
// continuity bridges) plus the analytics rows written at session end.
// Rows are either fully written or not written at all: multi-statement
// mutations run inside a transaction.
type Store struct {
	db  *sql.DB
	cfg Config
}

// NewStore creates a Store with the given configuration. It creates the
// data directory if needed, opens SQLite with WAL mode, and runs
// migrations.
func NewStore(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("session: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "sessions.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("session: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("session: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id   TEXT PRIMARY KEY,
			project_id   TEXT NOT NULL,
			technology   TEXT NOT NULL,
			kind         TEXT NOT NULL DEFAULT 'development',
			status       TEXT NOT NULL DEFAULT 'active',
			started_at   TEXT NOT NULL,
			ended_at     TEXT,
			context_data TEXT NOT NULL DEFAULT '{}',
			summary      TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id, technology, status);

		CREATE TABLE IF NOT EXISTS session_snapshots (
			snapshot_id   TEXT PRIMARY KEY,
			session_id    TEXT NOT NULL,
			snapshot_type TEXT NOT NULL,
			taken_at      TEXT NOT NULL,
			description   TEXT,
			state_blob    BLOB NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		);

		CREATE INDEX IF NOT EXISTS idx_snap_session ON session_snapshots(session_id, taken_at);

		CREATE TABLE IF NOT EXISTS bug_fix_contexts (
			context_id      TEXT PRIMARY KEY,
			session_id      TEXT NOT NULL,
			bug_description TEXT NOT NULL,
			pre_fix_state   TEXT NOT NULL DEFAULT '{}',
			attempts        TEXT NOT NULL DEFAULT '[]',
			status          TEXT NOT NULL DEFAULT 'active',
			solution        TEXT,
			lessons_learned TEXT,
			created_at      TEXT NOT NULL,
			resolved_at     TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		);

		CREATE INDEX IF NOT EXISTS idx_bugfix_session ON bug_fix_contexts(session_id);

		CREATE TABLE IF NOT EXISTS continuity_bridges (
			bridge_id           TEXT PRIMARY KEY,
			session_id          TEXT NOT NULL UNIQUE,
			previous_session_id TEXT NOT NULL,
			carried_context     TEXT NOT NULL DEFAULT '{}',
			unresolved_issues   TEXT NOT NULL DEFAULT '[]',
			learned_patterns    TEXT NOT NULL DEFAULT '[]',
			created_at          TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		);

		CREATE TABLE IF NOT EXISTS session_analytics (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT NOT NULL,
			metric_type  TEXT NOT NULL,
			metric_value REAL NOT NULL,
			recorded_at  TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		);

		CREATE INDEX IF NOT EXISTS idx_analytics_session ON session_analytics(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// InsertSession persists a new session row.
func (s *Store) InsertSession(sess *Session) error {
	ctxJSON, err := sess.Context.Encode()
	if err != nil {
		return fmt.Errorf("encode session context: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (session_id, project_id, technology, kind, status, started_at, context_data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.ProjectID, sess.Technology, sess.Kind, sess.Status, sess.StartedAt, string(ctxJSON),
	)
	return err
}

// GetSession retrieves a session by id.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT session_id, project_id, technology, kind, status, started_at, ended_at, context_data, summary
		 FROM sessions WHERE session_id = ?`, id,
	)
	var sess Session
	var ctxJSON string
	err := row.Scan(&sess.ID, &sess.ProjectID, &sess.Technology, &sess.Kind,
		&sess.Status, &sess.StartedAt, &sess.EndedAt, &ctxJSON, &sess.Summary)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	sess.Context, err = DecodeState([]byte(ctxJSON))
	if err != nil {
		return nil, fmt.Errorf("session %s context: %w", id, ErrCorruptData)
	}
	return &sess, nil
}

// UpdateContext persists the current working-state document of an active
// session without touching its status.
func (s *Store) UpdateContext(id string, ctx State) error {
	ctxJSON, err := ctx.Encode()
	if err != nil {
		return fmt.Errorf("encode session context: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE sessions SET context_data = ? WHERE session_id = ? AND status = ?`,
		string(ctxJSON), id, StatusActive,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// CompleteSession marks a session completed, persisting its end time,
// final context document, and summary. Completing an already-completed
// session is rejected.
func (s *Store) CompleteSession(id, endedAt string, ctx State, summary string) error {
	ctxJSON, err := ctx.Encode()
	if err != nil {
		return fmt.Errorf("encode session context: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE sessions SET status = ?, ended_at = ?, context_data = ?, summary = ?
		 WHERE session_id = ? AND status = ?`,
		StatusCompleted, endedAt, string(ctxJSON), nullableString(summary), id, StatusActive,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteSession removes a session row together with its bridge. Used
// only to roll back a partially created session; established sessions
// are never deleted.
func (s *Store) DeleteSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete session: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM continuity_bridges WHERE session_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE session_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// FinalizeSession terminates a session in one transaction: the status
// flip to completed, the final snapshot, and the termination metrics all
// land together or not at all. A retried termination therefore cannot
// leave a stray final snapshot behind a still-active session.
func (s *Store) FinalizeSession(snap *Snapshot, endedAt string, ctx State, summary string, metrics map[string]float64) error {
	ctxJSON, err := ctx.Encode()
	if err != nil {
		return fmt.Errorf("encode session context: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("finalize session: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(
		`UPDATE sessions SET status = ?, ended_at = ?, context_data = ?, summary = ?
		 WHERE session_id = ? AND status = ?`,
		StatusCompleted, endedAt, string(ctxJSON), nullableString(summary), snap.SessionID, StatusActive,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", snap.SessionID, ErrNotFound)
	}

	if _, err := tx.Exec(
		`INSERT INTO session_snapshots (snapshot_id, session_id, snapshot_type, taken_at, description, state_blob)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.SessionID, string(snap.Type), snap.TakenAt,
		nullableString(snap.Description), snap.StateBlob,
	); err != nil {
		return err
	}

	for metricType, value := range metrics {
		if _, err := tx.Exec(
			`INSERT INTO session_analytics (session_id, metric_type, metric_value, recorded_at)
			 VALUES (?, ?, ?, ?)`,
			snap.SessionID, metricType, value, endedAt,
		); err != nil {
			return fmt.Errorf("insert metric %s: %w", metricType, err)
		}
	}
	return tx.Commit()
}

// ─── Snapshots ───────────────────────────────────────────────────────────────

// AppendSnapshot appends an immutable snapshot row to a session's
// time-ordered sequence. Snapshots are never updated or deleted by
// normal operation: they are the audit and rollback trail.
func (s *Store) AppendSnapshot(snap *Snapshot) error {
	_, err := s.db.Exec(
		`INSERT INTO session_snapshots (snapshot_id, session_id, snapshot_type, taken_at, description, state_blob)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.SessionID, string(snap.Type), snap.TakenAt,
		nullableString(snap.Description), snap.StateBlob,
	)
	return err
}

// GetSnapshot retrieves a snapshot, requiring it to belong to the given
// session: a snapshot id paired with the wrong session id is NotFound.
func (s *Store) GetSnapshot(sessionID, snapshotID string) (*Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT snapshot_id, session_id, snapshot_type, taken_at, COALESCE(description, ''), state_blob
		 FROM session_snapshots WHERE snapshot_id = ? AND session_id = ?`,
		snapshotID, sessionID,
	)
	var snap Snapshot
	var typ string
	err := row.Scan(&snap.ID, &snap.SessionID, &typ, &snap.TakenAt, &snap.Description, &snap.StateBlob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s in session %s: %w", snapshotID, sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	snap.Type = SnapshotType(typ)
	return &snap, nil
}

// ListSnapshots returns a session's snapshot sequence oldest first,
// without the state blobs.
func (s *Store) ListSnapshots(sessionID string) ([]Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT snapshot_id, session_id, snapshot_type, taken_at, COALESCE(description, '')
		 FROM session_snapshots WHERE session_id = ?
		 ORDER BY taken_at ASC, snapshot_id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Snapshot
	for rows.Next() {
		var snap Snapshot
		var typ string
		if err := rows.Scan(&snap.ID, &snap.SessionID, &typ, &snap.TakenAt, &snap.Description); err != nil {
			return nil, err
		}
		snap.Type = SnapshotType(typ)
		result = append(result, snap)
	}
	return result, rows.Err()
}

// CountSnapshots returns the number of snapshots in a session's durable log.
func (s *Store) CountSnapshots(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM session_snapshots WHERE session_id = ?`, sessionID,
	).Scan(&n)
	return n, err
}

// ─── Bug-fix contexts ────────────────────────────────────────────────────────

// InsertBugFix persists a new bug-fix context in active status.
func (s *Store) InsertBugFix(bf *BugFixContext) error {
	preJSON, err := bf.PreFixState.Encode()
	if err != nil {
		return fmt.Errorf("encode pre-fix state: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO bug_fix_contexts (context_id, session_id, bug_description, pre_fix_state, attempts, status, created_at)
		 VALUES (?, ?, ?, ?, '[]', ?, ?)`,
		bf.ID, bf.SessionID, bf.Description, string(preJSON), bf.Status, bf.CreatedAt,
	)
	return err
}

// GetBugFix retrieves a bug-fix context by id with its attempts decoded.
func (s *Store) GetBugFix(contextID string) (*BugFixContext, error) {
	row := s.db.QueryRow(
		`SELECT context_id, session_id, bug_description, pre_fix_state, attempts, status, solution, lessons_learned, created_at, resolved_at
		 FROM bug_fix_contexts WHERE context_id = ?`, contextID,
	)
	return scanBugFix(row, contextID)
}

func scanBugFix(row *sql.Row, contextID string) (*BugFixContext, error) {
	var bf BugFixContext
	var preJSON, attemptsJSON string
	var lessonsJSON *string
	err := row.Scan(&bf.ID, &bf.SessionID, &bf.Description, &preJSON, &attemptsJSON,
		&bf.Status, &bf.Solution, &lessonsJSON, &bf.CreatedAt, &bf.ResolvedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bug-fix context %s: %w", contextID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if bf.PreFixState, err = DecodeState([]byte(preJSON)); err != nil {
		return nil, fmt.Errorf("bug-fix context %s pre-fix state: %w", contextID, ErrCorruptData)
	}
	if err := json.Unmarshal([]byte(attemptsJSON), &bf.Attempts); err != nil {
		return nil, fmt.Errorf("bug-fix context %s attempts: %w", contextID, ErrCorruptData)
	}
	if lessonsJSON != nil {
		if err := json.Unmarshal([]byte(*lessonsJSON), &bf.LessonsLearned); err != nil {
			return nil, fmt.Errorf("bug-fix context %s lessons: %w", contextID, ErrCorruptData)
		}
	}
	return &bf, nil
}

// AppendAttempt appends an attempt record to a context. Attempts against
// a resolved context are rejected: the status machine is single-transition
// and post-resolution notes belong in lessons_learned at resolve time.
func (s *Store) AppendAttempt(contextID string, attempt Attempt) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("append attempt: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var attemptsJSON, status string
	err = tx.QueryRow(
		`SELECT attempts, status FROM bug_fix_contexts WHERE context_id = ?`, contextID,
	).Scan(&attemptsJSON, &status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("bug-fix context %s: %w", contextID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if status != StatusActive {
		return fmt.Errorf("bug-fix context %s is %s: %w", contextID, status, ErrInvalidState)
	}

	var attempts []Attempt
	if err := json.Unmarshal([]byte(attemptsJSON), &attempts); err != nil {
		return fmt.Errorf("bug-fix context %s attempts: %w", contextID, ErrCorruptData)
	}
	attempts = append(attempts, attempt)
	updated, err := json.Marshal(attempts)
	if err != nil {
		return fmt.Errorf("encode attempts: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE bug_fix_contexts SET attempts = ? WHERE context_id = ?`,
		string(updated), contextID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// ResolveBugFix transitions a context to resolved, recording the solution,
// lessons learned, and resolution time. Resolving twice is rejected.
func (s *Store) ResolveBugFix(contextID, solution string, lessons []string, resolvedAt string) error {
	if lessons == nil {
		lessons = []string{}
	}
	lessonsJSON, err := json.Marshal(lessons)
	if err != nil {
		return fmt.Errorf("encode lessons: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE bug_fix_contexts
		 SET status = ?, solution = ?, lessons_learned = ?, resolved_at = ?
		 WHERE context_id = ? AND status = ?`,
		StatusResolved, nullableString(solution), string(lessonsJSON), resolvedAt,
		contextID, StatusActive,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish missing from already-resolved for the caller.
		var status string
		err := s.db.QueryRow(
			`SELECT status FROM bug_fix_contexts WHERE context_id = ?`, contextID,
		).Scan(&status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("bug-fix context %s: %w", contextID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("bug-fix context %s is %s: %w", contextID, status, ErrInvalidState)
	}
	return nil
}

// ListBugFixes returns all bug-fix contexts of a session, oldest first.
func (s *Store) ListBugFixes(sessionID string) ([]BugFixContext, error) {
	rows, err := s.db.Query(
		`SELECT context_id, session_id, bug_description, status, created_at, resolved_at
		 FROM bug_fix_contexts WHERE session_id = ?
		 ORDER BY created_at ASC, context_id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BugFixContext
	for rows.Next() {
		var bf BugFixContext
		if err := rows.Scan(&bf.ID, &bf.SessionID, &bf.Description, &bf.Status, &bf.CreatedAt, &bf.ResolvedAt); err != nil {
			return nil, err
		}
		result = append(result, bf)
	}
	return result, rows.Err()
}

// CountBugFixes returns how many bug-fix contexts a session opened and
// how many of them were resolved.
func (s *Store) CountBugFixes(sessionID string) (attempted, resolved int, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*), COUNT(CASE WHEN status = ? THEN 1 END)
		 FROM bug_fix_contexts WHERE session_id = ?`,
		StatusResolved, sessionID,
	).Scan(&attempted, &resolved)
	return attempted, resolved, err
}

// ─── Continuity bridges ──────────────────────────────────────────────────────

// InsertBridge persists a continuity bridge row. The UNIQUE constraint on
// session_id enforces at most one bridge per new session.
func (s *Store) InsertBridge(b *ContinuityBridge) error {
	ctxJSON, err := b.CarriedContext.Encode()
	if err != nil {
		return fmt.Errorf("encode carried context: %w", err)
	}
	issues := b.UnresolvedIssues
	if issues == nil {
		issues = []string{}
	}
	patterns := b.LearnedPatterns
	if patterns == nil {
		patterns = []string{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("encode unresolved issues: %w", err)
	}
	patternsJSON, err := json.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("encode learned patterns: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO continuity_bridges (bridge_id, session_id, previous_session_id, carried_context, unresolved_issues, learned_patterns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.SessionID, b.PreviousSessionID, string(ctxJSON),
		string(issuesJSON), string(patternsJSON), b.CreatedAt,
	)
	return err
}

// GetBridge retrieves the continuity bridge of a session, if any.
func (s *Store) GetBridge(sessionID string) (*ContinuityBridge, error) {
	row := s.db.QueryRow(
		`SELECT bridge_id, session_id, previous_session_id, carried_context, unresolved_issues, learned_patterns, created_at
		 FROM continuity_bridges WHERE session_id = ?`, sessionID,
	)
	var b ContinuityBridge
	var ctxJSON, issuesJSON, patternsJSON string
	err := row.Scan(&b.ID, &b.SessionID, &b.PreviousSessionID, &ctxJSON, &issuesJSON, &patternsJSON, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bridge for session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if b.CarriedContext, err = DecodeState([]byte(ctxJSON)); err != nil {
		return nil, fmt.Errorf("bridge for session %s context: %w", sessionID, ErrCorruptData)
	}
	if err := json.Unmarshal([]byte(issuesJSON), &b.UnresolvedIssues); err != nil {
		return nil, fmt.Errorf("bridge for session %s issues: %w", sessionID, ErrCorruptData)
	}
	if err := json.Unmarshal([]byte(patternsJSON), &b.LearnedPatterns); err != nil {
		return nil, fmt.Errorf("bridge for session %s patterns: %w", sessionID, ErrCorruptData)
	}
	return &b, nil
}

// ─── Analytics ───────────────────────────────────────────────────────────────

// InsertMetrics writes one analytics row per termination metric, atomically.
func (s *Store) InsertMetrics(sessionID string, metrics map[string]float64, recordedAt string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("insert metrics: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for metricType, value := range metrics {
		if _, err := tx.Exec(
			`INSERT INTO session_analytics (session_id, metric_type, metric_value, recorded_at)
			 VALUES (?, ?, ?, ?)`,
			sessionID, metricType, value, recordedAt,
		); err != nil {
			return fmt.Errorf("insert metric %s: %w", metricType, err)
		}
	}
	return tx.Commit()
}

// AverageCompletedDuration returns the average duration in hours of
// completed sessions for the same project and technology, plus how many
// completed sessions contributed. Duration math happens here rather than
// in SQL so the timestamp format stays a storage detail.
func (s *Store) AverageCompletedDuration(projectID, technology string) (hours float64, count int, err error) {
	rows, err := s.db.Query(
		`SELECT started_at, ended_at FROM sessions
		 WHERE project_id = ? AND technology = ? AND status = ? AND ended_at IS NOT NULL`,
		projectID, technology, StatusCompleted,
	)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	var total float64
	for rows.Next() {
		var startedAt, endedAt string
		if err := rows.Scan(&startedAt, &endedAt); err != nil {
			return 0, 0, err
		}
		start, err := parseTime(startedAt)
		if err != nil {
			continue
		}
		end, err := parseTime(endedAt)
		if err != nil {
			continue
		}
		total += end.Sub(start).Hours()
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}
	return total / float64(count), count, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Truncate shortens a string to max length with ellipsis.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Now returns the current time formatted for storage.
func Now() string {
	return formatTime(time.Now())
}
