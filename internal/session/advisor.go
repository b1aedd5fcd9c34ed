package session

import (
	"fmt"
	"math"
	"time"
)

// Advisor computes session-health recommendations and outcome
// predictions from the durable record. It is read-only: nothing it
// produces is persisted, and the same session state always yields the
// same scores.
type Advisor struct {
	store *Store
	cfg   Config

	// now is a hook for tests.
	now func() time.Time
}

// NewAdvisor creates an Advisor over the given store.
func NewAdvisor(store *Store, cfg Config) *Advisor {
	return &Advisor{store: store, cfg: cfg, now: time.Now}
}

// Recommendation is the health assessment of a session.
type Recommendation struct {
	SessionID         string   `json:"session_id"`
	DurationHours     float64  `json:"duration_hours"`
	HealthScore       float64  `json:"health_score"`
	HealthLabel       string   `json:"health_label"`
	SnapshotsCreated  int      `json:"snapshots_created"`
	BugFixesAttempted int      `json:"bug_fixes_attempted"`
	BugFixesResolved  int      `json:"bug_fixes_resolved"`
	Recommendations   []string `json:"recommendations"`
}

// Prediction estimates how a session is likely to end.
type Prediction struct {
	SessionID               string  `json:"session_id"`
	SuccessProbability      float64 `json:"success_probability"`
	RiskScore               float64 `json:"risk_score"`
	EstimatedRemainingHours float64 `json:"estimated_remaining_hours"`
	HistoricalSessions      int     `json:"historical_sessions"`
	AverageDurationHours    float64 `json:"average_duration_hours"`
}

// defaultAverageHours stands in for the historical average when no
// completed sessions exist yet for the project and technology.
const defaultAverageHours = 2.0

func (a *Advisor) sessionFacts(sessionID string) (sess *Session, duration float64, snapshots, attempted, resolved int, err error) {
	sess, err = a.store.GetSession(sessionID)
	if err != nil {
		return nil, 0, 0, 0, 0, err
	}

	start, err := parseTime(sess.StartedAt)
	if err != nil {
		return nil, 0, 0, 0, 0, fmt.Errorf("session %s start time: %w", sessionID, ErrCorruptData)
	}
	end := a.now()
	if sess.EndedAt != nil {
		if parsed, perr := parseTime(*sess.EndedAt); perr == nil {
			end = parsed
		}
	}
	duration = end.Sub(start).Hours()
	if duration < 0 {
		duration = 0
	}

	if snapshots, err = a.store.CountSnapshots(sessionID); err != nil {
		return nil, 0, 0, 0, 0, err
	}
	if attempted, resolved, err = a.store.CountBugFixes(sessionID); err != nil {
		return nil, 0, 0, 0, 0, err
	}
	return sess, duration, snapshots, attempted, resolved, nil
}

// RecommendActions scores a session's health and suggests next actions.
//
// The score starts at 1.0 and loses points for long duration, a high
// bug-fix rate, and a sparse snapshot trail. The thresholds are tuned
// for solo development sessions of a few hours.
func (a *Advisor) RecommendActions(sessionID string) (*Recommendation, error) {
	_, duration, snapshots, attempted, resolved, err := a.sessionFacts(sessionID)
	if err != nil {
		return nil, err
	}

	score := 1.0
	var recs []string

	if duration > 4 {
		score -= 0.1
		recs = append(recs, "Session has run over 4 hours; consider taking a break or wrapping up.")
	}
	if duration > 6 {
		score -= 0.2
		recs = append(recs, "Session has run over 6 hours; end it and start fresh with a continuity bridge.")
	}

	if duration > 0 && float64(attempted)/duration > 2 {
		score -= 0.2
		recs = append(recs, "Bug fixes are piling up; step back and review the approach before the next attempt.")
	}

	expected := int(math.Max(1, math.Floor(duration*a.cfg.TargetSnapshotsPerHour)))
	if float64(snapshots) < float64(expected)*0.5 {
		score -= 0.1
		recs = append(recs, "Few snapshots for the elapsed time; snapshot before the next risky change.")
	}

	if unresolved := attempted - resolved; unresolved > 0 {
		recs = append(recs, fmt.Sprintf("%d bug-fix context(s) still open; resolve or log attempts before ending the session.", unresolved))
	}
	if len(recs) == 0 {
		recs = append(recs, "Session looks healthy; keep snapshotting at natural checkpoints.")
	}

	score = clamp(score, 0, 1)
	return &Recommendation{
		SessionID:         sessionID,
		DurationHours:     duration,
		HealthScore:       score,
		HealthLabel:       healthLabel(score),
		SnapshotsCreated:  snapshots,
		BugFixesAttempted: attempted,
		BugFixesResolved:  resolved,
		Recommendations:   recs,
	}, nil
}

// PredictOutcome estimates success probability, risk, and remaining time
// for a session, anchored on the historical average duration of completed
// sessions for the same project and technology.
func (a *Advisor) PredictOutcome(sessionID string) (*Prediction, error) {
	sess, duration, snapshots, attempted, resolved, err := a.sessionFacts(sessionID)
	if err != nil {
		return nil, err
	}

	avg, count, err := a.store.AverageCompletedDuration(sess.ProjectID, sess.Technology)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		avg = defaultAverageHours
	}
	unresolved := attempted - resolved

	success := 0.8
	switch {
	case duration > avg*1.5:
		success -= 0.2
	case duration < avg*0.5:
		success += 0.1
	}
	if unresolved > 2 {
		success -= 0.15 * float64(unresolved)
	}
	success = clamp(success, 0.1, 1.0)

	risk := 0.2
	if duration > 4 {
		risk += 0.1 * (duration - 4)
	}
	if attempted > 3 {
		risk += 0.1 * float64(attempted-3)
	}
	if duration > 0 && float64(snapshots)/duration >= a.cfg.TargetSnapshotsPerHour {
		risk -= 0.1
	}
	risk = clamp(risk, 0, 1)

	remaining := math.Max(0, avg-duration) + 0.5*float64(unresolved)
	if remaining < 0.25 {
		remaining = 0.25
	}

	return &Prediction{
		SessionID:               sessionID,
		SuccessProbability:      success,
		RiskScore:               risk,
		EstimatedRemainingHours: remaining,
		HistoricalSessions:      count,
		AverageDurationHours:    avg,
	}, nil
}

func healthLabel(score float64) string {
	switch {
	case score >= 0.8:
		return "excellent"
	case score >= 0.6:
		return "good"
	case score >= 0.4:
		return "fair"
	default:
		return "poor"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
