package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Ids are deterministic, prefixed for readability, and collision-resistant:
// a sha256 over the identity fields, truncated for session ids; snapshot
// and bug-fix ids embed the parent session id plus a nanosecond timestamp.

func newSessionID(projectID, technology string, ts time.Time) string {
	unique := projectID + "|" + technology + "|" + strconv.FormatInt(ts.UnixNano(), 10)
	h := sha256.Sum256([]byte(unique))
	return "sess_" + hex.EncodeToString(h[:])[:12]
}

func newSnapshotID(sessionID string, ts time.Time) string {
	return fmt.Sprintf("snap_%s_%d", sessionID, ts.UnixNano())
}

func newBugFixID(sessionID string, ts time.Time) string {
	return fmt.Sprintf("bugfix_%s_%d", sessionID, ts.UnixNano())
}

func newBridgeID(sessionID, previousSessionID string) string {
	return fmt.Sprintf("bridge_%s_%s", sessionID, previousSessionID)
}

// timeFormat is the storage format for all timestamps. RFC3339Nano keeps
// snapshot ordering strict even within the same millisecond.
const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}
