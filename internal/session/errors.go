package session

import "errors"

// The four error kinds every operation can surface. Callers distinguish
// them with errors.Is; everything else wraps one of these with context.
var (
	// ErrInvalidArgument marks missing or malformed required input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a session, snapshot, or bug-fix context id that
	// does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation against a session or context
	// whose status forbids it (e.g. mutating a completed session).
	ErrInvalidState = errors.New("invalid state")

	// ErrCorruptData marks a stored snapshot that fails to decompress
	// or deserialize on restore.
	ErrCorruptData = errors.New("corrupt data")
)
