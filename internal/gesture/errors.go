package gesture

import "errors"

var (
	// ErrEmptyGesture is returned when scoring a gesture with no tokens.
	ErrEmptyGesture = errors.New("gesture has no tokens")
	// ErrNoCandidates is returned when no candidate could be scored.
	ErrNoCandidates = errors.New("no candidates to match against")
	// ErrInvalidPattern is returned for malformed pattern file entries.
	ErrInvalidPattern = errors.New("invalid gesture pattern")
)
