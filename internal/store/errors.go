package store

import "errors"

// Sentinel errors shared by all store backends. Callers classify failures
// with errors.Is; backends wrap these with eris for context.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a versioned write lost to a concurrent writer.
	// The caller must re-fetch and retry.
	ErrConflict = errors.New("version conflict")

	// ErrAlreadyExists indicates a unique key collision, e.g. a second
	// inspection checklist for the same building and month.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidReference indicates a write referencing a record outside
	// its legal scope, e.g. an override naming a space from another building.
	ErrInvalidReference = errors.New("invalid reference")
)
