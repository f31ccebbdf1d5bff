// Package apperr holds the sentinel errors shared across leafnote layers.
package apperr

import "errors"

var (
	// ErrInvalidPersistedData reports JSON that could not be decoded on load.
	ErrInvalidPersistedData = errors.New("invalid persisted data")
	// ErrBackendWrite reports a failed serialize or storage write on save.
	ErrBackendWrite = errors.New("backend write failure")

	ErrDuplicateOrEmptyTitle = errors.New("page title is empty or already exists")
	ErrEmptyContent          = errors.New("note content is empty")
	ErrNoPageSelected        = errors.New("no page selected")
	ErrPageNotFound          = errors.New("page not found")
	ErrNoteIndex             = errors.New("note index out of range")
)

// IsInput reports whether err is a user input validation failure, which
// front ends surface as a transient warning rather than a failure.
func IsInput(err error) bool {
	return errors.Is(err, ErrDuplicateOrEmptyTitle) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrNoPageSelected) ||
		errors.Is(err, ErrNoteIndex)
}
