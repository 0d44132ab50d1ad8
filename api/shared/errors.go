/* errors.go
 * Contains the error kinds surfaced by the core packages. Callers classify
 * failures with errors.Is; none of these are retried inside the core.
 */

package shared

import "errors"

var (
	// ErrNotFound marks an unknown participant, event or bet. Never fatal.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks an operation that does not fit the current state,
	// e.g. submitting a score with no pending event or re-setting a result on
	// a non-tied event.
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict marks a rejected duplicate: a second event with the same
	// teams and kickoff, or a second result write. The operation is aborted
	// with no partial write.
	ErrConflict = errors.New("conflict")
	// ErrValidation marks malformed user input. The pending context is kept
	// so the user may retry.
	ErrValidation = errors.New("validation error")
)
