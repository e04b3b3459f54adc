package presence

import "errors"

var (
	// ErrNotAuthorized means the username has no configured credential.
	ErrNotAuthorized = errors.New("user not authorized for presence publishing")

	// ErrRetryLater means a transient failure; the caller may retry the
	// same request once the condition clears.
	ErrRetryLater = errors.New("presence publishing temporarily unavailable")
)
