package notifications

import "errors"

var (
	// ErrNotFound indicates the notification does not exist or is not owned by the caller.
	ErrNotFound = errors.New("notification not found")

	// ErrInvalidInput indicates missing or malformed notification fields.
	ErrInvalidInput = errors.New("invalid notification")

	// ErrStudentNotFound indicates the target student could not be resolved.
	ErrStudentNotFound = errors.New("student not found")

	// ErrPersistence wraps failures of the underlying store.
	ErrPersistence = errors.New("notification store failure")
)
