package students

import "errors"

var (
	// ErrNotFound indicates no student matched the lookup key.
	ErrNotFound = errors.New("student not found")

	// ErrInvalidInput indicates a malformed request, such as an unknown department key.
	ErrInvalidInput = errors.New("invalid student input")

	// ErrConflict indicates a unique identifier is already taken by another student.
	ErrConflict = errors.New("student already exists")

	// ErrDocumentNotFound indicates the document does not belong to the student and department.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrPersistence wraps failures of the underlying store.
	ErrPersistence = errors.New("student store failure")
)
