package documents

import "errors"

var (
	// ErrInvalidInput indicates an empty, oversized, or unsupported upload.
	ErrInvalidInput = errors.New("invalid document")

	// ErrStorage wraps object store failures on upload or download.
	ErrStorage = errors.New("document storage failure")
)
