package admins

import "errors"

var (
	ErrNotFound           = errors.New("admin not found")
	ErrConflict           = errors.New("admin email already registered")
	ErrInvalidInput       = errors.New("invalid admin input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPersistence        = errors.New("admin store failure")
)
