package repositories

import "errors"

var (
	// ErrNotFound is returned when a targeted record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate record")
)
