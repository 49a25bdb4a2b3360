package interfaces

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrConflict means a conditional write matched nothing.
	ErrConflict = errors.New("write condition not met")
)
