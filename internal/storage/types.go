package storage

import "errors"

var (
	// ErrNotFound indicates that the referenced entity, mapping, or
	// queue entry does not exist. Callers treat this as a routine
	// outcome, not a failure.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// ListOptions narrows entity reads. The zero value lists everything.
type ListOptions struct {
	// Type restricts results to one entity type. Empty means all types.
	Type string
}
