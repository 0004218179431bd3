package storage

import "errors"

// Errors shared by the rating cache and the history stores.
var (
	// ErrNotFound is returned for an unknown team ID or an empty run date.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a team is cached twice or an evaluation
	// ID is already recorded. Entries are never rewritten.
	ErrDuplicateKey = errors.New("duplicate key: entries are never rewritten")

	// ErrInvalidInput is returned for a nil entry, an empty key or a malformed run date.
	ErrInvalidInput = errors.New("invalid input")
)
