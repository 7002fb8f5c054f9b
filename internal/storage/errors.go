package storage

import "errors"

var (
	// ErrNotConfigured indicates the backing client was not initialised.
	ErrNotConfigured = errors.New("storage: backend not configured")
	// ErrTableNotFound indicates the configured table is not addressable.
	ErrTableNotFound = errors.New("storage: table not found")
)
