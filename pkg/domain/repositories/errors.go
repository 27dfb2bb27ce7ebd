package repositories

import "errors"

var (
	// ErrNotFound is returned when a keyed lookup matches no row
	ErrNotFound = errors.New("not found")
	// ErrSchemaNotReady is returned when the backing table does not exist yet.
	// Read paths may degrade to an empty result on it; write paths never do.
	ErrSchemaNotReady = errors.New("storage schema not ready")
	// ErrConflict is returned when an optimistic row-version check fails or
	// the database aborts a transaction that lost a lock race
	ErrConflict = errors.New("concurrent modification conflict")
)
