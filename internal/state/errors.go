package state

import "errors"

var (
	// ErrCorruptState is returned when a progress file is not a JSON array of ids.
	ErrCorruptState = errors.New("corrupt crawl state")

	// ErrRunNotFound is returned when no run matches the requested id.
	ErrRunNotFound = errors.New("run not found")

	// ErrDatabaseNotFound is returned by Open when the database must
	// already exist and does not.
	ErrDatabaseNotFound = errors.New("database not found")
)
