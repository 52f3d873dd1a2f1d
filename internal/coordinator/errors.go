package coordinator

import "errors"

// Sentinel errors for coordinator operations.
var (
	// ErrAlreadyStarted is returned by Start on a running coordinator.
	ErrAlreadyStarted = errors.New("coordinator: already started")
)
