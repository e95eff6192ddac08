package queue

import "errors"

// Sentinel kinds for queue ordering errors.
var (
	ErrAlreadyQueued   = errors.New("game already queued")
	ErrNotQueued       = errors.New("game not queued")
	ErrInvalidPosition = errors.New("invalid queue position")
)
