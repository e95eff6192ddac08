package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound    = errors.New("game not found")
	ErrInvalidGame = errors.New("invalid game record")
)
