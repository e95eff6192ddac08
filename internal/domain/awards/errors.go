package awards

import "errors"

// Sentinel kinds for award reconciliation errors.
var (
	ErrInvalidSlot   = errors.New("invalid award slot")
	ErrMissingWinner = errors.New("missing winner id")
)
