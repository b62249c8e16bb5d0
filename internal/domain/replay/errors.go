package replay

import (
	"errors"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidCategory = errors.New("invalid category")
)

// Skip reasons recorded on warnings and metrics.
const (
	ReasonInvalidTimestamp = "invalid_timestamp"
	ReasonEmptySide        = "empty_side"
	ReasonUnknownWinner    = "unknown_winner"
	ReasonUnknownEntity    = "unknown_entity"
)
