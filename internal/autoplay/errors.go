package autoplay

import "errors"

// Error constants.
var (
	ErrUnhealthy  = errors.New("service unhealthy")
	ErrRequest    = errors.New("request failed")
	ErrStuck      = errors.New("game did not progress")
	ErrInvariant  = errors.New("invariant violated")
	ErrNoMoveLeft = errors.New("no hidden card to select")
)
