package autoplay

import "time"

// Defaults applied by Run when a Config field is unset.
const (
	DefaultGames   = 3
	DefaultRecall  = 0.8
	DefaultTimeout = 30 * time.Second
)

// Polling limits while a turn settles.
const (
	settleTimeout = 10 * time.Second
	maxTurns      = 200
)
