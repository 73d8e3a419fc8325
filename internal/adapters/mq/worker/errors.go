package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrHandlerPanic = errors.New("command handler panicked")
)
