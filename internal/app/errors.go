package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrStopped        = errors.New("service stopped")
	ErrBackpressure   = errors.New("inbox full")
	ErrUnknownCommand = errors.New("unknown command")
	ErrNoView         = errors.New("presenter has no readable view")
)
