package model

import (
	"context"
	"time"
)

// CommandKind identifies what a Command asks the session loop to do.
type CommandKind int

// Command kinds.
const (
	CommandSelect CommandKind = iota + 1
	CommandReset
	CommandTimer
)

// String returns the kind name used in logs and metrics.
func (k CommandKind) String() string {
	switch k {
	case CommandSelect:
		return "select"
	case CommandReset:
		return "reset"
	case CommandTimer:
		return "timer"
	default:
		return "unknown"
	}
}

// Command is one unit of work for the session loop. Commands are applied
// one at a time in arrival order.
type Command struct {
	ID      string      // client request id, may be empty
	Kind    CommandKind // what to do
	CardUID string      // target card for CommandSelect
	// Task runs on the loop for CommandTimer.
	Task func(ctx context.Context)
	// Reply, when set, receives whether the command changed state. It must
	// be buffered; the loop never blocks on it.
	Reply chan<- bool
	TS    time.Time // when the command was created
}
