package scoreboard

import (
	"sync"

	"github.com/okian/flagmatch/internal/domain/model"
)

// Entry is one rendered log line.
type Entry struct {
	Turn int                  `json:"turn"`
	Kind model.ResolutionKind `json:"kind"`
	Text string               `json:"text"`
}

// Log is the append-only game log. Past entries are never rewritten; only
// Reset empties it.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append formats r and adds it to the end of the log.
func (l *Log) Append(r model.Resolution) Entry {
	e := Entry{Turn: r.Turn, Kind: r.Kind, Text: FormatResolution(r)}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return e
}

// Entries returns a copy of the log in append order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset empties the log.
func (l *Log) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
