// Package dedupe tracks client request ids so a retried select or reset is
// applied at most once.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen request IDs.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the request can be retried. Used when a request
	// was recorded but never reached the session loop.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps at most maxSize ids and evicts the oldest first.
// A maxSize of zero or less disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> slot in ring, -1 when unbounded
	ring    []string       // insertion order, "" marks a free slot
	next    int            // next slot to write
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 4096,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

// SeenAndRecord implements Deduper. Empty ids are never recorded.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if id == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize <= 0 {
		d.seen[id] = -1
		return false
	}

	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = id
	d.seen[id] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		d.ring[slot] = ""
	}
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
