// Package queue is the session loop's inbox: a bounded in-memory queue of
// commands consumed by a single worker.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/flagmatch/internal/domain/model"
	"github.com/okian/flagmatch/pkg/metrics"
)

const defaultCapacity = 256

// Command is the payload type flowing through the queue.
type Command = model.Command

// Queue provides non-blocking and blocking enqueue with channel-based dequeue.
type Queue interface {
	// Enqueue adds a command without waiting.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, c Command) bool

	// Put adds a command, waiting for room until ctx is done or the queue
	// closes.
	Put(ctx context.Context, c Command) error

	// Dequeue returns a channel that yields commands in arrival order.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Command

	// Len returns the current number of queued commands.
	Len(ctx context.Context) int

	// Close stops accepting commands.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	commands chan Command
	capacity int

	mu        sync.RWMutex
	closed    bool
	closing   chan struct{}
	closeOnce sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		closing:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.commands = make(chan Command, q.capacity)

	metrics.UpdateInboxCapacity(q.capacity)
	metrics.UpdateInboxSize(0)
	metrics.UpdateInboxUtilization(0.0)

	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Command) bool { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordInboxEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.commands <- q.stamp(c):
		q.recordEnqueue()
		return true
	case <-ctx.Done():
		metrics.RecordInboxEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordInboxEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Put implements Queue. Timer expiries use it so they are never dropped.
func (q *InMemoryQueue) Put(ctx context.Context, c Command) error { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordInboxEnqueueError()
		return ErrClosed
	}

	select {
	case q.commands <- q.stamp(c):
		q.recordEnqueue()
		return nil
	case <-q.closing:
		metrics.RecordInboxEnqueueError()
		return ErrClosed
	case <-ctx.Done():
		metrics.RecordInboxEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Command {
	out := make(chan Command)
	go func() {
		defer close(out)
		for c := range q.commands {
			select {
			case out <- c:
				metrics.RecordInboxDequeue()
				q.updateGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len implements Queue.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.updateGauges()
}

// Close implements Queue. Blocked Put calls return ErrClosed.
func (q *InMemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		// Wake blocked Put calls before taking the write lock they hold
		// a read lock against.
		close(q.closing)

		q.mu.Lock()
		q.closed = true
		close(q.commands)
		q.mu.Unlock()
	})
	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) stamp(c Command) Command { //nolint:gocritic // hugeParam
	if c.TS.IsZero() {
		c.TS = time.Now()
	}
	return c
}

func (q *InMemoryQueue) recordEnqueue() {
	metrics.RecordInboxEnqueue()
	q.updateGauges()
}

func (q *InMemoryQueue) updateGauges() int {
	size := len(q.commands)
	metrics.UpdateInboxSize(size)
	metrics.UpdateInboxUtilization(float64(size) / float64(q.capacity))
	return size
}
