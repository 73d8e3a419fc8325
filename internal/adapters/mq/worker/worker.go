// Package worker drains the session inbox on a single goroutine.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/flagmatch/internal/adapters/mq/queue"
	"github.com/okian/flagmatch/pkg/logger"
	"github.com/okian/flagmatch/pkg/metrics"
)

// Command abstracts what the worker reads off the queue.
type Command = queue.Command

// Handler applies one command. It is never called concurrently.
type Handler interface {
	Handle(ctx context.Context, cmd Command) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, cmd Command) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, cmd Command) error { //nolint:gocritic // hugeParam
	return f(ctx, cmd)
}

// Queue defines how the worker receives commands.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Command
}

// Worker runs commands one at a time.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, h Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		handler:  h,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run implements Worker.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	cmds := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case cmd, ok := <-cmds:
			if !ok {
				return
			}
			if err := w.process(ctx, cmd); err != nil {
				w.logger.Error(ctx, "error processing command", logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown implements Worker. It is safe to call more than once and from
// several goroutines.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, cmd Command) (err error) { //nolint:gocritic // hugeParam
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, cmd.Kind, r)
		}
		if !cmd.TS.IsZero() {
			metrics.RecordCommandLatency(float64(time.Since(cmd.TS).Milliseconds()))
		}
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", cmd.Kind.String())
			metrics.RecordErrorLatency("worker", cmd.Kind.String(), float64(time.Since(start).Milliseconds()))
		}
	}()

	if err := w.handler.Handle(ctx, cmd); err != nil {
		return fmt.Errorf("%s command %q: %w", cmd.Kind, cmd.ID, err)
	}
	return nil
}
