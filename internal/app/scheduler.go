package service

import (
	"context"
	"sync"
	"time"

	eventqueue "github.com/okian/flagmatch/internal/adapters/mq/queue"
	"github.com/okian/flagmatch/internal/domain/model"
	"github.com/okian/flagmatch/internal/domain/turn"
	"github.com/okian/flagmatch/pkg/logger"
)

// timerScheduler runs turn steps on the session loop. A wall-clock timer
// only posts the step back onto the inbox; the worker executes it.
type timerScheduler struct {
	mu      sync.Mutex
	ctx     context.Context
	inbox   eventqueue.Queue
	timers  map[*time.Timer]struct{}
	stopped bool
	logger  logger.Logger
}

func newTimerScheduler(ctx context.Context, inbox eventqueue.Queue, l logger.Logger) *timerScheduler {
	return &timerScheduler{
		ctx:    ctx,
		inbox:  inbox,
		timers: map[*time.Timer]struct{}{},
		logger: l,
	}
}

// Schedule implements turn.Scheduler.
func (t *timerScheduler) Schedule(delay time.Duration, task turn.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	var tm *time.Timer
	tm = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.timers, tm)
		stopped := t.stopped
		t.mu.Unlock()
		if stopped {
			return
		}

		cmd := model.Command{Kind: model.CommandTimer, Task: task}
		if err := t.inbox.Put(t.ctx, cmd); err != nil {
			t.logger.Debug(t.ctx, "timer step dropped", logger.Error(err))
		}
	})
	t.timers[tm] = struct{}{}
}

// Pending returns the number of armed timers.
func (t *timerScheduler) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// Stop disarms every timer. Later Schedule calls do nothing.
func (t *timerScheduler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for tm := range t.timers {
		tm.Stop()
	}
	t.timers = map[*time.Timer]struct{}{}
}
