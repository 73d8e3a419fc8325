package turn

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Task is a deferred step of a turn resolution.
type Task func(ctx context.Context)

// Scheduler runs a task after a delay. Implementations must run tasks on
// the same logical thread that drives the Machine.
type Scheduler interface {
	Schedule(delay time.Duration, task Task)
}

type manualTask struct {
	at   time.Duration
	seq  uint64
	task Task
}

// ManualScheduler is a virtual clock. Tasks run only when Advance or Flush
// is called, on the caller's goroutine.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks []manualTask
}

// NewManualScheduler creates a clock at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule implements Scheduler.
func (s *ManualScheduler) Schedule(delay time.Duration, task Task) {
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.tasks = append(s.tasks, manualTask{at: s.now + delay, seq: s.seq, task: task})
}

// Advance moves the clock forward by d and runs every task that falls due,
// in due-time then scheduling order. Tasks scheduled while advancing run too
// if they fall inside the window. It returns the number of tasks run.
func (s *ManualScheduler) Advance(ctx context.Context, d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	ran := 0
	for {
		t, ok := s.popDue(target)
		if !ok {
			break
		}
		t.task(ctx)
		ran++
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
	return ran
}

// Flush runs tasks until none are pending, moving the clock as needed.
func (s *ManualScheduler) Flush(ctx context.Context) int {
	ran := 0
	for {
		s.mu.Lock()
		if len(s.tasks) == 0 {
			s.mu.Unlock()
			return ran
		}
		s.sortLocked()
		wait := s.tasks[0].at - s.now
		s.mu.Unlock()
		ran += s.Advance(ctx, wait)
	}
}

// Pending returns the number of tasks not yet run.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Now returns the virtual time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) popDue(target time.Duration) (manualTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		return manualTask{}, false
	}
	s.sortLocked()
	t := s.tasks[0]
	if t.at > target {
		return manualTask{}, false
	}
	s.tasks = s.tasks[1:]
	s.now = t.at
	return t, true
}

func (s *ManualScheduler) sortLocked() {
	sort.Slice(s.tasks, func(i, j int) bool {
		if s.tasks[i].at != s.tasks[j].at {
			return s.tasks[i].at < s.tasks[j].at
		}
		return s.tasks[i].seq < s.tasks[j].seq
	})
}
