// Package service runs the game session loop and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	eventqueue "github.com/okian/flagmatch/internal/adapters/mq/queue"
	"github.com/okian/flagmatch/internal/adapters/mq/worker"
	"github.com/okian/flagmatch/internal/adapters/presenter"
	"github.com/okian/flagmatch/internal/domain/dedupe"
	"github.com/okian/flagmatch/internal/domain/deck"
	"github.com/okian/flagmatch/internal/domain/model"
	"github.com/okian/flagmatch/internal/domain/turn"
	"github.com/okian/flagmatch/internal/domain/types"
	"github.com/okian/flagmatch/pkg/logger"
	"github.com/okian/flagmatch/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// StateReader is implemented by presenters the API can read back.
type StateReader interface {
	Snapshot() types.StateView
	Wait(ctx context.Context, after uint64) (types.StateView, error)
}

// Service owns one game session and serializes every input through a
// single worker.
type Service struct {
	mu sync.RWMutex

	// Core components
	deduper   dedupe.Deduper
	inbox     *eventqueue.InMemoryQueue
	worker    *worker.InMemoryWorker
	scheduler *timerScheduler
	session   *Session
	presenter Presenter

	// Configuration
	inboxSize  int
	dedupeSize int
	delays     turn.Delays
	playerOne  string
	playerTwo  string
	imageBase  string
	seed       int64

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithInboxSize sets the maximum number of queued commands.
func WithInboxSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.inboxSize = size
		}
	}
}

// WithDedupeSize sets how many request ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDelays sets the turn resolution timings.
func WithDelays(d turn.Delays) Option {
	return func(s *Service) {
		s.delays = d
	}
}

// WithPlayerNames sets the player display names.
func WithPlayerNames(one, two string) Option {
	return func(s *Service) {
		if one != "" {
			s.playerOne = one
		}
		if two != "" {
			s.playerTwo = two
		}
	}
}

// WithImageBase sets where flag images are served from.
func WithImageBase(base string) Option {
	return func(s *Service) {
		s.imageBase = base
	}
}

// WithSeed makes every deal reproducible. Zero means seed from the clock.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithPresenter replaces the default view model.
func WithPresenter(p Presenter) Option {
	return func(s *Service) {
		if p != nil {
			s.presenter = p
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		inboxSize:  256,
		dedupeSize: 4096,
		delays:     turn.DefaultDelays(),
		playerOne:  "Player 1",
		playerTwo:  "Player 2",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presenter == nil {
		s.presenter = presenter.NewBoard()
	}
	return s
}

// Start deals the first game and starts the session loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting game service...")

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.inbox = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.inboxSize))
	s.scheduler = newTimerScheduler(loopCtx, s.inbox, s.logger)

	builderOpts := []deck.Option{}
	if s.seed != 0 {
		builderOpts = append(builderOpts, deck.WithSeed(s.seed))
	}
	s.session = NewSession(s.scheduler, s.presenter,
		WithCatalog(deck.DefaultCatalog(s.imageBase)),
		WithBuilder(deck.NewBuilder(builderOpts...)),
		WithSessionDelays(s.delays),
		WithSessionPlayers(s.playerOne, s.playerTwo),
		WithSessionLogger(s.logger.Named("session")),
	)

	// The loop is not running yet, so this is still single-threaded.
	s.session.StartOrReset(loopCtx)

	s.worker = worker.NewInMemoryWorker(s.inbox, s,
		worker.WithName("session-loop"),
		worker.WithLogger(s.logger.Named("session-loop")),
	)
	go s.worker.Run(loopCtx)

	s.started = true
	s.logger.Info(ctx, "game service started",
		logger.Int("inboxSize", s.inboxSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("matchDelay", s.delays.MatchSettle),
		logger.Duration("mismatchReveal", s.delays.MismatchReveal),
		logger.Duration("mismatchHide", s.delays.MismatchHide),
	)
	return nil
}

// Stop gracefully shuts down the service. Pending turn steps are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping game service...")

	s.scheduler.Stop()
	_ = s.inbox.Close()

	sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	select {
	case <-s.worker.Done():
	case <-sctx.Done():
		s.logger.Warn(ctx, "session loop did not drain in time")
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "game service stopped")
}

// Select submits a card choice and waits until the loop has applied it.
// A repeated requestID is acknowledged as a duplicate without effect.
func (s *Service) Select(ctx context.Context, requestID, uid string) (types.Ack, error) {
	return s.submit(ctx, model.Command{ID: requestID, Kind: model.CommandSelect, CardUID: uid})
}

// Reset deals a new game, abandoning the current one.
func (s *Service) Reset(ctx context.Context, requestID string) (types.Ack, error) {
	return s.submit(ctx, model.Command{ID: requestID, Kind: model.CommandReset})
}

func (s *Service) submit(ctx context.Context, cmd model.Command) (types.Ack, error) { //nolint:gocritic // hugeParam
	s.mu.RLock()
	started := s.started
	inbox, w, deduper := s.inbox, s.worker, s.deduper
	s.mu.RUnlock()

	if !started {
		if inbox != nil {
			return types.Ack{}, ErrStopped
		}
		return types.Ack{}, ErrNotStarted
	}

	if deduper.SeenAndRecord(ctx, cmd.ID) {
		metrics.RecordDuplicateRequest()
		s.logger.Debug(ctx, "duplicate request", logger.String("request_id", cmd.ID))
		return types.DuplicateAck(), nil
	}

	reply := make(chan bool, 1)
	cmd.Reply = reply
	if !inbox.Enqueue(ctx, cmd) {
		deduper.Unrecord(ctx, cmd.ID)
		if inbox.IsClosed() {
			return types.Ack{}, ErrStopped
		}
		s.logger.Warn(ctx, "inbox full, rejecting command",
			logger.String("kind", cmd.Kind.String()),
			logger.String("request_id", cmd.ID),
		)
		return types.Ack{}, ErrBackpressure
	}

	select {
	case ok := <-reply:
		return types.NewAck(ok), nil
	case <-w.Done():
		return types.Ack{}, ErrStopped
	case <-ctx.Done():
		return types.Ack{}, fmt.Errorf("waiting for %s: %w", cmd.Kind, ctx.Err())
	}
}

// Handle applies one command on the session loop.
func (s *Service) Handle(ctx context.Context, cmd model.Command) error { //nolint:gocritic // hugeParam
	switch cmd.Kind {
	case model.CommandSelect:
		reply(cmd, s.session.Select(ctx, cmd.CardUID))
	case model.CommandReset:
		s.session.StartOrReset(ctx)
		reply(cmd, true)
	case model.CommandTimer:
		if cmd.Task == nil {
			return fmt.Errorf("%w: timer without task", ErrUnknownCommand)
		}
		cmd.Task(ctx)
	default:
		reply(cmd, false)
		return fmt.Errorf("%w: %d", ErrUnknownCommand, cmd.Kind)
	}
	return nil
}

func reply(cmd model.Command, ok bool) { //nolint:gocritic // hugeParam
	if cmd.Reply == nil {
		return
	}
	select {
	case cmd.Reply <- ok:
	default:
	}
}

// State returns the current view.
func (s *Service) State(context.Context) (types.StateView, error) {
	r, ok := s.presenter.(StateReader)
	if !ok {
		return types.StateView{}, ErrNoView
	}
	return r.Snapshot(), nil
}

// WaitState blocks until the view changes past version after.
func (s *Service) WaitState(ctx context.Context, after uint64) (types.StateView, error) {
	r, ok := s.presenter.(StateReader)
	if !ok {
		return types.StateView{}, ErrNoView
	}
	return r.Wait(ctx, after)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"inboxSize":  s.inboxSize,
		"dedupeSize": s.dedupeSize,
	}

	if s.started {
		stats["inboxLength"] = s.inbox.Len(context.Background())
		stats["pendingTimers"] = s.scheduler.Pending()
		stats["dedupeEntries"] = s.deduper.Size()
	}

	if r, ok := s.presenter.(StateReader); ok {
		v := r.Snapshot()
		stats["gameId"] = v.GameID
		stats["version"] = v.Version
		stats["active"] = v.Summary.Active
		stats["totalTurns"] = v.Summary.TotalTurns
		stats["totalMatches"] = v.Summary.TotalMatches
		stats["totalPairs"] = v.Summary.TotalPairs
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
