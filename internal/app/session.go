package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/okian/flagmatch/internal/domain/deck"
	"github.com/okian/flagmatch/internal/domain/model"
	"github.com/okian/flagmatch/internal/domain/scoreboard"
	"github.com/okian/flagmatch/internal/domain/turn"
	"github.com/okian/flagmatch/pkg/logger"
	"github.com/okian/flagmatch/pkg/metrics"
)

// Presenter is what the session needs from the page.
type Presenter interface {
	RenderBoard(cards []model.Card)
	SetCardFace(uid string, state model.CardState)
	UpdateStats(summary scoreboard.Summary)
	AppendLogEntry(text string)
	ShowEndMessage(text string)
	ClearLog()
}

// Session is the game controller. It owns the machine, the deck builder
// and the log, and drives the presenter. It is not safe for concurrent use;
// the Service runs it on a single worker.
type Session struct {
	machine   *turn.Machine
	builder   *deck.Builder
	catalog   []model.Flag
	log       *scoreboard.Log
	presenter Presenter
	logger    logger.Logger

	gameID  string
	outcome *scoreboard.Outcome
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	catalog   []model.Flag
	builder   *deck.Builder
	delays    turn.Delays
	playerOne string
	playerTwo string
	logger    logger.Logger
}

// WithCatalog replaces the stock flag catalog.
func WithCatalog(c []model.Flag) SessionOption {
	return func(cfg *sessionConfig) {
		if len(c) > 0 {
			cfg.catalog = c
		}
	}
}

// WithBuilder sets the deck builder, typically a seeded one.
func WithBuilder(b *deck.Builder) SessionOption {
	return func(cfg *sessionConfig) {
		if b != nil {
			cfg.builder = b
		}
	}
}

// WithSessionDelays overrides the turn resolution timings.
func WithSessionDelays(d turn.Delays) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.delays = d
	}
}

// WithSessionPlayers sets the player display names.
func WithSessionPlayers(one, two string) SessionOption {
	return func(cfg *sessionConfig) {
		if one != "" {
			cfg.playerOne = one
		}
		if two != "" {
			cfg.playerTwo = two
		}
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(cfg *sessionConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// NewSession wires a controller. Deferred turn steps go through sched.
// Call StartOrReset before the first selection.
func NewSession(sched turn.Scheduler, p Presenter, opts ...SessionOption) *Session {
	cfg := sessionConfig{
		delays:    turn.DefaultDelays(),
		playerOne: "Player 1",
		playerTwo: "Player 2",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.catalog == nil {
		cfg.catalog = deck.DefaultCatalog("")
	}
	if cfg.builder == nil {
		cfg.builder = deck.NewBuilder()
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("session")
	}

	s := &Session{
		builder:   cfg.builder,
		catalog:   cfg.catalog,
		log:       scoreboard.NewLog(),
		presenter: p,
		logger:    cfg.logger,
	}
	s.machine = turn.NewMachine(sched,
		turn.WithDelays(cfg.delays),
		turn.WithPlayerNames(cfg.playerOne, cfg.playerTwo),
		turn.WithListener(sessionEvents{s}),
	)
	return s
}

// StartOrReset deals a new game. It is safe at any point, including while
// a turn is still resolving: the pending steps are discarded.
func (s *Session) StartOrReset(ctx context.Context) {
	previous := s.gameID
	s.gameID = uuid.NewString()
	s.outcome = nil

	s.log.Reset()
	s.machine.Reset(ctx, s.builder.Build(s.catalog))

	s.presenter.ClearLog()
	s.presenter.ShowEndMessage("")
	s.presenter.RenderBoard(s.machine.Cards())
	s.refreshStats()

	metrics.RecordGameStarted()
	s.logger.Info(ctx, "game started",
		logger.String("game_id", s.gameID),
		logger.String("previous_game_id", previous),
		logger.Int("pairs", len(s.catalog)),
		logger.Uint64("epoch", s.machine.Epoch()),
	)
}

// Select forwards a card choice to the machine.
func (s *Session) Select(ctx context.Context, uid string) bool {
	ok := s.machine.Select(ctx, uid)
	metrics.RecordSelection(ok)
	if !ok {
		s.logger.Debug(ctx, "selection ignored",
			logger.String("game_id", s.gameID),
			logger.String("uid", uid),
			logger.String("phase", s.machine.Phase().String()),
		)
	}
	return ok
}

// GameID returns the current game's identifier.
func (s *Session) GameID() string {
	return s.gameID
}

// Summary returns the current stats panel.
func (s *Session) Summary() scoreboard.Summary {
	sum := scoreboard.Summarize(s.machine.Session(), s.machine.Players())
	sum.GameID = s.gameID
	return sum
}

// Log returns the game log so far.
func (s *Session) Log() []scoreboard.Entry {
	return s.log.Entries()
}

// Cards returns the board in deal order.
func (s *Session) Cards() []model.Card {
	return s.machine.Cards()
}

// Outcome returns the verdict once the game has ended.
func (s *Session) Outcome() (scoreboard.Outcome, bool) {
	if s.outcome == nil {
		return scoreboard.Outcome{}, false
	}
	return *s.outcome, true
}

func (s *Session) refreshStats() {
	sum := s.Summary()
	s.presenter.UpdateStats(sum)
	metrics.UpdateCurrentGame(sum.TotalTurns, sum.TotalMatches)
}

func (s *Session) finishGame(ctx context.Context) {
	s.machine.End(ctx)

	o := scoreboard.Decide(s.machine.Players())
	s.outcome = &o
	s.presenter.ShowEndMessage(o.Message)
	s.refreshStats()

	metrics.RecordGameFinished(o.Result)
	s.logger.Info(ctx, "game finished",
		logger.String("game_id", s.gameID),
		logger.String("result", o.Result),
		logger.Int("turns", s.machine.Session().TotalTurns),
	)
}

// sessionEvents routes machine events to the log, the presenter and metrics.
type sessionEvents struct {
	s *Session
}

func (e sessionEvents) CardChanged(_ context.Context, c model.Card) { //nolint:gocritic // hugeParam
	e.s.presenter.SetCardFace(c.UID, c.State)
}

func (e sessionEvents) StatsChanged(context.Context) {
	e.s.refreshStats()
}

func (e sessionEvents) TurnResolved(ctx context.Context, res model.Resolution) {
	entry := e.s.log.Append(res)
	e.s.presenter.AppendLogEntry(entry.Text)
	metrics.RecordTurnResolved(string(res.Kind))
	e.s.logger.Debug(ctx, "turn resolved",
		logger.String("game_id", e.s.gameID),
		logger.Int("turn", res.Turn),
		logger.String("kind", string(res.Kind)),
		logger.String("player", res.PlayerName),
	)
}

func (e sessionEvents) PairsExhausted(ctx context.Context) {
	e.s.finishGame(ctx)
}

func (e sessionEvents) StaleTaskDiscarded(ctx context.Context, epoch uint64) {
	metrics.RecordStaleTaskDiscarded()
	e.s.logger.Debug(ctx, "stale turn step discarded",
		logger.Uint64("task_epoch", epoch),
		logger.Uint64("epoch", e.s.machine.Epoch()),
	)
}
