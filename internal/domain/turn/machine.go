// Package turn implements the two-player turn resolution state machine.
//
// The Machine is not safe for concurrent use. Every call, including the
// deferred tasks it hands to its Scheduler, must happen on one logical
// thread. Deferred tasks carry the epoch they were scheduled in and do
// nothing once Reset has moved the epoch on.
package turn

import (
	"context"
	"time"

	"github.com/okian/flagmatch/internal/domain/model"
)

// Phase is the machine's position within a turn.
type Phase int

// Phases.
const (
	Idle Phase = iota
	OneChosen
	Resolving
	Ended
)

// String returns the phase name used by presentation.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case OneChosen:
		return "one_chosen"
	case Resolving:
		return "resolving"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Delays are the pauses between a second selection and its outcome.
type Delays struct {
	MatchSettle    time.Duration
	MismatchReveal time.Duration
	MismatchHide   time.Duration
}

// DefaultDelays returns the stock timings.
func DefaultDelays() Delays {
	return Delays{
		MatchSettle:    550 * time.Millisecond,
		MismatchReveal: 900 * time.Millisecond,
		MismatchHide:   400 * time.Millisecond,
	}
}

// Listener receives state changes. Calls happen on the machine's thread.
type Listener interface {
	CardChanged(ctx context.Context, card model.Card)
	StatsChanged(ctx context.Context)
	TurnResolved(ctx context.Context, res model.Resolution)
	PairsExhausted(ctx context.Context)
	StaleTaskDiscarded(ctx context.Context, epoch uint64)
}

// NopListener ignores every event.
type NopListener struct{}

func (NopListener) CardChanged(context.Context, model.Card)        {}
func (NopListener) StatsChanged(context.Context)                   {}
func (NopListener) TurnResolved(context.Context, model.Resolution) {}
func (NopListener) PairsExhausted(context.Context)                 {}
func (NopListener) StaleTaskDiscarded(context.Context, uint64)     {}

const none = -1

// Machine owns the board, the player records and the selection state.
type Machine struct {
	sched    Scheduler
	listener Listener
	delays   Delays

	cards []model.Card
	index map[string]int

	players      [model.NumPlayers]model.Player
	current      int
	totalTurns   int
	totalMatches int
	totalPairs   int
	active       bool
	locked       bool
	phase        Phase

	first  int
	second int
	epoch  uint64
}

// Option configures a Machine.
type Option func(*Machine)

// WithDelays overrides the resolution timings.
func WithDelays(d Delays) Option {
	return func(m *Machine) {
		m.delays = d
	}
}

// WithListener sets the event receiver.
func WithListener(l Listener) Option {
	return func(m *Machine) {
		if l != nil {
			m.listener = l
		}
	}
}

// WithPlayerNames sets the display names.
func WithPlayerNames(one, two string) Option {
	return func(m *Machine) {
		m.players[0].Name = one
		m.players[1].Name = two
	}
}

// NewMachine creates an inactive machine. Call Reset to deal a board.
func NewMachine(sched Scheduler, opts ...Option) *Machine {
	m := &Machine{
		sched:    sched,
		listener: NopListener{},
		delays:   DefaultDelays(),
		index:    map[string]int{},
		first:    none,
		second:   none,
	}
	m.players[0].Name = "Player 1"
	m.players[1].Name = "Player 2"
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reset deals cards as a fresh game. Any pending deferred task from the
// previous epoch becomes a no-op. The cards slice is copied.
func (m *Machine) Reset(_ context.Context, cards []model.Card) {
	m.epoch++

	m.cards = make([]model.Card, len(cards))
	copy(m.cards, cards)
	m.index = make(map[string]int, len(cards))
	for i := range m.cards {
		m.cards[i].State = model.Hidden
		m.index[m.cards[i].UID] = i
	}

	for i := range m.players {
		m.players[i].Zero()
	}
	m.current = 0
	m.totalTurns = 0
	m.totalMatches = 0
	m.totalPairs = len(m.cards) / 2
	m.active = m.totalPairs > 0
	m.locked = false
	m.phase = Idle
	m.first = none
	m.second = none
}

// Select chooses a card for the current player. It reports whether the
// selection was accepted; rejected selections change nothing.
func (m *Machine) Select(ctx context.Context, uid string) bool {
	if !m.active || m.locked {
		return false
	}
	i, ok := m.index[uid]
	if !ok || m.cards[i].State != model.Hidden {
		return false
	}

	m.setState(ctx, i, model.Revealed)
	if m.first == none {
		m.first = i
		m.phase = OneChosen
		return true
	}

	m.second = i
	m.locked = true
	m.phase = Resolving
	m.resolve(ctx)
	return true
}

// End stops the game. The board stays locked until the next Reset.
func (m *Machine) End(_ context.Context) {
	m.active = false
	m.locked = true
	m.phase = Ended
}

func (m *Machine) resolve(ctx context.Context) {
	p := &m.players[m.current]
	p.Attempts++
	m.totalTurns++
	turn := m.totalTurns
	m.listener.StatsChanged(ctx)

	if m.cards[m.first].FlagName == m.cards[m.second].FlagName {
		m.after(m.delays.MatchSettle, func(ctx context.Context) {
			m.settleMatch(ctx, turn)
		})
		return
	}
	m.after(m.delays.MismatchReveal, func(ctx context.Context) {
		m.settleMismatch(ctx, turn)
	})
}

func (m *Machine) settleMatch(ctx context.Context, turn int) {
	m.setState(ctx, m.first, model.Matched)
	m.setState(ctx, m.second, model.Matched)

	p := &m.players[m.current]
	p.RecordMatch()
	m.totalMatches++

	flag := m.cards[m.first].FlagName
	m.listener.TurnResolved(ctx, model.Resolution{
		Kind:        model.Match,
		Turn:        turn,
		PlayerIndex: m.current,
		PlayerName:  p.Name,
		Flags:       [2]string{flag, flag},
	})

	m.first, m.second = none, none
	m.locked = false
	m.phase = Idle
	m.listener.StatsChanged(ctx)

	if m.totalMatches == m.totalPairs {
		m.listener.PairsExhausted(ctx)
	}
}

func (m *Machine) settleMismatch(ctx context.Context, turn int) {
	p := &m.players[m.current]
	p.RecordMismatch()

	m.listener.TurnResolved(ctx, model.Resolution{
		Kind:        model.Mismatch,
		Turn:        turn,
		PlayerIndex: m.current,
		PlayerName:  p.Name,
		Flags:       [2]string{m.cards[m.first].FlagName, m.cards[m.second].FlagName},
	})

	m.after(m.delays.MismatchHide, m.hideMismatch)
}

func (m *Machine) hideMismatch(ctx context.Context) {
	m.setState(ctx, m.first, model.Hidden)
	m.setState(ctx, m.second, model.Hidden)

	m.first, m.second = none, none
	m.current = 1 - m.current
	m.locked = false
	m.phase = Idle
	m.listener.StatsChanged(ctx)
}

// after schedules fn tagged with the current epoch.
func (m *Machine) after(d time.Duration, fn Task) {
	epoch := m.epoch
	m.sched.Schedule(d, func(ctx context.Context) {
		if epoch != m.epoch {
			m.listener.StaleTaskDiscarded(ctx, epoch)
			return
		}
		fn(ctx)
	})
}

func (m *Machine) setState(ctx context.Context, i int, s model.CardState) {
	m.cards[i].State = s
	m.listener.CardChanged(ctx, m.cards[i])
}

// Session returns a copy of the session counters.
func (m *Machine) Session() model.Session {
	return model.Session{
		CurrentPlayer: m.current,
		TotalTurns:    m.totalTurns,
		TotalMatches:  m.totalMatches,
		TotalPairs:    m.totalPairs,
		Active:        m.active,
		Locked:        m.locked,
		Phase:         m.phase.String(),
	}
}

// Players returns a copy of both player records.
func (m *Machine) Players() [model.NumPlayers]model.Player {
	return m.players
}

// Cards returns a copy of the board in deal order.
func (m *Machine) Cards() []model.Card {
	out := make([]model.Card, len(m.cards))
	copy(out, m.cards)
	return out
}

// Card looks up one card by UID.
func (m *Machine) Card(uid string) (model.Card, bool) {
	i, ok := m.index[uid]
	if !ok {
		return model.Card{}, false
	}
	return m.cards[i], true
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Epoch returns the reset generation.
func (m *Machine) Epoch() uint64 {
	return m.epoch
}
