// Package presenter keeps the view model the game page renders from.
package presenter

import (
	"context"
	"sync"

	"github.com/okian/flagmatch/internal/domain/model"
	"github.com/okian/flagmatch/internal/domain/scoreboard"
	"github.com/okian/flagmatch/internal/domain/types"
)

// Board is a thread-safe view model. The session loop writes to it; HTTP
// handlers read snapshots. Every write bumps Version.
type Board struct {
	mu         sync.RWMutex
	version    uint64
	cards      []model.Card
	index      map[string]int
	summary    scoreboard.Summary
	log        []string
	endMessage string
	changed    chan struct{}
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		index:   map[string]int{},
		changed: make(chan struct{}),
	}
}

// RenderBoard replaces the whole board.
func (b *Board) RenderBoard(cards []model.Card) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cards = make([]model.Card, len(cards))
	copy(b.cards, cards)
	b.index = make(map[string]int, len(cards))
	for i, c := range b.cards {
		b.index[c.UID] = i
	}
	b.bumpLocked()
}

// SetCardFace turns one card. Unknown UIDs are ignored.
func (b *Board) SetCardFace(uid string, state model.CardState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[uid]
	if !ok {
		return
	}
	b.cards[i].State = state
	b.bumpLocked()
}

// UpdateStats replaces the stats panel.
func (b *Board) UpdateStats(s scoreboard.Summary) { //nolint:gocritic // hugeParam
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary = s
	b.bumpLocked()
}

// AppendLogEntry adds a line to the game log.
func (b *Board) AppendLogEntry(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = append(b.log, text)
	b.bumpLocked()
}

// ShowEndMessage sets the banner. An empty text clears it.
func (b *Board) ShowEndMessage(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endMessage = text
	b.bumpLocked()
}

// ClearLog empties the game log.
func (b *Board) ClearLog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = nil
	b.bumpLocked()
}

// Version returns the number of writes so far.
func (b *Board) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Snapshot returns a copy of the current view.
func (b *Board) Snapshot() types.StateView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// Wait blocks until the version moves past after, then returns a snapshot.
// It returns the current snapshot and ctx.Err() if ctx ends first.
func (b *Board) Wait(ctx context.Context, after uint64) (types.StateView, error) {
	for {
		b.mu.RLock()
		if b.version > after {
			v := b.snapshotLocked()
			b.mu.RUnlock()
			return v, nil
		}
		ch := b.changed
		b.mu.RUnlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return b.Snapshot(), ctx.Err()
		}
	}
}

func (b *Board) bumpLocked() {
	b.version++
	close(b.changed)
	b.changed = make(chan struct{})
}

func (b *Board) snapshotLocked() types.StateView {
	cards := make([]types.CardView, len(b.cards))
	for i, c := range b.cards {
		cards[i] = types.NewCardView(c)
	}
	log := make([]string, len(b.log))
	copy(log, b.log)

	return types.StateView{
		Version:    b.version,
		GameID:     b.summary.GameID,
		Cards:      cards,
		Summary:    b.summary,
		Log:        log,
		EndMessage: b.endMessage,
	}
}
