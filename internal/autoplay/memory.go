package autoplay

import (
	"math/rand"

	"github.com/okian/flagmatch/internal/domain/model"
	"github.com/okian/flagmatch/internal/domain/types"
)

// Memory is what one simulated player remembers about the board.
type Memory struct {
	rng    *rand.Rand
	recall float64
	seen   map[string]string // uid -> flag code
}

// NewMemory creates a player memory. Each revealed card is remembered with
// probability recall.
func NewMemory(recall float64, rng *rand.Rand) *Memory {
	return &Memory{rng: rng, recall: recall, seen: make(map[string]string)}
}

// Forget clears everything, for a new deal.
func (m *Memory) Forget() {
	clear(m.seen)
}

// Known returns how many cards the player currently remembers.
func (m *Memory) Known() int {
	return len(m.seen)
}

// Observe looks at the board. Revealed cards may be remembered; matched
// cards are dropped since they can no longer be chosen.
func (m *Memory) Observe(cards []types.CardView) {
	for _, c := range cards {
		switch c.State {
		case model.Matched.String():
			delete(m.seen, c.UID)
		case model.Revealed.String():
			if _, ok := m.seen[c.UID]; !ok && m.rng.Float64() < m.recall {
				m.seen[c.UID] = c.FlagCode
			}
		}
	}
}

// First picks the opening card of a turn: one half of a remembered pair if
// there is one, otherwise a card the player has not seen.
func (m *Memory) First(hidden []string) (string, error) {
	byCode := make(map[string]int, len(hidden))
	for _, uid := range hidden {
		if code, ok := m.seen[uid]; ok {
			byCode[code]++
			if byCode[code] == 2 {
				return m.partnerOf(uid, code, hidden), nil
			}
		}
	}
	return m.pick(hidden, "")
}

// Second picks the closing card once the first card shows code.
func (m *Memory) Second(first, code string, hidden []string) (string, error) {
	for _, uid := range hidden {
		if uid != first && m.seen[uid] == code {
			return uid, nil
		}
	}
	return m.pick(hidden, first)
}

func (m *Memory) partnerOf(uid, code string, hidden []string) string {
	for _, other := range hidden {
		if other != uid && m.seen[other] == code {
			return other
		}
	}
	return uid
}

// pick prefers unseen cards, then any card other than skip.
func (m *Memory) pick(hidden []string, skip string) (string, error) {
	var unseen, rest []string
	for _, uid := range hidden {
		if uid == skip {
			continue
		}
		if _, ok := m.seen[uid]; ok {
			rest = append(rest, uid)
		} else {
			unseen = append(unseen, uid)
		}
	}
	if len(unseen) > 0 {
		return unseen[m.rng.Intn(len(unseen))], nil
	}
	if len(rest) > 0 {
		return rest[m.rng.Intn(len(rest))], nil
	}
	return "", ErrNoMoveLeft
}

func hiddenUIDs(cards []types.CardView) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		if c.State == model.Hidden.String() {
			out = append(out, c.UID)
		}
	}
	return out
}

func findCard(cards []types.CardView, uid string) (types.CardView, bool) {
	for _, c := range cards {
		if c.UID == uid {
			return c, true
		}
	}
	return types.CardView{}, false
}
