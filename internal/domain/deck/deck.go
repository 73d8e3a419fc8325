// Package deck builds shuffled boards from the flag catalog.
package deck

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/okian/flagmatch/internal/domain/model"
)

// DefaultImageBase is the CDN the stock catalog points at.
const DefaultImageBase = "https://flagcdn.com/w320"

// dealTokenSpace bounds the per-deal UID prefix (six hex digits).
const dealTokenSpace = 1 << 24

// DefaultCatalog returns the stock six-flag catalog with image references
// rooted at imageBase. An empty base falls back to DefaultImageBase.
func DefaultCatalog(imageBase string) []model.Flag {
	if imageBase == "" {
		imageBase = DefaultImageBase
	}
	imageBase = strings.TrimRight(imageBase, "/")

	flags := []struct{ name, code string }{
		{"China", "cn"},
		{"France", "fr"},
		{"Japan", "jp"},
		{"Cyprus", "cy"},
		{"Greece", "gr"},
		{"Canada", "ca"},
	}

	out := make([]model.Flag, 0, len(flags))
	for _, f := range flags {
		out = append(out, model.Flag{
			Name:     f.name,
			Code:     f.code,
			ImageRef: imageBase + "/" + f.code + ".png",
		})
	}
	return out
}

// Pairs returns two hidden cards per catalog entry in catalog order, with
// readable UIDs of the form <code>-a and <code>-b. Build replaces them.
func Pairs(catalog []model.Flag) []model.Card {
	cards := make([]model.Card, 0, 2*len(catalog))
	for _, f := range catalog {
		for _, suffix := range [...]string{"a", "b"} {
			cards = append(cards, model.Card{
				UID:      f.Code + "-" + suffix,
				FlagName: f.Name,
				FlagCode: f.Code,
				ImageRef: f.ImageRef,
				State:    model.Hidden,
			})
		}
	}
	return cards
}

// Builder produces shuffled decks. It is not safe for concurrent use; the
// session loop owns it.
type Builder struct {
	rng *rand.Rand
}

// Option configures a Builder.
type Option func(*Builder)

// WithSeed makes the shuffle reproducible.
func WithSeed(seed int64) Option {
	return func(b *Builder) {
		b.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand sets the random source directly.
func WithRand(r *rand.Rand) Option {
	return func(b *Builder) {
		if r != nil {
			b.rng = r
		}
	}
}

// NewBuilder creates a Builder seeded from the clock unless an option says
// otherwise.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return b
}

// Build returns a uniformly shuffled deck of 2*len(catalog) hidden cards.
// UIDs are <token>-<position> with a fresh token per deal: they say nothing
// about the flag, and a UID from an earlier deal does not resolve.
// The catalog is not modified.
func (b *Builder) Build(catalog []model.Flag) []model.Card {
	cards := Pairs(catalog)
	for i := len(cards) - 1; i > 0; i-- {
		j := b.rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}

	token := b.rng.Int63n(dealTokenSpace)
	for i := range cards {
		cards[i].UID = fmt.Sprintf("%06x-%02d", token, i)
	}
	return cards
}
