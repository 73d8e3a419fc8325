// Package model contains domain models passed between layers.
package model

import "fmt"

// CardState is the face of a card on the board.
type CardState int

// Card states. Matched is terminal.
const (
	Hidden CardState = iota
	Revealed
	Matched
)

// String returns the lowercase state name used by presentation.
func (s CardState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Revealed:
		return "revealed"
	case Matched:
		return "matched"
	default:
		return fmt.Sprintf("CardState(%d)", int(s))
	}
}

// FaceUp reports whether the card's flag is visible.
func (s CardState) FaceUp() bool {
	return s == Revealed || s == Matched
}

// Flag is one immutable catalog entry.
type Flag struct {
	Name     string // display name, e.g. "China"
	Code     string // ISO 3166-1 alpha-2, e.g. "cn"
	ImageRef string // image URL
}

// Card is one physical piece on the board. Two cards share a flag but never
// a UID.
type Card struct {
	UID      string
	FlagName string
	FlagCode string
	ImageRef string
	State    CardState
}
