// Package types contains common types used across the application
package types

import (
	"github.com/okian/flagmatch/internal/domain/model"
	"github.com/okian/flagmatch/internal/domain/scoreboard"
)

// Ack statuses.
const (
	StatusApplied   = "applied"
	StatusIgnored   = "ignored"
	StatusDuplicate = "duplicate"
)

// Ack answers a select or reset request.
type Ack struct {
	Status    string `json:"status"`
	Accepted  bool   `json:"accepted"`
	Duplicate bool   `json:"duplicate"`
}

// NewAck builds the answer for a command that reached the session loop.
func NewAck(accepted bool) Ack {
	if accepted {
		return Ack{Status: StatusApplied, Accepted: true}
	}
	return Ack{Status: StatusIgnored}
}

// DuplicateAck answers a request id that was already seen.
func DuplicateAck() Ack {
	return Ack{Status: StatusDuplicate, Duplicate: true}
}

// CardView is a card as the page sees it. The flag is only disclosed while
// the card is face up.
type CardView struct {
	UID      string `json:"uid"`
	State    string `json:"state"`
	FlagName string `json:"flag_name,omitempty"`
	FlagCode string `json:"flag_code,omitempty"`
	ImageRef string `json:"image,omitempty"`
}

// NewCardView hides the face of a hidden card.
func NewCardView(c model.Card) CardView { //nolint:gocritic // hugeParam
	v := CardView{UID: c.UID, State: c.State.String()}
	if c.State.FaceUp() {
		v.FlagName = c.FlagName
		v.FlagCode = c.FlagCode
		v.ImageRef = c.ImageRef
	}
	return v
}

// StateView is the full page state.
type StateView struct {
	Version    uint64             `json:"version"`
	GameID     string             `json:"game_id"`
	Cards      []CardView         `json:"cards"`
	Summary    scoreboard.Summary `json:"summary"`
	Log        []string           `json:"log"`
	EndMessage string             `json:"end_message"`
}
