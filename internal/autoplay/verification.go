package autoplay

import (
	"fmt"

	"github.com/okian/flagmatch/internal/domain/model"
	"github.com/okian/flagmatch/internal/domain/scoreboard"
	"github.com/okian/flagmatch/internal/domain/types"
)

// verifyGame checks the end state of a finished game.
func verifyGame(v types.StateView) error {
	s := v.Summary
	if s.Active {
		return fmt.Errorf("%w: game still active", ErrInvariant)
	}
	if s.CurrentLabel != scoreboard.CompleteLabel {
		return fmt.Errorf("%w: current label %q", ErrInvariant, s.CurrentLabel)
	}
	if len(v.Cards) != 2*s.TotalPairs {
		return fmt.Errorf("%w: %d cards for %d pairs", ErrInvariant, len(v.Cards), s.TotalPairs)
	}
	for _, c := range v.Cards {
		if c.State != model.Matched.String() {
			return fmt.Errorf("%w: card %s is %s", ErrInvariant, c.UID, c.State)
		}
	}
	if s.TotalMatches != s.TotalPairs {
		return fmt.Errorf("%w: %d matches for %d pairs", ErrInvariant, s.TotalMatches, s.TotalPairs)
	}

	matches, attempts := 0, 0
	for _, p := range s.Players {
		matches += p.Matches
		attempts += p.Attempts
		if p.Matches > p.Attempts {
			return fmt.Errorf("%w: %s has %d matches in %d attempts", ErrInvariant, p.Name, p.Matches, p.Attempts)
		}
		if p.Accuracy != scoreboard.Accuracy(p.Matches, p.Attempts) {
			return fmt.Errorf("%w: %s accuracy %d", ErrInvariant, p.Name, p.Accuracy)
		}
	}
	if matches != s.TotalMatches {
		return fmt.Errorf("%w: player matches sum to %d, total is %d", ErrInvariant, matches, s.TotalMatches)
	}
	if attempts != s.TotalTurns {
		return fmt.Errorf("%w: player attempts sum to %d, turns are %d", ErrInvariant, attempts, s.TotalTurns)
	}
	if len(v.Log) != s.TotalTurns {
		return fmt.Errorf("%w: %d log lines for %d turns", ErrInvariant, len(v.Log), s.TotalTurns)
	}

	if want := decide(s).Message; v.EndMessage != want {
		return fmt.Errorf("%w: end message %q, want %q", ErrInvariant, v.EndMessage, want)
	}
	return nil
}
