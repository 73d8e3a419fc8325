// Package scoreboard derives presentation values from player records and
// keeps the game log.
package scoreboard

import (
	"fmt"
	"math"

	"github.com/okian/flagmatch/internal/domain/model"
)

// CompleteLabel replaces the current player's name once the game ends.
const CompleteLabel = "Game complete"

// Accuracy returns matches/attempts as a whole percentage, 0 when there are
// no attempts.
func Accuracy(matches, attempts int) int {
	if attempts == 0 {
		return 0
	}
	return int(math.Round(float64(matches) / float64(attempts) * 100))
}

// FormatResolution renders one log line.
func FormatResolution(r model.Resolution) string {
	if r.Kind == model.Match {
		return fmt.Sprintf("Turn %d: %s found the pair of %s flags.", r.Turn, r.PlayerName, r.Flags[0])
	}
	return fmt.Sprintf("Turn %d: %s revealed %s and %s - no match.", r.Turn, r.PlayerName, r.Flags[0], r.Flags[1])
}

// PlayerView is one player's stats panel.
type PlayerView struct {
	Name       string `json:"name"`
	Matches    int    `json:"matches"`
	Attempts   int    `json:"attempts"`
	Accuracy   int    `json:"accuracy"`
	Streak     int    `json:"streak"`
	BestStreak int    `json:"best_streak"`
	Active     bool   `json:"active"`
}

// Summary is everything the stats panel shows.
type Summary struct {
	GameID        string                       `json:"game_id"`
	CurrentPlayer int                          `json:"current_player"`
	CurrentLabel  string                       `json:"current_label"`
	Active        bool                         `json:"active"`
	Locked        bool                         `json:"locked"`
	Phase         string                       `json:"phase"`
	TotalTurns    int                          `json:"total_turns"`
	TotalMatches  int                          `json:"total_matches"`
	TotalPairs    int                          `json:"total_pairs"`
	MatchesLabel  string                       `json:"matches_label"`
	Players       [model.NumPlayers]PlayerView `json:"players"`
}

// Summarize builds the stats panel for a session. GameID is left for the
// caller to fill in.
func Summarize(sess model.Session, players [model.NumPlayers]model.Player) Summary {
	s := Summary{
		CurrentPlayer: sess.CurrentPlayer,
		CurrentLabel:  CompleteLabel,
		Active:        sess.Active,
		Locked:        sess.Locked,
		Phase:         sess.Phase,
		TotalTurns:    sess.TotalTurns,
		TotalMatches:  sess.TotalMatches,
		TotalPairs:    sess.TotalPairs,
		MatchesLabel:  fmt.Sprintf("%d / %d", sess.TotalMatches, sess.TotalPairs),
	}
	if sess.Active {
		s.CurrentLabel = players[sess.CurrentPlayer].Name
	}

	for i, p := range players {
		s.Players[i] = PlayerView{
			Name:       p.Name,
			Matches:    p.Matches,
			Attempts:   p.Attempts,
			Accuracy:   Accuracy(p.Matches, p.Attempts),
			Streak:     p.Streak,
			BestStreak: p.BestStreak,
			Active:     sess.Active && i == sess.CurrentPlayer,
		}
	}
	return s
}

// Game results.
const (
	ResultPlayerOne = "player_one"
	ResultPlayerTwo = "player_two"
	ResultTie       = "tie"
)

// Outcome is the verdict at the end of a game.
type Outcome struct {
	Winner  int // player index, -1 on a tie
	Result  string
	Message string
}

// Decide compares match counts. Strictly more matches wins.
func Decide(players [model.NumPlayers]model.Player) Outcome {
	p1, p2 := players[0], players[1]
	switch {
	case p1.Matches > p2.Matches:
		return Outcome{
			Winner:  0,
			Result:  ResultPlayerOne,
			Message: fmt.Sprintf("Game over! %s wins with %d pairs!", p1.Name, p1.Matches),
		}
	case p2.Matches > p1.Matches:
		return Outcome{
			Winner:  1,
			Result:  ResultPlayerTwo,
			Message: fmt.Sprintf("Game over! %s wins with %d pairs!", p2.Name, p2.Matches),
		}
	default:
		return Outcome{
			Winner:  -1,
			Result:  ResultTie,
			Message: "Game over! It's a tie! You both matched the same number of flags.",
		}
	}
}
