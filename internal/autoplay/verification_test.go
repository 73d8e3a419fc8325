package autoplay

import (
	"errors"
	"testing"

	"github.com/okian/flagmatch/internal/domain/scoreboard"
	"github.com/okian/flagmatch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func finishedView() types.StateView {
	v := types.StateView{
		GameID:     "g",
		EndMessage: "Game over! Ana wins with 2 pairs!",
		Log:        []string{"t1", "t2", "t3"},
	}
	for _, uid := range []string{"cn-a", "cn-b", "fr-a", "fr-b"} {
		v.Cards = append(v.Cards, types.CardView{UID: uid, State: "matched"})
	}
	v.Summary = scoreboard.Summary{
		CurrentLabel: scoreboard.CompleteLabel,
		TotalTurns:   3,
		TotalMatches: 2,
		TotalPairs:   2,
	}
	v.Summary.Players[0] = scoreboard.PlayerView{Name: "Ana", Matches: 2, Attempts: 2, Accuracy: 100}
	v.Summary.Players[1] = scoreboard.PlayerView{Name: "Bo", Matches: 0, Attempts: 1, Accuracy: 0}
	return v
}

func TestVerifyGame(t *testing.T) {
	Convey("Given a consistent finished game", t, func() {
		v := finishedView()

		Convey("Then it verifies", func() {
			So(verifyGame(v), ShouldBeNil)
		})

		Convey("When the game is still active", func() {
			v.Summary.Active = true
			So(errors.Is(verifyGame(v), ErrInvariant), ShouldBeTrue)
		})

		Convey("When a card is not matched", func() {
			v.Cards[1].State = "hidden"
			So(errors.Is(verifyGame(v), ErrInvariant), ShouldBeTrue)
		})

		Convey("When attempts do not add up to turns", func() {
			v.Summary.Players[1].Attempts = 2
			So(errors.Is(verifyGame(v), ErrInvariant), ShouldBeTrue)
		})

		Convey("When the log misses a turn", func() {
			v.Log = v.Log[:2]
			So(errors.Is(verifyGame(v), ErrInvariant), ShouldBeTrue)
		})

		Convey("When accuracy is wrong", func() {
			v.Summary.Players[0].Accuracy = 50
			So(errors.Is(verifyGame(v), ErrInvariant), ShouldBeTrue)
		})

		Convey("When the end message names the wrong winner", func() {
			v.EndMessage = "Game over! Bo wins with 2 pairs!"
			So(errors.Is(verifyGame(v), ErrInvariant), ShouldBeTrue)
		})

		Convey("When the players tie", func() {
			v.Summary.Players[0].Matches = 1
			v.Summary.Players[0].Accuracy = 50
			v.Summary.Players[1].Matches = 1
			v.Summary.Players[1].Accuracy = 100
			v.EndMessage = "Game over! It's a tie! You both matched the same number of flags."
			So(verifyGame(v), ShouldBeNil)
		})
	})
}
