package model

// NumPlayers is fixed: the game is strictly two-player.
const NumPlayers = 2

// Player holds one player's running statistics.
//
// Attempts counts resolved turns, not clicks. Streak counts consecutive
// matches since the last mismatch and BestStreak never drops below it.
type Player struct {
	Name       string
	Matches    int
	Attempts   int
	Streak     int
	BestStreak int
}

// Zero clears the statistics and keeps the name.
func (p *Player) Zero() {
	p.Matches = 0
	p.Attempts = 0
	p.Streak = 0
	p.BestStreak = 0
}

// RecordMatch applies a successful pair to the statistics.
func (p *Player) RecordMatch() {
	p.Matches++
	p.Streak++
	if p.Streak > p.BestStreak {
		p.BestStreak = p.Streak
	}
}

// RecordMismatch breaks the current streak.
func (p *Player) RecordMismatch() {
	p.Streak = 0
}
