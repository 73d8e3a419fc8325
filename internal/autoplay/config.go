package autoplay

import "time"

// Config holds configuration for an autoplay run.
type Config struct {
	BaseURL string        // Base URL of the service
	Games   int           // Number of complete games to play
	Recall  float64       // Chance in [0,1] that a player remembers a revealed card
	Seed    int64         // Seed for the players' memory; 0 uses the clock
	Timeout time.Duration // HTTP request timeout
	LogFile string        // Log file for run output
	Verbose bool          // Log every turn
}

// Stats holds run statistics.
type Stats struct {
	GamesPlayed int
	Turns       int
	Selections  int
	Ignored     int
	Duplicates  int
	Failed      int
	Wins        [2]int
	Ties        int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}
