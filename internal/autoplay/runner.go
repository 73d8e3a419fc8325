// Package autoplay plays complete games against a running server and
// checks the end state of each one.
package autoplay

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/flagmatch/internal/domain/model"
	"github.com/okian/flagmatch/internal/domain/scoreboard"
	"github.com/okian/flagmatch/internal/domain/types"
	"github.com/okian/flagmatch/pkg/logger"
)

// Run executes the complete autoplay session.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	applyDefaults(config)
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting flagmatch autoplay",
		logger.String("baseURL", config.BaseURL),
		logger.Int("games", config.Games),
		logger.Float64("recall", config.Recall),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose))

	client := NewClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Play and verify each game
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // game moves
	var players [model.NumPlayers]*Memory
	for i := range players {
		players[i] = NewMemory(config.Recall, rng)
	}

	for g := 1; g <= config.Games; g++ {
		if err := playGame(ctx, client, players, config, stats); err != nil {
			return stats, fmt.Errorf("game %d: %w", g, err)
		}
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "autoplay completed successfully")
	return stats, nil
}

func applyDefaults(config *Config) {
	if config.Games <= 0 {
		config.Games = DefaultGames
	}
	if config.Recall < 0 || config.Recall > 1 {
		config.Recall = DefaultRecall
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
}

func playGame(ctx context.Context, c *Client, players [model.NumPlayers]*Memory, config *Config, stats *Stats) error {
	if _, err := c.Reset(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	for _, p := range players {
		p.Forget()
	}

	v, err := c.State(ctx, 0)
	if err != nil {
		return err
	}
	gameID := v.GameID

	for n := 0; v.Summary.Active; n++ {
		if n >= maxTurns {
			return fmt.Errorf("%w: %d turns without an end", ErrStuck, n)
		}
		if v.GameID != gameID {
			return fmt.Errorf("%w: game changed from %s to %s", ErrInvariant, gameID, v.GameID)
		}
		v, err = playTurn(ctx, c, players, v, n == 0, stats)
		if err != nil {
			return err
		}
		if config.Verbose && len(v.Log) > 0 {
			logger.Get().Info(ctx, "turn", logger.String("entry", v.Log[len(v.Log)-1]))
		}
	}

	if err := verifyGame(v); err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.Turns += v.Summary.TotalTurns
	switch out := decide(v.Summary); out.Result {
	case scoreboard.ResultTie:
		stats.Ties++
	default:
		stats.Wins[out.Winner]++
	}

	logger.Get().Info(ctx, "game finished",
		logger.String("gameId", gameID),
		logger.Int("turns", v.Summary.TotalTurns),
		logger.String("result", v.EndMessage))
	return nil
}

// playTurn makes both selections for the current player and waits for the
// turn to settle. On the opening turn it also replays the first request id.
func playTurn(ctx context.Context, c *Client, players [model.NumPlayers]*Memory, v types.StateView, opening bool, stats *Stats) (types.StateView, error) {
	me := players[v.Summary.CurrentPlayer]

	first, err := me.First(hiddenUIDs(v.Cards))
	if err != nil {
		return v, err
	}
	requestID := uuid.NewString()
	if err := selectCard(ctx, c, requestID, first, stats); err != nil {
		return v, err
	}
	if opening {
		ack, err := c.Select(ctx, requestID, first)
		if err != nil {
			stats.Failed++
			return v, err
		}
		if !ack.Duplicate {
			return v, fmt.Errorf("%w: replayed request %s was applied", ErrInvariant, requestID)
		}
		stats.Duplicates++
	}

	if v, err = c.State(ctx, 0); err != nil {
		return v, err
	}
	observeAll(players, v.Cards)
	card, ok := findCard(v.Cards, first)
	if !ok || card.State != model.Revealed.String() {
		return v, fmt.Errorf("%w: %s not revealed after selection", ErrInvariant, first)
	}

	second, err := me.Second(first, card.FlagCode, hiddenUIDs(v.Cards))
	if err != nil {
		return v, err
	}
	if err := selectCard(ctx, c, uuid.NewString(), second, stats); err != nil {
		return v, err
	}

	if v, err = c.State(ctx, 0); err != nil {
		return v, err
	}
	observeAll(players, v.Cards)
	return settle(ctx, c, v)
}

func selectCard(ctx context.Context, c *Client, requestID, uid string, stats *Stats) error {
	ack, err := c.Select(ctx, requestID, uid)
	if err != nil {
		stats.Failed++
		return err
	}
	stats.Selections++
	if !ack.Accepted {
		stats.Ignored++
		return fmt.Errorf("%w: selection of %s was ignored", ErrInvariant, uid)
	}
	return nil
}

// settle long-polls until the board is open again or the game is over.
func settle(ctx context.Context, c *Client, v types.StateView) (types.StateView, error) {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	for v.Summary.Locked && v.Summary.Active {
		next, err := c.State(ctx, v.Version)
		if err != nil {
			return v, fmt.Errorf("%w: %w", ErrStuck, err)
		}
		v = next
	}
	return v, nil
}

func observeAll(players [model.NumPlayers]*Memory, cards []types.CardView) {
	for _, p := range players {
		p.Observe(cards)
	}
}

func decide(s scoreboard.Summary) scoreboard.Outcome {
	var players [model.NumPlayers]model.Player
	for i, p := range s.Players {
		players[i] = model.Player{Name: p.Name, Matches: p.Matches, Attempts: p.Attempts}
	}
	return scoreboard.Decide(players)
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(stats *Stats) {
	var turnsPerGame float64
	if stats.GamesPlayed > 0 {
		turnsPerGame = float64(stats.Turns) / float64(stats.GamesPlayed)
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("gamesPlayed", stats.GamesPlayed),
		logger.Int("turns", stats.Turns),
		logger.Float64("turnsPerGame", turnsPerGame),
		logger.Int("selections", stats.Selections),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("ignored", stats.Ignored),
		logger.Int("failed", stats.Failed),
		logger.Int("playerOneWins", stats.Wins[0]),
		logger.Int("playerTwoWins", stats.Wins[1]),
		logger.Int("ties", stats.Ties),
		logger.Duration("duration", stats.Duration))
}
