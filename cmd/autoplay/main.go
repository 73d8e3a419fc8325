package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/flagmatch/internal/autoplay"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		games   = flag.Int("games", autoplay.DefaultGames, "Number of games to play")
		recall  = flag.Float64("recall", autoplay.DefaultRecall, "Chance that a player remembers a revealed card")
		seed    = flag.Int64("seed", 0, "Seed for the players' memory (0 uses the clock)")
		timeout = flag.Duration("timeout", autoplay.DefaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for run output (default: autoplay_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Log every turn")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		autoplay.ShowHelp()
		return
	}

	closer, err := autoplay.SetupLogging(*logFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &autoplay.Config{
		BaseURL: *baseURL,
		Games:   *games,
		Recall:  *recall,
		Seed:    *seed,
		Timeout: *timeout,
		LogFile: *logFile,
		Verbose: *verbose,
	}

	if _, err := autoplay.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Autoplay failed: " + err.Error() + "\n")
		cancel()
		_ = closer.Close()
		os.Exit(1) //nolint:gocritic // deferred cleanup already ran
	}
}
