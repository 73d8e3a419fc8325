package autoplay

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/flagmatch/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to stdout and a file. If logFile is empty,
// a timestamped filename is generated. The returned closer flushes the file.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "autoplay_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the autoplay tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Flag Match Autoplay
===================

Plays complete games against a running server and checks the results.

Usage:
  go run ./cmd/autoplay [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -games int
        Number of games to play (default 3)
  -recall float
        Chance that a player remembers a revealed card (default 0.8)
  -seed int
        Seed for the players' memory (default: clock)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: autoplay_TIMESTAMP.log)
  -verbose
        Log every turn
  -help
        Show this help message

Examples:
  # Play three games against a local server
  go run ./cmd/autoplay

  # Perfect memory, ten games
  go run ./cmd/autoplay -games 10 -recall 1
`)
}
