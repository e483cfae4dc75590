// Package logging configures the global zerolog logger. The TUI owns the
// terminal, so in that mode logs go to a file under the cache directory;
// one-shot subcommands log straight to stderr.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFileName = "debug.log"

// SetupConsole routes logs to stderr, for subcommands that do not draw.
func SetupConsole(verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level(verbose))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// SetupFile routes logs to the debug file and returns a closer for it.
// If the file cannot be opened, logging is discarded rather than fighting
// the TUI for the terminal.
func SetupFile(verbose bool) (io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level(verbose))

	path, err := FilePath()
	if err != nil {
		log.Logger = zerolog.New(io.Discard)
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Logger = zerolog.New(io.Discard)
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Logger = zerolog.New(io.Discard)
		return nil, err
	}

	log.Logger = zerolog.New(file).With().Timestamp().Logger()
	return file, nil
}

// FilePath returns the debug log location under the XDG cache home.
func FilePath() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "slowverb", logFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "slowverb", logFileName), nil
}

func level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
