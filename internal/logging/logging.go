// Package logging configures structured logging for both binaries.
//
// The server logs machine-readable JSON suitable for log aggregators; the
// client logs colored, human-readable lines via tint since its output lands
// on a terminal next to the crew status display.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// SetupServer installs a JSON slog handler on stdout as the default logger
// and returns it. level is the string form accepted by slog.Level
// ("debug", "info", "warn", "error"); unknown values fall back to info.
func SetupServer(level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

// SetupClient installs a colored terminal handler on stderr as the default
// logger and returns it. Stderr keeps log lines out of the status output on
// stdout.
func SetupClient(level string) *slog.Logger {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      parseLevel(level),
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
