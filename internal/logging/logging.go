// Package logging provides the shell's shared logging configuration.
package logging

import (
	"log/slog"
	"os"
)

const defaultLogLevel = slog.LevelWarn

// Init sets the process-wide slog default based on the LOG_LEVEL
// environment variable, defaulting to warn so interactive use stays quiet.
func Init() {
	level := defaultLogLevel
	if levelText, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if err := level.UnmarshalText([]byte(levelText)); err != nil {
			level = slog.LevelDebug
		}
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
