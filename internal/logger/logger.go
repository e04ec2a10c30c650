package logger

import (
	"log/slog"
	"os"

	"go.uber.org/fx/fxevent"
)

// New creates a preconfigured slog.Logger.
func New() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler).With(slog.String("service", "checkout"))
}

// NewEventLogger routes fx lifecycle events through the application logger.
func NewEventLogger(l *slog.Logger) fxevent.Logger {
	return &fxevent.SlogLogger{Logger: l.With(slog.String("component", "fx"))}
}
