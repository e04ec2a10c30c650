package logger

import (
	"context"
	"log/slog"
	"testing"

	"go.uber.org/fx/fxevent"
)

func TestNewProvidesJSONLogger(t *testing.T) {
	l := New()
	if l == nil {
		t.Fatal("expected logger, got nil")
	}

	if !l.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("expected info level to be enabled")
	}
	if l.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("did not expect debug level to be enabled")
	}

	if _, ok := l.Handler().(*slog.JSONHandler); !ok {
		t.Fatalf("expected JSON handler, got %T", l.Handler())
	}
}

func TestNewEventLoggerWrapsSlog(t *testing.T) {
	el := NewEventLogger(New())
	if _, ok := el.(*fxevent.SlogLogger); !ok {
		t.Fatalf("expected slog event logger, got %T", el)
	}
}
