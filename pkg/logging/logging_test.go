package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerDefaultsToNop(t *testing.T) {
	SetLogger(nil)
	if Logger() == nil {
		t.Fatalf("Logger() returned nil")
	}
	Logger().Info("dropped")
}

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Logger().Info("built", zap.String("module", "./a.js"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["module"]; got != "./a.js" {
		t.Fatalf("module field = %v", got)
	}
}

func TestNew(t *testing.T) {
	for _, verbose := range []bool{true, false} {
		l, err := New(verbose)
		if err != nil {
			t.Fatalf("New(%v): %v", verbose, err)
		}
		if got := l.Core().Enabled(zap.DebugLevel); got != verbose {
			t.Fatalf("New(%v): debug enabled = %v", verbose, got)
		}
	}
}
