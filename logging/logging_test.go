package logging

import (
	"log/slog"
	"testing"
)

func TestDefaultLoggerDiscards(t *testing.T) {
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
}

func TestBufferedHandlerCapturesRecords(t *testing.T) {
	h := NewBufferedHandler(nil)
	SetLogger(slog.New(h))
	defer SetLogger(nil)

	Logger().Warn("skipped malformed page node", "objectNumber", 7)

	if !h.Contains("skipped malformed page node") {
		t.Fatalf("expected captured log to contain message, got %q", h.String())
	}
	if !h.Contains("objectNumber") {
		t.Fatalf("expected captured log to contain attr key, got %q", h.String())
	}
}
