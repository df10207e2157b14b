package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWarnCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Warn("storage.delete.failed", map[string]any{
		"storage_key": "abc/def",
		"err":         errors.New("boom"),
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %s", got.Level)
	}
	fields := got.ContextMap()
	if fields["storage_key"] != "abc/def" {
		t.Fatalf("unexpected storage_key %v", fields["storage_key"])
	}
	if fields["err"] != "boom" {
		t.Fatalf("unexpected err %v", fields["err"])
	}
}
