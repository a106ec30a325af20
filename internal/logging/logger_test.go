package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriterFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")

	logger.Info("dropped")
	logger.Warn("kept", "field", "value")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" || entry["field"] != "value" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["service"] != "whitelist-checker" {
		t.Fatalf("expected service attribute, got %v", entry["service"])
	}
}

func TestNewWithWriterUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "chatty")

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info, got %q", buf.String())
	}
	logger.Info("shown")
	if buf.Len() == 0 {
		t.Fatal("expected info line")
	}
}
