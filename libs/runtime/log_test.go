package runtime

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "site-service", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "slot", "09:00")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line at warn level, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if entry["service"] != "site-service" || entry["msg"] != "kept" || entry["slot"] != "09:00" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
