package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "json", slog.LevelInfo)

	Debug("hidden")
	Info("Fetch done", "servers", 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if entry["msg"] != "Fetch done" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["servers"] != float64(4) {
		t.Errorf("servers = %v", entry["servers"])
	}
}

func TestInitWriterText(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "text", slog.LevelDebug)

	Debug("Skipped malformed status lines", "count", 2)

	if !strings.Contains(buf.String(), "count=2") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
