package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "JSON")
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug level to be enabled")
	}
	l.Info("hello", "team_id", "T1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if line["team_id"] != "T1" {
		t.Fatalf("expected team_id attribute, got %v", line)
	}
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info", "text")
	ctx := WithContext(context.Background(), base)
	ctx = With(ctx, "user_id", "U42")

	FromContext(ctx).Info("resolved")
	if !strings.Contains(buf.String(), "user_id=U42") {
		t.Fatalf("expected user_id in output, got %q", buf.String())
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	Init("info", "text")
	if FromContext(context.Background()) != L {
		t.Fatal("expected global logger when context has none")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%s) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
