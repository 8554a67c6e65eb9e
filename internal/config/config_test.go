package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Fatalf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Dispatch.Policy != DefaultDispatchPolicy {
		t.Fatalf("expected default dispatch policy, got %q", cfg.Dispatch.Policy)
	}
	if len(cfg.Slack.SystemUserIDs) != 1 || cfg.Slack.SystemUserIDs[0] != "USLACKBOT" {
		t.Fatalf("expected USLACKBOT system user, got %v", cfg.Slack.SystemUserIDs)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[log]
level = "debug"

[dispatch]
policy = "convention"
prefix = "Grocery"
suffix = "Action"

[parser]
backend = "script"
script_path = "intents.yaml"
timeout = "3s"

[pipeline]
workers = 8
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Log.Level)
	}
	if cfg.Dispatch.Policy != "convention" || cfg.Dispatch.Prefix != "Grocery" || cfg.Dispatch.Suffix != "Action" {
		t.Fatalf("unexpected dispatch config: %+v", cfg.Dispatch)
	}
	if cfg.Parser.ParserTimeout() != 3*time.Second {
		t.Fatalf("expected 3s parser timeout, got %s", cfg.Parser.ParserTimeout())
	}
	if cfg.Pipeline.Workers != 8 || cfg.Pipeline.QueueSize != DefaultPipelineQueue {
		t.Fatalf("unexpected pipeline config: %+v", cfg.Pipeline)
	}
	if cfg.Postgres.Database != DefaultPGDatabase {
		t.Fatalf("expected untouched postgres defaults, got %+v", cfg.Postgres)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[log\nlevel="), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDurationFallbacks(t *testing.T) {
	if got := (PipelineConfig{EventTimeout: "nope"}).Timeout(); got != 30*time.Second {
		t.Fatalf("expected default event timeout, got %s", got)
	}
	if got := (ParserConfig{Timeout: "-1s"}).ParserTimeout(); got != 10*time.Second {
		t.Fatalf("expected default parser timeout, got %s", got)
	}
}
