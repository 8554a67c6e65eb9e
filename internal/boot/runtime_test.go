package boot

import (
	"testing"
	"time"

	"github.com/memohai/converse/internal/config"
)

func TestProvideRuntimeConfigRequiresVerificationToken(t *testing.T) {
	t.Setenv("SLACK_VERIFICATION_TOKEN", "")
	if _, err := ProvideRuntimeConfig(config.Default()); err == nil {
		t.Fatal("expected error without verification token")
	}
}

func TestProvideRuntimeConfigEnvOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Slack.VerificationToken = "from-file"
	t.Setenv("SLACK_VERIFICATION_TOKEN", "from-env")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("POSTGRES_PORT", "6543")

	rc, err := ProvideRuntimeConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.VerificationToken != "from-env" {
		t.Fatalf("expected env token, got %q", rc.VerificationToken)
	}
	if rc.ServerAddr != ":9999" {
		t.Fatalf("expected env addr, got %q", rc.ServerAddr)
	}
	if rc.Postgres.Port != 6543 {
		t.Fatalf("expected env port, got %d", rc.Postgres.Port)
	}
	if rc.StateExpiresIn != 10*time.Minute {
		t.Fatalf("expected default state ttl, got %s", rc.StateExpiresIn)
	}
}

func TestProvideRuntimeConfigRejectsBadPort(t *testing.T) {
	cfg := config.Default()
	cfg.Slack.VerificationToken = "tok"
	t.Setenv("POSTGRES_PORT", "five")
	if _, err := ProvideRuntimeConfig(cfg); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestProvideRuntimeConfigStateSecretFallsBackToClientSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Slack.VerificationToken = "tok"
	cfg.Slack.ClientSecret = "client-secret"
	t.Setenv("OAUTH_STATE_SECRET", "")

	rc, err := ProvideRuntimeConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.StateSecret != "client-secret" {
		t.Fatalf("expected client secret fallback, got %q", rc.StateSecret)
	}
}
