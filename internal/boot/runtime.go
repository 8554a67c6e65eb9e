// Package boot provides runtime configuration and dependency wiring for the bot server.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/memohai/converse/internal/config"
)

// RuntimeConfig holds parsed runtime settings (listen address, webhook secrets, state signing).
// Values may be overridden by environment variables (e.g. HTTP_ADDR, SLACK_VERIFICATION_TOKEN).
type RuntimeConfig struct {
	ServerAddr        string
	VerificationToken string
	SigningSecret     string
	StateSecret       string
	StateExpiresIn    time.Duration
	Postgres          config.PostgresConfig
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	ret := &RuntimeConfig{
		ServerAddr:        cfg.Server.Addr,
		VerificationToken: cfg.Slack.VerificationToken,
		SigningSecret:     cfg.Slack.SigningSecret,
		StateSecret:       cfg.Auth.StateSecret,
		Postgres:          cfg.Postgres,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	if value := os.Getenv("SLACK_VERIFICATION_TOKEN"); value != "" {
		ret.VerificationToken = value
	}
	if value := os.Getenv("SLACK_SIGNING_SECRET"); value != "" {
		ret.SigningSecret = value
	}
	if value := os.Getenv("OAUTH_STATE_SECRET"); value != "" {
		ret.StateSecret = value
	}
	pg, err := ResolvePostgres(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	ret.Postgres = pg

	if ret.StateSecret == "" {
		ret.StateSecret = cfg.Slack.ClientSecret
	}
	if strings.TrimSpace(ret.VerificationToken) == "" {
		return nil, errors.New("slack verification token is required")
	}
	expiresIn := cfg.Auth.StateExpiresIn
	if expiresIn == "" {
		expiresIn = config.DefaultStateExpiresIn
	}
	ttl, err := time.ParseDuration(expiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid state expires in: %w", err)
	}
	ret.StateExpiresIn = ttl
	return ret, nil
}

// ResolvePostgres applies the POSTGRES_* environment overrides to cfg. The
// migrate command uses it without the webhook settings.
func ResolvePostgres(cfg config.PostgresConfig) (config.PostgresConfig, error) {
	if value := os.Getenv("POSTGRES_HOST"); value != "" {
		cfg.Host = value
	}
	if value := os.Getenv("POSTGRES_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return cfg, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
		}
		cfg.Port = port
	}
	if value := os.Getenv("POSTGRES_USER"); value != "" {
		cfg.User = value
	}
	if value := os.Getenv("POSTGRES_PASSWORD"); value != "" {
		cfg.Password = value
	}
	if value := os.Getenv("POSTGRES_DB"); value != "" {
		cfg.Database = value
	}
	return cfg, nil
}
