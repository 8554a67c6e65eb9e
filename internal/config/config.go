// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath      = "config.toml"
	DefaultHTTPAddr        = ":8080"
	DefaultPGHost          = "127.0.0.1"
	DefaultPGPort          = 5432
	DefaultPGUser          = "postgres"
	DefaultPGDatabase      = "converse"
	DefaultPGSSLMode       = "disable"
	DefaultStorageDriver   = "postgres"
	DefaultPlatformDriver  = "slack"
	DefaultSlackAPIURL     = "https://slack.com/api/"
	DefaultSlackScopes     = "chat:write,channels:read,groups:read,im:read,im:history,users:read,users:read.email"
	DefaultParserBackend   = "apiai"
	DefaultAPIAIBaseURL    = "https://api.api.ai/v1"
	DefaultAPIAIVersion    = "20150910"
	DefaultParserLanguage  = "en"
	DefaultParserTimeout   = "10s"
	DefaultDispatchPolicy  = "registry"
	DefaultPipelineWorkers = 4
	DefaultPipelineQueue   = 256
	DefaultEventTimeout    = "30s"
	DefaultSyncSchedule    = "30 3 * * *"
	DefaultSyncConcurrency = 2
	DefaultStateExpiresIn  = "10m"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Postgres PostgresConfig `toml:"postgres"`
	Storage  StorageConfig  `toml:"storage"`
	Platform PlatformConfig `toml:"platform"`
	Slack    SlackConfig    `toml:"slack"`
	Parser   ParserConfig   `toml:"parser"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Sync     SyncConfig     `toml:"sync"`
	Auth     AuthConfig     `toml:"auth"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// StorageConfig selects the identity repository ("postgres" or "memory").
type StorageConfig struct {
	Driver string `toml:"driver"`
}

// PlatformConfig selects the messaging platform driver ("slack" or "local").
type PlatformConfig struct {
	Driver string `toml:"driver"`
}

// SlackConfig holds the Slack app credentials and OAuth redirect targets.
type SlackConfig struct {
	ClientID          string   `toml:"client_id"`
	ClientSecret      string   `toml:"client_secret"`
	VerificationToken string   `toml:"verification_token"`
	SigningSecret     string   `toml:"signing_secret"`
	APIURL            string   `toml:"api_url"`
	Scopes            string   `toml:"scopes"`
	RedirectURL       string   `toml:"redirect_url"`
	SuccessURL        string   `toml:"success_url"`
	FailureURL        string   `toml:"failure_url"`
	SystemUserIDs     []string `toml:"system_user_ids"`
}

// ParserConfig selects the intent parser backend and its connection settings.
type ParserConfig struct {
	Backend           string  `toml:"backend"`
	BaseURL           string  `toml:"base_url"`
	ClientToken       string  `toml:"client_token"`
	Version           string  `toml:"version"`
	Language          string  `toml:"language"`
	Timeout           string  `toml:"timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	ScriptPath        string  `toml:"script_path"`
}

// DispatchConfig selects the action resolution policy ("registry" or "convention").
type DispatchConfig struct {
	Policy string `toml:"policy"`
	Prefix string `toml:"prefix"`
	Suffix string `toml:"suffix"`
}

// PipelineConfig sizes the inbound event worker pool.
type PipelineConfig struct {
	Workers      int    `toml:"workers"`
	QueueSize    int    `toml:"queue_size"`
	EventTimeout string `toml:"event_timeout"`
}

// SyncConfig holds the directory reconciliation schedule.
type SyncConfig struct {
	Enabled     bool   `toml:"enabled"`
	Schedule    string `toml:"schedule"`
	Concurrency int    `toml:"concurrency"`
}

// AuthConfig holds the secret used to sign OAuth state tokens.
type AuthConfig struct {
	StateSecret    string `toml:"state_secret"`
	StateExpiresIn string `toml:"state_expires_in"`
}

// ParserTimeout returns the parsed parser timeout, falling back to the default.
func (c ParserConfig) ParserTimeout() time.Duration {
	return parseDuration(c.Timeout, DefaultParserTimeout)
}

// Timeout returns the per-event processing timeout.
func (c PipelineConfig) Timeout() time.Duration {
	return parseDuration(c.EventTimeout, DefaultEventTimeout)
}

func parseDuration(value, fallback string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Storage: StorageConfig{
			Driver: DefaultStorageDriver,
		},
		Platform: PlatformConfig{
			Driver: DefaultPlatformDriver,
		},
		Slack: SlackConfig{
			APIURL:        DefaultSlackAPIURL,
			Scopes:        DefaultSlackScopes,
			SystemUserIDs: []string{"USLACKBOT"},
		},
		Parser: ParserConfig{
			Backend:  DefaultParserBackend,
			BaseURL:  DefaultAPIAIBaseURL,
			Version:  DefaultAPIAIVersion,
			Language: DefaultParserLanguage,
			Timeout:  DefaultParserTimeout,
		},
		Dispatch: DispatchConfig{
			Policy: DefaultDispatchPolicy,
		},
		Pipeline: PipelineConfig{
			Workers:      DefaultPipelineWorkers,
			QueueSize:    DefaultPipelineQueue,
			EventTimeout: DefaultEventTimeout,
		},
		Sync: SyncConfig{
			Enabled:     true,
			Schedule:    DefaultSyncSchedule,
			Concurrency: DefaultSyncConcurrency,
		},
		Auth: AuthConfig{
			StateExpiresIn: DefaultStateExpiresIn,
		},
	}
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
