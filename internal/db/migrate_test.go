package db

import (
	"testing"

	"github.com/memohai/converse/internal/config"
)

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "converse",
		Password: "secret",
		Database: "converse",
		SSLMode:  "disable",
	}
}

func TestRunMigrateUnknownCommand(t *testing.T) {
	if err := RunMigrate(nil, testPostgresConfig(), nil, "invalid", nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunMigrateRequiresArgument(t *testing.T) {
	for _, command := range []string{"force", "steps"} {
		if err := RunMigrate(nil, testPostgresConfig(), nil, command, nil); err == nil {
			t.Fatalf("expected error for %s without argument", command)
		}
	}
}
