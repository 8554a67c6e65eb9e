package modules

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/converse/internal/boot"
	"github.com/memohai/converse/internal/config"
	"github.com/memohai/converse/internal/db"
	dbsqlc "github.com/memohai/converse/internal/db/sqlc"
	"github.com/memohai/converse/internal/identity"
	"github.com/memohai/converse/internal/logger"
	"github.com/memohai/converse/internal/metrics"
)

// ConfigPath is the TOML file the application is started with.
type ConfigPath string

var InfraModule = fx.Module(
	"infra",
	fx.Provide(
		provideConfig,
		provideLogger,
		boot.ProvideRuntimeConfig,
		metrics.New,
		provideRepository,
	),
)

func provideConfig(path ConfigPath) (config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideRepository(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (identity.Repository, error) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory identity storage; data is lost on restart")
		return identity.NewMemoryRepository(), nil
	case "postgres", "":
		pg, err := boot.ResolvePostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		pool, err := db.Open(context.Background(), pg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				pool.Close()
				return nil
			},
		})
		return identity.NewPostgresRepository(log, pool, dbsqlc.New(pool)), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
