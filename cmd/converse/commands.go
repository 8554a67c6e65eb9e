package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/converse/cmd/converse/modules"
	dbembed "github.com/memohai/converse/db"
	"github.com/memohai/converse/internal/boot"
	"github.com/memohai/converse/internal/config"
	"github.com/memohai/converse/internal/db"
	"github.com/memohai/converse/internal/directory"
	"github.com/memohai/converse/internal/identity"
	"github.com/memohai/converse/internal/logger"
	"github.com/memohai/converse/internal/version"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "converse",
		Short:         "Slack conversation bot",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadEnvFile(opts.envFile)
		},
	}
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = config.DefaultConfigPath
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfig, "path to config.toml")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config (ignored when missing)")

	root.AddCommand(newServeCommand(opts), newSyncCommand(opts), newMigrateCommand(opts))
	return root
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func fxLogger(log *slog.Logger) fxevent.Logger {
	return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server, event workers and the nightly directory sync",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			app := fx.New(
				fx.Supply(modules.ConfigPath(opts.configPath)),
				modules.InfraModule,
				modules.DomainModule,
				modules.ServerModule,
				fx.WithLogger(fxLogger),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newSyncCommand(opts *rootOptions) *cobra.Command {
	var teamID string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile stored channels and users with the workspace roster once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				syncer *directory.Syncer
				svc    *identity.Service
				log    *slog.Logger
			)
			app := fx.New(
				fx.Supply(modules.ConfigPath(opts.configPath)),
				modules.InfraModule,
				modules.DomainModule,
				fx.Populate(&syncer, &svc, &log),
				fx.WithLogger(fxLogger),
			)
			if err := app.Err(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() {
				_ = app.Stop(context.Background())
			}()

			if teamID == "" {
				return syncer.SyncAll(ctx)
			}
			tenant, err := svc.TenantByExternalID(ctx, teamID)
			if err != nil {
				return err
			}
			report, err := syncer.SyncTenant(ctx, tenant)
			if err != nil {
				return err
			}
			log.Info("sync finished",
				slog.String("team_id", teamID),
				slog.Int("channels_created", report.ChannelsCreated),
				slog.Int("users_created", report.UsersCreated),
				slog.Int("users_updated", report.UsersUpdated),
				slog.Int("users_skipped", report.UsersSkipped),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&teamID, "team", "", "sync only this workspace (external team id)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall time limit")
	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <up|down|version|force N|steps N>",
		Short: "Apply or roll back database migrations",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			pg, err := boot.ResolvePostgres(cfg.Postgres)
			if err != nil {
				return err
			}
			migrations, err := dbembed.Migrations()
			if err != nil {
				return fmt.Errorf("load migrations: %w", err)
			}
			return db.RunMigrate(logger.L, pg, migrations, args[0], args[1:])
		},
	}
}
