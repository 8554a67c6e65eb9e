package modules

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/converse/internal/boot"
	"github.com/memohai/converse/internal/config"
	"github.com/memohai/converse/internal/directory"
	"github.com/memohai/converse/internal/handlers"
	"github.com/memohai/converse/internal/identity"
	"github.com/memohai/converse/internal/metrics"
	"github.com/memohai/converse/internal/pipeline"
	"github.com/memohai/converse/internal/server"
	"github.com/memohai/converse/internal/slack"
	"github.com/memohai/converse/internal/version"
)

// LocalTeamID is the tenant seeded when the local platform driver is active.
const LocalTeamID = "T0LOCAL"

var ServerModule = fx.Module(
	"server",
	fx.Provide(
		provideQueue,
		provideScheduler,

		provideServerHandler(handlers.NewPingHandler),
		provideServerHandler(provideSlackHandler),
		provideServerHandler(provideInstallHandler),
		provideServerHandler(provideMetricsHandler),
		provideServer,
	),
	fx.Invoke(
		seedLocalTenant,
		startQueue,
		startScheduler,
		startServer,
	),
)

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

// ---------------------------------------------------------------------------
// background workers
// ---------------------------------------------------------------------------

func provideQueue(log *slog.Logger, cfg config.Config, p *pipeline.Pipeline, m *metrics.Metrics) *pipeline.Queue {
	return pipeline.NewQueue(log, p, cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, cfg.Pipeline.Timeout(), m)
}

func startQueue(lc fx.Lifecycle, q *pipeline.Queue) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			q.Start(context.Background())
			return nil
		},
		OnStop: func(context.Context) error {
			q.Stop()
			return nil
		},
	})
}

func provideScheduler(log *slog.Logger, cfg config.Config, syncer *directory.Syncer) *directory.Scheduler {
	return directory.NewScheduler(log, syncer, cfg.Sync.Schedule)
}

func startScheduler(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, scheduler *directory.Scheduler) {
	if !cfg.Sync.Enabled {
		log.Info("directory sync schedule disabled")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return scheduler.Start(context.Background())
		},
		OnStop: func(context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}

func seedLocalTenant(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, svc *identity.Service) {
	if cfg.Platform.Driver != "local" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			tenant, created, err := svc.OnboardTenant(ctx, identity.TenantInput{
				ExternalID:     LocalTeamID,
				Name:           "Local",
				BotAccessToken: "local",
			})
			if err != nil {
				return fmt.Errorf("seed local tenant: %w", err)
			}
			if _, _, err := svc.EnsureChannel(ctx, tenant, identity.Channel{PlatformChannelID: "C0LOCAL", Name: "general", IsMain: true}); err != nil {
				return fmt.Errorf("seed local channel: %w", err)
			}
			log.Info("local tenant ready", slog.String("team_id", tenant.ExternalID), slog.Bool("created", created))
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// HTTP server
// ---------------------------------------------------------------------------

func provideSlackHandler(log *slog.Logger, rc *boot.RuntimeConfig, q *pipeline.Queue) *handlers.SlackHandler {
	return handlers.NewSlackHandler(log, rc, q)
}

func provideInstallHandler(log *slog.Logger, cfg config.Config, rc *boot.RuntimeConfig, installer *slack.Installer, svc *identity.Service, syncer *directory.Syncer) *handlers.InstallHandler {
	return handlers.NewInstallHandler(log, installer, svc, syncer, handlers.InstallOptions{
		StateSecret: rc.StateSecret,
		StateTTL:    rc.StateExpiresIn,
		SuccessURL:  cfg.Slack.SuccessURL,
		FailureURL:  cfg.Slack.FailureURL,
	})
}

func provideMetricsHandler(m *metrics.Metrics) *handlers.MetricsHandler {
	return handlers.NewMetricsHandler(m)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.RuntimeConfig.ServerAddr, params.ServerHandlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting converse", slog.String("version", version.Get().String()))
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
