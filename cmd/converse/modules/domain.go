package modules

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/memohai/converse/internal/action"
	"github.com/memohai/converse/internal/config"
	"github.com/memohai/converse/internal/directory"
	"github.com/memohai/converse/internal/grocery"
	"github.com/memohai/converse/internal/identity"
	"github.com/memohai/converse/internal/messenger"
	"github.com/memohai/converse/internal/metrics"
	"github.com/memohai/converse/internal/parser"
	"github.com/memohai/converse/internal/pipeline"
	"github.com/memohai/converse/internal/slack"
)

var DomainModule = fx.Module(
	"domain",
	fx.Provide(
		providePlatform,
		provideExtensions,
		identity.NewService,
		provideParser,
		provideShop,
		provideDispatcher,
		providePipeline,
		provideSyncer,
		provideInstaller,
	),
)

// ---------------------------------------------------------------------------
// platform drivers
// ---------------------------------------------------------------------------

type platformResult struct {
	fx.Out

	Messengers messenger.Factory
	Directory  directory.Directory
	Lookup     identity.ProfileLookup
}

func providePlatform(log *slog.Logger, cfg config.Config) (platformResult, error) {
	switch cfg.Platform.Driver {
	case "local":
		log.Info("using local platform driver")
		static := directory.NewStatic()
		return platformResult{
			Messengers: messenger.NewRecorderFactory(log),
			Directory:  static,
			Lookup:     static,
		}, nil
	case "slack", "":
		api := slack.NewAPI(log, cfg.Slack, nil)
		dir := slack.NewDirectory(api)
		return platformResult{
			Messengers: api,
			Directory:  dir,
			Lookup:     dir,
		}, nil
	default:
		return platformResult{}, fmt.Errorf("unknown platform driver %q", cfg.Platform.Driver)
	}
}

func provideInstaller(cfg config.Config) *slack.Installer {
	return slack.NewInstaller(cfg.Slack, &http.Client{Timeout: 30 * time.Second})
}

// ---------------------------------------------------------------------------
// host application
// ---------------------------------------------------------------------------

func provideExtensions() (*identity.Extensions, error) {
	exts := identity.NewExtensions()
	if err := grocery.RegisterExtensions(exts); err != nil {
		return nil, err
	}
	if err := exts.Validate(); err != nil {
		return nil, err
	}
	return exts, nil
}

func provideShop(log *slog.Logger, svc *identity.Service) *grocery.Shop {
	return grocery.NewShop(log, svc)
}

func provideDispatcher(log *slog.Logger, cfg config.Config, shop *grocery.Shop) (action.Dispatcher, error) {
	registry, catalog := action.NewRegistry(), action.NewCatalog()
	if err := shop.Install(cfg.Dispatch.Policy, registry, catalog); err != nil {
		return nil, err
	}
	return action.New(log, cfg.Dispatch, registry, catalog)
}

// ---------------------------------------------------------------------------
// event processing
// ---------------------------------------------------------------------------

func provideParser(log *slog.Logger, cfg config.Config) (parser.Parser, error) {
	return parser.New(log, cfg.Parser)
}

func providePipeline(log *slog.Logger, svc *identity.Service, lookup identity.ProfileLookup, p parser.Parser, d action.Dispatcher, m *metrics.Metrics) *pipeline.Pipeline {
	return pipeline.New(log, svc, lookup, p, d, m)
}

func provideSyncer(log *slog.Logger, cfg config.Config, svc *identity.Service, dir directory.Directory, m *metrics.Metrics) *directory.Syncer {
	return directory.NewSyncer(log, svc, dir, cfg.Slack.SystemUserIDs, cfg.Sync.Concurrency, m)
}
