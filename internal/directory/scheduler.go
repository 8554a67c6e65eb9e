package directory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs SyncAll on a cron schedule. A run still in progress when the
// next one fires causes that tick to be skipped.
type Scheduler struct {
	syncer   *Syncer
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewScheduler(log *slog.Logger, syncer *Syncer, schedule string) *Scheduler {
	logger := log.With(slog.String("service", "directory_scheduler"))
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cl := cronLogger{logger: logger}
	return &Scheduler{
		syncer:   syncer,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(parser), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger:   logger,
	}
}

// Start registers the sync job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.syncer.SyncAll(runCtx); err != nil {
			s.logger.Error("scheduled directory sync failed", slog.Any("error", err))
		}
	}); err != nil {
		cancel()
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	s.cron.Start()
	s.logger.Info("directory sync scheduled", slog.String("schedule", s.schedule))
	return nil
}

// Stop halts the cron loop, cancels a running sync and waits for it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-s.cron.Stop().Done()
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, slog.Any("error", err))...)
}
