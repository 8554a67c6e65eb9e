package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/memohai/converse/internal/identity"
	"github.com/memohai/converse/internal/metrics"
)

// Syncer creates missing channels and users and refreshes changed users. Runs
// are idempotent, so concurrent or repeated runs are safe.
type Syncer struct {
	store       Store
	directory   Directory
	systemUsers map[string]struct{}
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewSyncer(log *slog.Logger, store Store, dir Directory, systemUserIDs []string, concurrency int, m *metrics.Metrics) *Syncer {
	system := make(map[string]struct{}, len(systemUserIDs))
	for _, id := range systemUserIDs {
		system[id] = struct{}{}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Syncer{
		store:       store,
		directory:   dir,
		systemUsers: system,
		concurrency: concurrency,
		metrics:     m,
		logger:      log.With(slog.String("service", "directory")),
	}
}

// SyncTenant reconciles one tenant.
func (s *Syncer) SyncTenant(ctx context.Context, tenant identity.Tenant) (Report, error) {
	report, err := s.syncTenant(ctx, tenant)
	s.metrics.Sync(err, report.changes())
	log := s.logger.With(slog.String("team_id", tenant.ExternalID))
	if err != nil {
		log.Error("directory sync failed", slog.Any("error", err))
		return report, err
	}
	log.Info("directory synced",
		slog.Int("channels_created", report.ChannelsCreated),
		slog.Int("users_created", report.UsersCreated),
		slog.Int("users_updated", report.UsersUpdated),
		slog.Int("users_skipped", report.UsersSkipped),
	)
	return report, nil
}

func (s *Syncer) syncTenant(ctx context.Context, tenant identity.Tenant) (Report, error) {
	var report Report

	remoteChannels, err := s.directory.ListChannels(ctx, tenant)
	if err != nil {
		return report, fmt.Errorf("list remote channels: %w", err)
	}
	known, err := s.store.ListChannels(ctx, tenant)
	if err != nil {
		return report, fmt.Errorf("list channels: %w", err)
	}
	knownIDs := make(map[string]struct{}, len(known))
	for _, ch := range known {
		knownIDs[ch.PlatformChannelID] = struct{}{}
	}
	for _, rc := range remoteChannels {
		if _, ok := knownIDs[rc.ID]; ok {
			continue
		}
		_, created, err := s.store.EnsureChannel(ctx, tenant, identity.Channel{
			PlatformChannelID: rc.ID,
			Name:              rc.Name,
			IsMain:            rc.IsGeneral,
		})
		if err != nil {
			return report, fmt.Errorf("create channel %s: %w", rc.ID, err)
		}
		if created {
			report.ChannelsCreated++
		}
		knownIDs[rc.ID] = struct{}{}
	}

	users, err := s.directory.ListUsers(ctx, tenant)
	if err != nil {
		return report, fmt.Errorf("list remote users: %w", err)
	}
	dms, err := s.directory.ListDirectMessageChannels(ctx, tenant)
	if err != nil {
		return report, fmt.Errorf("list direct message channels: %w", err)
	}
	for _, u := range users {
		if u.IsBot || u.Deleted {
			report.UsersSkipped++
			continue
		}
		if _, ok := s.systemUsers[u.ID]; ok {
			report.UsersSkipped++
			continue
		}
		dm, ok := dms[u.ID]
		if !ok || dm == "" {
			s.logger.Warn("user has no direct message channel, skipped",
				slog.String("team_id", tenant.ExternalID),
				slog.String("user_id", u.ID),
			)
			report.UsersSkipped++
			continue
		}
		res, err := s.store.SyncUser(ctx, tenant, identity.Profile{
			UserID:    u.ID,
			Name:      u.Name,
			Email:     u.Email,
			ChannelID: dm,
		})
		if err != nil {
			return report, fmt.Errorf("sync user %s: %w", u.ID, err)
		}
		switch res {
		case identity.SyncCreated:
			report.UsersCreated++
		case identity.SyncUpdated:
			report.UsersUpdated++
		}
	}
	return report, nil
}

// SyncAll reconciles every tenant with bounded concurrency. A failing tenant
// does not stop the others; all failures are returned joined.
func (s *Syncer) SyncAll(ctx context.Context) error {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(s.concurrency)
	for _, tenant := range tenants {
		g.Go(func() error {
			if _, err := s.SyncTenant(ctx, tenant); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("tenant %s: %w", tenant.ExternalID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
