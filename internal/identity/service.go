package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memohai/converse/internal/messenger"
)

// ProfileLookup asks the platform who a user is.
type ProfileLookup interface {
	LookupProfile(ctx context.Context, tenant Tenant, platformUserID string) (Profile, error)
}

// ProfileLookupFunc adapts a function to ProfileLookup.
type ProfileLookupFunc func(ctx context.Context, tenant Tenant, platformUserID string) (Profile, error)

func (f ProfileLookupFunc) LookupProfile(ctx context.Context, tenant Tenant, platformUserID string) (Profile, error) {
	return f(ctx, tenant, platformUserID)
}

// Service resolves identities and tenants and builds their extensions.
type Service struct {
	repo       Repository
	extensions *Extensions
	messengers messenger.Factory
	logger     *slog.Logger
}

func NewService(log *slog.Logger, repo Repository, extensions *Extensions, messengers messenger.Factory) *Service {
	return &Service{
		repo:       repo,
		extensions: extensions,
		messengers: messengers,
		logger:     log.With(slog.String("service", "identity")),
	}
}

// ResolveOrCreateUser returns the identity for (tenant, platformUserID),
// creating it with its user extension on first contact. When two callers race
// on first contact the storage constraint picks a winner and both get it.
func (s *Service) ResolveOrCreateUser(ctx context.Context, tenant Tenant, platformUserID string, lookup ProfileLookup) (ConversationIdentity, error) {
	platformUserID = strings.TrimSpace(platformUserID)
	if err := ValidatePlatformID("user", platformUserID); err != nil {
		return ConversationIdentity{}, err
	}
	found, err := s.repo.FindUser(ctx, tenant.ID, platformUserID)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return ConversationIdentity{}, err
	}
	impl, err := s.extensions.Implementation(RoleUser)
	if err != nil {
		return ConversationIdentity{}, err
	}

	profile := Profile{UserID: platformUserID}
	if lookup != nil {
		profile, err = lookup.LookupProfile(ctx, tenant, platformUserID)
		if err != nil {
			return ConversationIdentity{}, &RemoteLookupError{
				Op:       "lookup_profile",
				TenantID: tenant.ExternalID,
				UserID:   platformUserID,
				Err:      err,
			}
		}
	}

	created, err := s.repo.CreateUser(ctx, NewUser{
		TenantID:      tenant.ID,
		UserID:        platformUserID,
		ChannelID:     profile.ChannelID,
		Name:          profile.Name,
		Email:         profile.Email,
		ExtensionKind: impl.Kind(),
	})
	if errors.Is(err, ErrConflict) {
		s.logger.Debug("first contact raced, reading winner",
			slog.String("team_id", tenant.ExternalID),
			slog.String("user_id", platformUserID),
		)
		return s.repo.FindUser(ctx, tenant.ID, platformUserID)
	}
	if err != nil {
		return ConversationIdentity{}, err
	}
	s.logger.Info("identity created",
		slog.String("team_id", tenant.ExternalID),
		slog.String("user_id", platformUserID),
		slog.String("identity_id", created.ID),
	)
	return created, nil
}

// SyncUser creates or updates the identity described by profile. It writes
// only when name, email or DM channel differ from what is stored.
func (s *Service) SyncUser(ctx context.Context, tenant Tenant, profile Profile) (SyncResult, error) {
	if err := ValidatePlatformID("user", profile.UserID); err != nil {
		return SyncUnchanged, err
	}
	existing, err := s.repo.FindUser(ctx, tenant.ID, profile.UserID)
	if errors.Is(err, ErrNotFound) {
		impl, implErr := s.extensions.Implementation(RoleUser)
		if implErr != nil {
			return SyncUnchanged, implErr
		}
		_, err = s.repo.CreateUser(ctx, NewUser{
			TenantID:      tenant.ID,
			UserID:        profile.UserID,
			ChannelID:     profile.ChannelID,
			Name:          profile.Name,
			Email:         profile.Email,
			ExtensionKind: impl.Kind(),
		})
		if err == nil {
			return SyncCreated, nil
		}
		if !errors.Is(err, ErrConflict) {
			return SyncUnchanged, err
		}
		existing, err = s.repo.FindUser(ctx, tenant.ID, profile.UserID)
	}
	if err != nil {
		return SyncUnchanged, err
	}
	if existing.Name == profile.Name && existing.Email == profile.Email && existing.Platform.ChannelID == profile.ChannelID {
		return SyncUnchanged, nil
	}
	existing.Name = profile.Name
	existing.Email = profile.Email
	existing.Platform.ChannelID = profile.ChannelID
	if err := s.repo.UpdateUser(ctx, existing); err != nil {
		return SyncUnchanged, err
	}
	return SyncUpdated, nil
}

// ExtensionFor builds the host user extension of identity.
func (s *Service) ExtensionFor(ctx context.Context, identity ConversationIdentity) (Extension, error) {
	impl, err := s.extensions.Implementation(RoleUser)
	if err != nil {
		return nil, err
	}
	tenant, err := s.repo.GetTenant(ctx, identity.Platform.TenantID)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.GetExtension(ctx, RoleUser, identity.ID)
	if err != nil {
		return nil, err
	}
	return impl.Build(Owner{
		Identity:  identity,
		Tenant:    tenant,
		Messenger: s.MessengerFor(tenant, identity),
	}, record)
}

// OrganizationFor builds the host organization extension of tenant.
func (s *Service) OrganizationFor(ctx context.Context, tenant Tenant) (Extension, error) {
	impl, err := s.extensions.Implementation(RoleOrganization)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.GetExtension(ctx, RoleOrganization, tenant.ID)
	if err != nil {
		return nil, err
	}
	owner := Owner{Tenant: tenant}
	if main, err := s.MainChannel(ctx, tenant); err == nil {
		owner.Messenger = s.ChannelMessenger(tenant, main)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return impl.Build(owner, record)
}

// UpdateExtensionData replaces the host-owned data of record with data
// encoded as JSON.
func (s *Service) UpdateExtensionData(ctx context.Context, record ExtensionRecord, data any) (ExtensionRecord, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return ExtensionRecord{}, fmt.Errorf("encode %s extension data: %w", record.Role, err)
	}
	return s.repo.UpdateExtensionData(ctx, record.ID, raw)
}

// OnboardTenant stores the credentials of an installed workspace. A new
// tenant is created together with its organization extension; an existing one
// has its credentials replaced. The bool reports creation.
func (s *Service) OnboardTenant(ctx context.Context, input TenantInput) (Tenant, bool, error) {
	input.ExternalID = strings.TrimSpace(input.ExternalID)
	if err := ValidatePlatformID("team", input.ExternalID); err != nil {
		return Tenant{}, false, err
	}
	if _, err := s.repo.GetTenantByExternalID(ctx, input.ExternalID); err == nil {
		updated, err := s.repo.UpdateTenant(ctx, input)
		return updated, false, err
	} else if !errors.Is(err, ErrNotFound) {
		return Tenant{}, false, err
	}
	impl, err := s.extensions.Implementation(RoleOrganization)
	if err != nil {
		return Tenant{}, false, err
	}
	created, err := s.repo.CreateTenant(ctx, NewTenant{TenantInput: input, ExtensionKind: impl.Kind()})
	if errors.Is(err, ErrConflict) {
		updated, err := s.repo.UpdateTenant(ctx, input)
		return updated, false, err
	}
	if err != nil {
		return Tenant{}, false, err
	}
	s.logger.Info("tenant onboarded",
		slog.String("team_id", created.ExternalID),
		slog.String("tenant_id", created.ID),
	)
	return created, true, nil
}

func (s *Service) GetTenant(ctx context.Context, id string) (Tenant, error) {
	return s.repo.GetTenant(ctx, id)
}

func (s *Service) TenantByExternalID(ctx context.Context, externalID string) (Tenant, error) {
	return s.repo.GetTenantByExternalID(ctx, strings.TrimSpace(externalID))
}

func (s *Service) ListTenants(ctx context.Context) ([]Tenant, error) {
	return s.repo.ListTenants(ctx)
}

func (s *Service) ListUsers(ctx context.Context, tenant Tenant) ([]ConversationIdentity, error) {
	return s.repo.ListUsers(ctx, tenant.ID)
}

func (s *Service) ListChannels(ctx context.Context, tenant Tenant) ([]Channel, error) {
	return s.repo.ListChannels(ctx, tenant.ID)
}

// MainChannel returns the tenant's general channel.
func (s *Service) MainChannel(ctx context.Context, tenant Tenant) (Channel, error) {
	channels, err := s.repo.ListChannels(ctx, tenant.ID)
	if err != nil {
		return Channel{}, err
	}
	for _, ch := range channels {
		if ch.IsMain {
			return ch, nil
		}
	}
	return Channel{}, fmt.Errorf("%w: main channel of %s", ErrNotFound, tenant.ExternalID)
}

// EnsureChannel creates channel unless the tenant already knows its platform
// id. The bool reports creation.
func (s *Service) EnsureChannel(ctx context.Context, tenant Tenant, channel Channel) (Channel, bool, error) {
	if err := ValidatePlatformID("channel", channel.PlatformChannelID); err != nil {
		return Channel{}, false, err
	}
	existing, err := s.repo.ListChannels(ctx, tenant.ID)
	if err != nil {
		return Channel{}, false, err
	}
	for _, ch := range existing {
		if ch.PlatformChannelID == channel.PlatformChannelID {
			return ch, false, nil
		}
	}
	channel.TenantID = tenant.ID
	created, err := s.repo.CreateChannel(ctx, channel)
	if errors.Is(err, ErrConflict) {
		return channel, false, nil
	}
	if err != nil {
		return Channel{}, false, err
	}
	return created, true, nil
}

// MessengerFor returns a messenger addressed to identity's DM channel, or to
// the user id when no DM channel is known.
func (s *Service) MessengerFor(tenant Tenant, identity ConversationIdentity) messenger.Messenger {
	target := identity.Platform.ChannelID
	if target == "" {
		target = identity.Platform.UserID
	}
	return s.messengers.New(tenant.Token(), target)
}

// ChannelMessenger returns a messenger addressed to channel.
func (s *Service) ChannelMessenger(tenant Tenant, channel Channel) messenger.Messenger {
	return s.messengers.New(tenant.Token(), channel.PlatformChannelID)
}
