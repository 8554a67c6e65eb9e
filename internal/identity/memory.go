package identity

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var emptyData = []byte("{}")

// MemoryRepository keeps everything in process memory and enforces the same
// uniqueness rules as the Postgres schema.
type MemoryRepository struct {
	mu sync.Mutex

	tenants     map[string]Tenant
	tenantOrder []string
	tenantByExt map[string]string

	users     map[string]ConversationIdentity
	userOrder []string
	userByKey map[string]string

	channels     map[string]Channel
	channelOrder []string
	channelByKey map[string]string

	extensions map[string]ExtensionRecord
	extByOwner map[string]string
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tenants:      map[string]Tenant{},
		tenantByExt:  map[string]string{},
		users:        map[string]ConversationIdentity{},
		userByKey:    map[string]string{},
		channels:     map[string]Channel{},
		channelByKey: map[string]string{},
		extensions:   map[string]ExtensionRecord{},
		extByOwner:   map[string]string{},
		now:          time.Now,
	}
}

func scopedKey(scope, id string) string {
	return scope + "/" + id
}

func (r *MemoryRepository) GetTenant(_ context.Context, id string) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return Tenant{}, fmt.Errorf("%w: tenant %s", ErrNotFound, id)
	}
	return t, nil
}

func (r *MemoryRepository) GetTenantByExternalID(_ context.Context, externalID string) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.tenantByExt[externalID]
	if !ok {
		return Tenant{}, fmt.Errorf("%w: tenant %s", ErrNotFound, externalID)
	}
	return r.tenants[id], nil
}

func (r *MemoryRepository) ListTenants(context.Context) ([]Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]Tenant, 0, len(r.tenantOrder))
	for _, id := range r.tenantOrder {
		items = append(items, r.tenants[id])
	}
	return items, nil
}

func (r *MemoryRepository) CreateTenant(_ context.Context, input NewTenant) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenantByExt[input.ExternalID]; ok {
		return Tenant{}, fmt.Errorf("%w: tenant %s", ErrConflict, input.ExternalID)
	}
	now := r.now()
	t := Tenant{
		ID:             uuid.NewString(),
		ExternalID:     input.ExternalID,
		Name:           input.Name,
		AccessToken:    input.AccessToken,
		BotUserID:      input.BotUserID,
		BotAccessToken: input.BotAccessToken,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.insertExtensionLocked(RoleOrganization, input.ExtensionKind, t.ID); err != nil {
		return Tenant{}, err
	}
	r.tenants[t.ID] = t
	r.tenantOrder = append(r.tenantOrder, t.ID)
	r.tenantByExt[t.ExternalID] = t.ID
	return t, nil
}

func (r *MemoryRepository) UpdateTenant(_ context.Context, input TenantInput) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.tenantByExt[input.ExternalID]
	if !ok {
		return Tenant{}, fmt.Errorf("%w: tenant %s", ErrNotFound, input.ExternalID)
	}
	t := r.tenants[id]
	t.Name = input.Name
	t.AccessToken = input.AccessToken
	t.BotUserID = input.BotUserID
	t.BotAccessToken = input.BotAccessToken
	t.UpdatedAt = r.now()
	r.tenants[id] = t
	return t, nil
}

func (r *MemoryRepository) FindUser(_ context.Context, tenantID, platformUserID string) (ConversationIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.userByKey[scopedKey(tenantID, platformUserID)]
	if !ok {
		return ConversationIdentity{}, fmt.Errorf("%w: user %s", ErrNotFound, platformUserID)
	}
	return r.users[id], nil
}

func (r *MemoryRepository) ListUsers(_ context.Context, tenantID string) ([]ConversationIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []ConversationIdentity
	for _, id := range r.userOrder {
		if u := r.users[id]; u.Platform.TenantID == tenantID {
			items = append(items, u)
		}
	}
	return items, nil
}

func (r *MemoryRepository) CreateUser(_ context.Context, input NewUser) (ConversationIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := scopedKey(input.TenantID, input.UserID)
	if _, ok := r.userByKey[key]; ok {
		return ConversationIdentity{}, fmt.Errorf("%w: user %s", ErrConflict, input.UserID)
	}
	if _, ok := r.tenants[input.TenantID]; !ok {
		return ConversationIdentity{}, fmt.Errorf("%w: tenant %s", ErrNotFound, input.TenantID)
	}
	u := ConversationIdentity{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		CreatedAt: r.now(),
		Platform: PlatformUser{
			TenantID:  input.TenantID,
			UserID:    input.UserID,
			ChannelID: input.ChannelID,
		},
	}
	if err := r.insertExtensionLocked(RoleUser, input.ExtensionKind, u.ID); err != nil {
		return ConversationIdentity{}, err
	}
	r.users[u.ID] = u
	r.userOrder = append(r.userOrder, u.ID)
	r.userByKey[key] = u.ID
	return u, nil
}

func (r *MemoryRepository) UpdateUser(_ context.Context, identity ConversationIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[identity.ID]
	if !ok {
		return fmt.Errorf("%w: identity %s", ErrNotFound, identity.ID)
	}
	existing.Name = identity.Name
	existing.Email = identity.Email
	existing.Platform.ChannelID = identity.Platform.ChannelID
	r.users[identity.ID] = existing
	return nil
}

func (r *MemoryRepository) ListChannels(_ context.Context, tenantID string) ([]Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []Channel
	for _, id := range r.channelOrder {
		if ch := r.channels[id]; ch.TenantID == tenantID {
			items = append(items, ch)
		}
	}
	return items, nil
}

func (r *MemoryRepository) CreateChannel(_ context.Context, channel Channel) (Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := scopedKey(channel.TenantID, channel.PlatformChannelID)
	if _, ok := r.channelByKey[key]; ok {
		return Channel{}, fmt.Errorf("%w: channel %s", ErrConflict, channel.PlatformChannelID)
	}
	channel.ID = uuid.NewString()
	channel.CreatedAt = r.now()
	r.channels[channel.ID] = channel
	r.channelOrder = append(r.channelOrder, channel.ID)
	r.channelByKey[key] = channel.ID
	return channel, nil
}

func (r *MemoryRepository) GetExtension(_ context.Context, role Role, ownerID string) (ExtensionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.extByOwner[scopedKey(string(role), ownerID)]
	if !ok {
		return ExtensionRecord{}, fmt.Errorf("%w: %s extension for %s", ErrNotFound, role, ownerID)
	}
	return cloneRecord(r.extensions[id]), nil
}

func (r *MemoryRepository) UpdateExtensionData(_ context.Context, id string, data []byte) (ExtensionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.extensions[id]
	if !ok {
		return ExtensionRecord{}, fmt.Errorf("%w: extension %s", ErrNotFound, id)
	}
	rec.Data = slices.Clone(data)
	rec.UpdatedAt = r.now()
	r.extensions[id] = rec
	return cloneRecord(rec), nil
}

func (r *MemoryRepository) insertExtensionLocked(role Role, kind, ownerID string) error {
	key := scopedKey(string(role), ownerID)
	if _, ok := r.extByOwner[key]; ok {
		return fmt.Errorf("%w: %s extension for %s", ErrConflict, role, ownerID)
	}
	now := r.now()
	rec := ExtensionRecord{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		OwnerID:   ownerID,
		Data:      slices.Clone(emptyData),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.extensions[rec.ID] = rec
	r.extByOwner[key] = rec.ID
	return nil
}

func cloneRecord(rec ExtensionRecord) ExtensionRecord {
	rec.Data = slices.Clone(rec.Data)
	return rec
}
