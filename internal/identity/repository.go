package identity

import "context"

// Repository persists identities, tenants, channels and extension records.
// Lookups return ErrNotFound on a miss; writes that collide with a uniqueness
// constraint return ErrConflict. CreateUser and CreateTenant write the owner
// and its extension record atomically.
type Repository interface {
	GetTenant(ctx context.Context, id string) (Tenant, error)
	GetTenantByExternalID(ctx context.Context, externalID string) (Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
	CreateTenant(ctx context.Context, input NewTenant) (Tenant, error)
	UpdateTenant(ctx context.Context, input TenantInput) (Tenant, error)

	FindUser(ctx context.Context, tenantID, platformUserID string) (ConversationIdentity, error)
	ListUsers(ctx context.Context, tenantID string) ([]ConversationIdentity, error)
	CreateUser(ctx context.Context, input NewUser) (ConversationIdentity, error)
	UpdateUser(ctx context.Context, identity ConversationIdentity) error

	ListChannels(ctx context.Context, tenantID string) ([]Channel, error)
	CreateChannel(ctx context.Context, channel Channel) (Channel, error)

	GetExtension(ctx context.Context, role Role, ownerID string) (ExtensionRecord, error)
	UpdateExtensionData(ctx context.Context, id string, data []byte) (ExtensionRecord, error)
}
