package identity

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/memohai/converse/internal/messenger"
)

// Extension is a host-defined value attached to an identity or a tenant.
type Extension interface {
	Record() ExtensionRecord
}

// Owner is everything an implementation may read while building an extension.
// Identity is zero for RoleOrganization. Messenger may be nil for an
// organization without a main channel.
type Owner struct {
	Identity  ConversationIdentity
	Tenant    Tenant
	Messenger messenger.Messenger
}

// Implementation is registered by the host application, once per role.
type Implementation interface {
	// Kind is persisted on every record this implementation creates.
	Kind() string
	Build(owner Owner, record ExtensionRecord) (Extension, error)
}

// Extensions is the role-keyed registry of host implementations.
type Extensions struct {
	mu    sync.RWMutex
	impls map[Role]Implementation
}

func NewExtensions() *Extensions {
	return &Extensions{impls: map[Role]Implementation{}}
}

// Register binds impl to role. A second registration for the same role is
// rejected.
func (e *Extensions) Register(role Role, impl Implementation) error {
	if role != RoleUser && role != RoleOrganization {
		return fmt.Errorf("%w: unknown extension role %q", ErrConfiguration, role)
	}
	if impl == nil || impl.Kind() == "" {
		return fmt.Errorf("%w: %s extension must have a kind", ErrConfiguration, role)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.impls[role]; ok {
		return fmt.Errorf("%w: %s extension already registered as %q", ErrConfiguration, role, existing.Kind())
	}
	e.impls[role] = impl
	return nil
}

// Implementation returns the implementation registered for role.
func (e *Extensions) Implementation(role Role) (Implementation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	impl, ok := e.impls[role]
	if !ok {
		return nil, fmt.Errorf("%w: no %s extension registered", ErrConfiguration, role)
	}
	return impl, nil
}

// Validate fails unless both roles have an implementation.
func (e *Extensions) Validate() error {
	for _, role := range []Role{RoleUser, RoleOrganization} {
		if _, err := e.Implementation(role); err != nil {
			return err
		}
	}
	return nil
}

// UserExtension is embedded by host user extensions. Its accessors delegate
// to the owning identity.
type UserExtension struct {
	owner  Owner
	record ExtensionRecord
}

func NewUserExtension(owner Owner, record ExtensionRecord) UserExtension {
	return UserExtension{owner: owner, record: record}
}

func (u UserExtension) Record() ExtensionRecord { return u.record }
func (u UserExtension) Identity() ConversationIdentity { return u.owner.Identity }
func (u UserExtension) Tenant() Tenant { return u.owner.Tenant }
func (u UserExtension) Messenger() messenger.Messenger { return u.owner.Messenger }
func (u UserExtension) Name() string { return u.owner.Identity.Name }
func (u UserExtension) Email() string { return u.owner.Identity.Email }
func (u UserExtension) UserID() string { return u.owner.Identity.Platform.UserID }
func (u UserExtension) ChannelID() string { return u.owner.Identity.Platform.ChannelID }
func (u UserExtension) SessionID() string { return SessionID(u.owner.Tenant, u.UserID()) }
func (u UserExtension) DecodeData(v any) error { return decodeData(u.record, v) }

// OrganizationExtension is embedded by host organization extensions.
type OrganizationExtension struct {
	owner  Owner
	record ExtensionRecord
}

func NewOrganizationExtension(owner Owner, record ExtensionRecord) OrganizationExtension {
	return OrganizationExtension{owner: owner, record: record}
}

func (o OrganizationExtension) Record() ExtensionRecord { return o.record }
func (o OrganizationExtension) Tenant() Tenant { return o.owner.Tenant }
func (o OrganizationExtension) Name() string { return o.owner.Tenant.Name }
func (o OrganizationExtension) ExternalID() string { return o.owner.Tenant.ExternalID }
func (o OrganizationExtension) Messenger() messenger.Messenger { return o.owner.Messenger }
func (o OrganizationExtension) DecodeData(v any) error { return decodeData(o.record, v) }

func decodeData(record ExtensionRecord, v any) error {
	if len(record.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(record.Data, v); err != nil {
		return fmt.Errorf("decode %s extension data: %w", record.Role, err)
	}
	return nil
}

// SessionID is the parser session key for a user or channel of a tenant.
func SessionID(tenant Tenant, platformID string) string {
	return tenant.ExternalID + "-" + platformID
}
