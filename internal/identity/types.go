// Package identity resolves platform users and workspaces into stable
// conversation identities and tenants, and attaches host-defined extensions
// to them.
package identity

import (
	"encoding/json"
	"time"
)

// Role names the owner kind an extension implementation is registered for.
type Role string

const (
	RoleUser         Role = "user"
	RoleOrganization Role = "organization"
)

// Tenant is one installed workspace.
type Tenant struct {
	ID             string    `json:"id"`
	ExternalID     string    `json:"external_id"`
	Name           string    `json:"name"`
	AccessToken    string    `json:"-"`
	BotUserID      string    `json:"bot_user_id"`
	BotAccessToken string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Token returns the credential used for outbound messaging, preferring the bot token.
func (t Tenant) Token() string {
	if t.BotAccessToken != "" {
		return t.BotAccessToken
	}
	return t.AccessToken
}

// TenantInput carries the workspace credentials obtained at installation.
type TenantInput struct {
	ExternalID     string
	Name           string
	AccessToken    string
	BotUserID      string
	BotAccessToken string
}

// PlatformUser is the platform-specific half of a ConversationIdentity.
type PlatformUser struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id,omitempty"`
}

// ConversationIdentity is the stable, platform-agnostic user record.
type ConversationIdentity struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Platform  PlatformUser `json:"platform"`
}

// Channel is a known workspace channel.
type Channel struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id"`
	PlatformChannelID string    `json:"platform_channel_id"`
	Name              string    `json:"name"`
	IsMain            bool      `json:"is_main"`
	CreatedAt         time.Time `json:"created_at"`
}

// ExtensionRecord is the persisted half of a host extension. OwnerID refers to
// an identity for RoleUser and to a tenant for RoleOrganization.
type ExtensionRecord struct {
	ID        string          `json:"id"`
	Role      Role            `json:"role"`
	Kind      string          `json:"kind"`
	OwnerID   string          `json:"owner_id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Profile is what the platform reports about a user.
type Profile struct {
	UserID    string
	Name      string
	Email     string
	ChannelID string
	IsBot     bool
}

// NewUser is the input for creating an identity, its platform user and its
// user extension record in one unit.
type NewUser struct {
	TenantID      string
	UserID        string
	ChannelID     string
	Name          string
	Email         string
	ExtensionKind string
}

// NewTenant is the input for creating a tenant together with its
// organization extension record.
type NewTenant struct {
	TenantInput
	ExtensionKind string
}

// SyncResult reports what SyncUser did.
type SyncResult int

const (
	SyncUnchanged SyncResult = iota
	SyncCreated
	SyncUpdated
)

func (r SyncResult) String() string {
	switch r {
	case SyncCreated:
		return "created"
	case SyncUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}
