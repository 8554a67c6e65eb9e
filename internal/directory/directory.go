// Package directory reconciles the local identity store with the remote
// workspace roster.
package directory

import (
	"context"

	"github.com/memohai/converse/internal/identity"
)

// RemoteChannel is a channel reported by the platform.
type RemoteChannel struct {
	ID        string
	Name      string
	IsGeneral bool
}

// RemoteUser is a workspace member reported by the platform.
type RemoteUser struct {
	ID      string
	Name    string
	Email   string
	IsBot   bool
	Deleted bool
}

// Directory lists a tenant's remote roster.
type Directory interface {
	ListChannels(ctx context.Context, tenant identity.Tenant) ([]RemoteChannel, error)
	ListUsers(ctx context.Context, tenant identity.Tenant) ([]RemoteUser, error)
	// ListDirectMessageChannels maps user id to the id of the bot's DM channel with that user.
	ListDirectMessageChannels(ctx context.Context, tenant identity.Tenant) (map[string]string, error)
}

// Store is the part of identity.Service the syncer writes through.
type Store interface {
	ListTenants(ctx context.Context) ([]identity.Tenant, error)
	ListChannels(ctx context.Context, tenant identity.Tenant) ([]identity.Channel, error)
	EnsureChannel(ctx context.Context, tenant identity.Tenant, channel identity.Channel) (identity.Channel, bool, error)
	SyncUser(ctx context.Context, tenant identity.Tenant, profile identity.Profile) (identity.SyncResult, error)
}

// Report counts what one SyncTenant run changed.
type Report struct {
	ChannelsCreated int `json:"channels_created"`
	UsersCreated    int `json:"users_created"`
	UsersUpdated    int `json:"users_updated"`
	UsersSkipped    int `json:"users_skipped"`
}

// Writes is the number of records created or updated.
func (r Report) Writes() int {
	return r.ChannelsCreated + r.UsersCreated + r.UsersUpdated
}

func (r Report) changes() map[string]int {
	return map[string]int{
		"channels_created": r.ChannelsCreated,
		"users_created":    r.UsersCreated,
		"users_updated":    r.UsersUpdated,
		"users_skipped":    r.UsersSkipped,
	}
}
