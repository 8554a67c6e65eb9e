package directory

import (
	"context"
	"sync"

	"github.com/memohai/converse/internal/identity"
)

// Static is an in-process roster used by the local platform driver. Unknown
// users are synthesized on lookup so first contact works without a remote API.
type Static struct {
	mu       sync.RWMutex
	channels []RemoteChannel
	users    []RemoteUser
	dms      map[string]string
}

func NewStatic() *Static {
	return &Static{dms: map[string]string{}}
}

// AddChannel appends a channel to the roster.
func (s *Static) AddChannel(ch RemoteChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append(s.channels, ch)
}

// AddUser appends a member and, when dmChannel is set, its DM channel.
func (s *Static) AddUser(u RemoteUser, dmChannel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	if dmChannel != "" {
		s.dms[u.ID] = dmChannel
	}
}

func (s *Static) ListChannels(context.Context, identity.Tenant) ([]RemoteChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RemoteChannel(nil), s.channels...), nil
}

func (s *Static) ListUsers(context.Context, identity.Tenant) ([]RemoteUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RemoteUser(nil), s.users...), nil
}

func (s *Static) ListDirectMessageChannels(context.Context, identity.Tenant) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.dms))
	for k, v := range s.dms {
		out[k] = v
	}
	return out, nil
}

// LookupProfile implements identity.ProfileLookup.
func (s *Static) LookupProfile(_ context.Context, _ identity.Tenant, userID string) (identity.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile := identity.Profile{UserID: userID, Name: userID, ChannelID: s.dms[userID]}
	for _, u := range s.users {
		if u.ID == userID {
			profile.Name = u.Name
			profile.Email = u.Email
			profile.IsBot = u.IsBot
			break
		}
	}
	return profile, nil
}
