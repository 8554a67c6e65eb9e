package slack

import (
	"context"
	"log/slog"

	goslack "github.com/slack-go/slack"

	"github.com/memohai/converse/internal/directory"
	"github.com/memohai/converse/internal/identity"
)

const pageSize = 200

// Directory lists a workspace roster and looks up single users. It satisfies
// directory.Directory and identity.ProfileLookup.
type Directory struct {
	api    *API
	logger *slog.Logger
}

func NewDirectory(api *API) *Directory {
	return &Directory{api: api, logger: api.logger.With(slog.String("component", "directory"))}
}

func (d *Directory) ListChannels(ctx context.Context, tenant identity.Tenant) ([]directory.RemoteChannel, error) {
	channels, err := d.conversations(ctx, tenant, "public_channel")
	if err != nil {
		return nil, err
	}
	out := make([]directory.RemoteChannel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, directory.RemoteChannel{ID: ch.ID, Name: ch.Name, IsGeneral: ch.IsGeneral})
	}
	return out, nil
}

func (d *Directory) ListUsers(ctx context.Context, tenant identity.Tenant) ([]directory.RemoteUser, error) {
	users, err := d.api.client(tenant.Token()).GetUsersContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]directory.RemoteUser, 0, len(users))
	for _, u := range users {
		out = append(out, directory.RemoteUser{
			ID:      u.ID,
			Name:    displayName(u),
			Email:   u.Profile.Email,
			IsBot:   u.IsBot,
			Deleted: u.Deleted,
		})
	}
	return out, nil
}

func (d *Directory) ListDirectMessageChannels(ctx context.Context, tenant identity.Tenant) (map[string]string, error) {
	ims, err := d.conversations(ctx, tenant, "im")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(ims))
	for _, im := range ims {
		if im.User != "" {
			out[im.User] = im.ID
		}
	}
	return out, nil
}

// LookupProfile describes one user via users.info. The DM channel is taken
// from the bot's open IMs; when none is open the profile carries no channel
// and messages fall back to the user id.
func (d *Directory) LookupProfile(ctx context.Context, tenant identity.Tenant, userID string) (identity.Profile, error) {
	u, err := d.api.client(tenant.Token()).GetUserInfoContext(ctx, userID)
	if err != nil {
		return identity.Profile{}, err
	}
	profile := identity.Profile{
		UserID: u.ID,
		Name:   displayName(*u),
		Email:  u.Profile.Email,
		IsBot:  u.IsBot,
	}
	dms, err := d.ListDirectMessageChannels(ctx, tenant)
	if err != nil {
		d.logger.Warn("im lookup failed", slog.String("team_id", tenant.ExternalID), slog.Any("error", err))
		return profile, nil
	}
	if dm, ok := dms[userID]; ok {
		profile.ChannelID = dm
	} else {
		d.logger.Warn("no direct message channel for user",
			slog.String("team_id", tenant.ExternalID),
			slog.String("user_id", userID),
		)
	}
	return profile, nil
}

func (d *Directory) conversations(ctx context.Context, tenant identity.Tenant, kind string) ([]goslack.Channel, error) {
	client := d.api.client(tenant.Token())
	params := &goslack.GetConversationsParameters{
		Types:           []string{kind},
		Limit:           pageSize,
		ExcludeArchived: true,
	}
	var all []goslack.Channel
	for {
		page, cursor, err := client.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if cursor == "" {
			return all, nil
		}
		params.Cursor = cursor
	}
}

func displayName(u goslack.User) string {
	if u.Profile.RealName != "" {
		return u.Profile.RealName
	}
	if u.RealName != "" {
		return u.RealName
	}
	return u.Name
}
