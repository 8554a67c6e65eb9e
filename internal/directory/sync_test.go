package directory

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/converse/internal/identity"
	"github.com/memohai/converse/internal/messenger"
)

type countingRepo struct {
	identity.Repository
	writes atomic.Int64
}

func (r *countingRepo) CreateUser(ctx context.Context, in identity.NewUser) (identity.ConversationIdentity, error) {
	r.writes.Add(1)
	return r.Repository.CreateUser(ctx, in)
}

func (r *countingRepo) UpdateUser(ctx context.Context, u identity.ConversationIdentity) error {
	r.writes.Add(1)
	return r.Repository.UpdateUser(ctx, u)
}

func (r *countingRepo) CreateChannel(ctx context.Context, ch identity.Channel) (identity.Channel, error) {
	r.writes.Add(1)
	return r.Repository.CreateChannel(ctx, ch)
}

type fakeDirectory struct {
	channels []RemoteChannel
	users    []RemoteUser
	dms      map[string]string
	err      error
}

func (d *fakeDirectory) ListChannels(context.Context, identity.Tenant) ([]RemoteChannel, error) {
	return d.channels, d.err
}

func (d *fakeDirectory) ListUsers(context.Context, identity.Tenant) ([]RemoteUser, error) {
	return d.users, nil
}

func (d *fakeDirectory) ListDirectMessageChannels(context.Context, identity.Tenant) (map[string]string, error) {
	return d.dms, nil
}

type userExt struct{ identity.UserExtension }
type userImpl struct{}

func (userImpl) Kind() string { return "u" }
func (userImpl) Build(o identity.Owner, r identity.ExtensionRecord) (identity.Extension, error) {
	return userExt{identity.NewUserExtension(o, r)}, nil
}

type orgExt struct{ identity.OrganizationExtension }
type orgImpl struct{}

func (orgImpl) Kind() string { return "o" }
func (orgImpl) Build(o identity.Owner, r identity.ExtensionRecord) (identity.Extension, error) {
	return orgExt{identity.NewOrganizationExtension(o, r)}, nil
}

func newSyncFixture(t *testing.T, dir Directory) (*Syncer, *identity.Service, *countingRepo, identity.Tenant) {
	t.Helper()
	ext := identity.NewExtensions()
	require.NoError(t, ext.Register(identity.RoleUser, userImpl{}))
	require.NoError(t, ext.Register(identity.RoleOrganization, orgImpl{}))
	repo := &countingRepo{Repository: identity.NewMemoryRepository()}
	svc := identity.NewService(slog.Default(), repo, ext, messenger.NewRecorderFactory(nil))
	tenant, _, err := svc.OnboardTenant(context.Background(), identity.TenantInput{ExternalID: "T1", Name: "Acme"})
	require.NoError(t, err)
	syncer := NewSyncer(slog.Default(), svc, dir, []string{"USLACKBOT"}, 2, nil)
	return syncer, svc, repo, tenant
}

func roster() *fakeDirectory {
	return &fakeDirectory{
		channels: []RemoteChannel{
			{ID: "C1", Name: "general", IsGeneral: true},
			{ID: "C2", Name: "random"},
			{ID: "C3", Name: "groceries"},
		},
		users: []RemoteUser{
			{ID: "U1", Name: "Ada", Email: "ada@example.com"},
			{ID: "U2", Name: "Grace", Email: "grace@example.com"},
			{ID: "U3", Name: "Linus"},
			{ID: "U4", Name: "Barbara", Email: "barbara@example.com"},
			{ID: "U5", Name: "Ken"},
			{ID: "B1", Name: "helper", IsBot: true},
			{ID: "USLACKBOT", Name: "slackbot"},
			{ID: "U6", Name: "No DM"},
		},
		dms: map[string]string{
			"U1": "D1", "U2": "D2", "U3": "D3", "U4": "D4", "U5": "D5",
			"B1": "DB1", "USLACKBOT": "DSB",
		},
	}
}

func TestSyncTenantIsIdempotent(t *testing.T) {
	dir := roster()
	syncer, svc, repo, tenant := newSyncFixture(t, dir)
	ctx := context.Background()

	first, err := syncer.SyncTenant(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, Report{ChannelsCreated: 3, UsersCreated: 5, UsersSkipped: 3}, first)
	assert.Equal(t, int64(8), repo.writes.Load())

	second, err := syncer.SyncTenant(ctx, tenant)
	require.NoError(t, err)
	assert.Zero(t, second.Writes())
	assert.Equal(t, int64(8), repo.writes.Load(), "second run must not write")

	main, err := svc.MainChannel(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, "C1", main.PlatformChannelID)
}

func TestSyncTenantExcludesBotsAndSystemUsers(t *testing.T) {
	syncer, svc, _, tenant := newSyncFixture(t, roster())
	ctx := context.Background()

	_, err := syncer.SyncTenant(ctx, tenant)
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx, tenant)
	require.NoError(t, err)
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.Platform.UserID)
	}
	assert.ElementsMatch(t, []string{"U1", "U2", "U3", "U4", "U5"}, ids)
}

func TestSyncTenantUpdatesChangedUsers(t *testing.T) {
	dir := roster()
	syncer, svc, repo, tenant := newSyncFixture(t, dir)
	ctx := context.Background()
	_, err := syncer.SyncTenant(ctx, tenant)
	require.NoError(t, err)
	before := repo.writes.Load()

	dir.users[1].Email = "grace@navy.example"
	dir.dms["U3"] = "D33"
	report, err := syncer.SyncTenant(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 2, report.UsersUpdated)
	assert.Equal(t, before+2, repo.writes.Load())

	u3, err := svc.ResolveOrCreateUser(ctx, tenant, "U3", nil)
	require.NoError(t, err)
	assert.Equal(t, "D33", u3.Platform.ChannelID)
}

func TestSyncAllCollectsTenantFailures(t *testing.T) {
	dir := roster()
	dir.err = errors.New("channels: invalid_auth")
	syncer, svc, _, _ := newSyncFixture(t, dir)
	_, _, err := svc.OnboardTenant(context.Background(), identity.TenantInput{ExternalID: "T2"})
	require.NoError(t, err)

	err = syncer.SyncAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant T1")
	assert.Contains(t, err.Error(), "tenant T2")
}

func TestSyncAllSucceeds(t *testing.T) {
	syncer, svc, _, tenant := newSyncFixture(t, roster())
	require.NoError(t, syncer.SyncAll(context.Background()))
	users, err := svc.ListUsers(context.Background(), tenant)
	require.NoError(t, err)
	assert.Len(t, users, 5)
}
