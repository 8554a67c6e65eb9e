package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/converse/internal/auth"
	"github.com/memohai/converse/internal/directory"
	"github.com/memohai/converse/internal/identity"
)

type fakeInstaller struct {
	exchangeErr error
	codes       []string
}

func (f *fakeInstaller) AuthorizeURL(state string) string {
	return "https://slack.test/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeInstaller) Exchange(_ context.Context, code string) (identity.TenantInput, error) {
	f.codes = append(f.codes, code)
	if f.exchangeErr != nil {
		return identity.TenantInput{}, f.exchangeErr
	}
	return identity.TenantInput{ExternalID: "T1", Name: "Acme", BotAccessToken: "xoxb"}, nil
}

type fakeOnboarder struct {
	inputs []identity.TenantInput
}

func (f *fakeOnboarder) OnboardTenant(_ context.Context, input identity.TenantInput) (identity.Tenant, bool, error) {
	f.inputs = append(f.inputs, input)
	return identity.Tenant{ID: "tenant-1", ExternalID: input.ExternalID, Name: input.Name}, true, nil
}

type fakeTenantSyncer struct {
	synced []string
	err    error
}

func (f *fakeTenantSyncer) SyncTenant(_ context.Context, tenant identity.Tenant) (directory.Report, error) {
	f.synced = append(f.synced, tenant.ExternalID)
	return directory.Report{ChannelsCreated: 2, UsersCreated: 3}, f.err
}

const testStateSecret = "state-secret"

func newInstallServer(installer *fakeInstaller, tenants *fakeOnboarder, syncer *fakeTenantSyncer, opts InstallOptions) *echo.Echo {
	e := echo.New()
	NewInstallHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), installer, tenants, syncer, opts).Register(e)
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func validState(t *testing.T) string {
	t.Helper()
	state, _, err := auth.GenerateToken(installStateSubject, testStateSecret, time.Minute)
	require.NoError(t, err)
	return state
}

func TestInstallRedirectsWithSignedState(t *testing.T) {
	e := newInstallServer(&fakeInstaller{}, &fakeOnboarder{}, &fakeTenantSyncer{}, InstallOptions{StateSecret: testStateSecret, StateTTL: time.Minute})

	rec := get(e, "/slack/install")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	subject, err := auth.VerifyToken(loc.Query().Get("state"), testStateSecret)
	require.NoError(t, err)
	assert.Equal(t, installStateSubject, subject)
}

func TestInstallWithoutSecretFails(t *testing.T) {
	e := newInstallServer(&fakeInstaller{}, &fakeOnboarder{}, &fakeTenantSyncer{}, InstallOptions{StateTTL: time.Minute})
	rec := get(e, "/slack/install")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCallbackOnboardsSyncsAndRedirects(t *testing.T) {
	installer := &fakeInstaller{}
	tenants := &fakeOnboarder{}
	syncer := &fakeTenantSyncer{}
	e := newInstallServer(installer, tenants, syncer, InstallOptions{
		StateSecret: testStateSecret,
		StateTTL:    time.Minute,
		SuccessURL:  "https://example.com/installed",
		FailureURL:  "https://example.com/failed",
	})

	rec := get(e, "/slack/oauth?code=abc&state="+url.QueryEscape(validState(t)))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/installed?team=T1", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, []string{"abc"}, installer.codes)
	require.Len(t, tenants.inputs, 1)
	assert.Equal(t, "T1", tenants.inputs[0].ExternalID)
	assert.Equal(t, []string{"T1"}, syncer.synced)
}

func TestCallbackSyncFailureStillSucceeds(t *testing.T) {
	syncer := &fakeTenantSyncer{err: errors.New("slack down")}
	e := newInstallServer(&fakeInstaller{}, &fakeOnboarder{}, syncer, InstallOptions{StateSecret: testStateSecret, StateTTL: time.Minute})

	rec := get(e, "/slack/oauth?code=abc&state="+url.QueryEscape(validState(t)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"team_id":"T1"`)
	assert.Contains(t, rec.Body.String(), `"users_created":3`)
}

func TestCallbackRejectsBadState(t *testing.T) {
	installer := &fakeInstaller{}
	e := newInstallServer(installer, &fakeOnboarder{}, &fakeTenantSyncer{}, InstallOptions{
		StateSecret: testStateSecret,
		StateTTL:    time.Minute,
		FailureURL:  "https://example.com/failed",
	})

	forged, _, err := auth.GenerateToken(installStateSubject, "other-secret", time.Minute)
	require.NoError(t, err)
	rec := get(e, "/slack/oauth?code=abc&state="+url.QueryEscape(forged))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/failed?error=invalid_state", rec.Header().Get(echo.HeaderLocation))
	assert.Empty(t, installer.codes)
}

func TestCallbackReportsExchangeFailure(t *testing.T) {
	tenants := &fakeOnboarder{}
	e := newInstallServer(&fakeInstaller{exchangeErr: errors.New("invalid_code")}, tenants, &fakeTenantSyncer{}, InstallOptions{StateSecret: testStateSecret, StateTTL: time.Minute})

	rec := get(e, "/slack/oauth?code=abc&state="+url.QueryEscape(validState(t)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, tenants.inputs)
}

func TestCallbackDeclinedByUser(t *testing.T) {
	e := newInstallServer(&fakeInstaller{}, &fakeOnboarder{}, &fakeTenantSyncer{}, InstallOptions{
		StateSecret: testStateSecret,
		FailureURL:  "https://example.com/failed",
	})
	rec := get(e, "/slack/oauth?error=access_denied")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/failed?error=access_denied", rec.Header().Get(echo.HeaderLocation))
}
