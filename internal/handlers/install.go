package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memohai/converse/internal/auth"
	"github.com/memohai/converse/internal/directory"
	"github.com/memohai/converse/internal/identity"
)

const installStateSubject = "slack-install"

// Installer runs the platform side of the OAuth install flow.
type Installer interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (identity.TenantInput, error)
}

// TenantOnboarder persists a freshly installed tenant.
type TenantOnboarder interface {
	OnboardTenant(ctx context.Context, input identity.TenantInput) (identity.Tenant, bool, error)
}

// TenantSyncer pulls the roster of a single tenant.
type TenantSyncer interface {
	SyncTenant(ctx context.Context, tenant identity.Tenant) (directory.Report, error)
}

// InstallOptions holds the state signing settings and redirect targets.
type InstallOptions struct {
	StateSecret string
	StateTTL    time.Duration
	SuccessURL  string
	FailureURL  string
}

// InstallHandler serves the "Add to Slack" redirect and the OAuth callback.
type InstallHandler struct {
	installer Installer
	tenants   TenantOnboarder
	syncer    TenantSyncer
	opts      InstallOptions
	logger    *slog.Logger
}

func NewInstallHandler(log *slog.Logger, installer Installer, tenants TenantOnboarder, syncer TenantSyncer, opts InstallOptions) *InstallHandler {
	return &InstallHandler{
		installer: installer,
		tenants:   tenants,
		syncer:    syncer,
		opts:      opts,
		logger:    log.With(slog.String("handler", "install")),
	}
}

func (h *InstallHandler) Register(e *echo.Echo) {
	e.GET("/slack/install", h.Install)
	e.GET("/slack/oauth", h.Callback)
}

// Install redirects to the platform authorize page with a signed state.
func (h *InstallHandler) Install(c echo.Context) error {
	state, _, err := auth.GenerateToken(installStateSubject, h.opts.StateSecret, h.opts.StateTTL)
	if err != nil {
		h.logger.Error("sign install state failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "install is not configured")
	}
	return c.Redirect(http.StatusFound, h.installer.AuthorizeURL(state))
}

// Callback exchanges the code, onboards the tenant and runs a first roster sync.
func (h *InstallHandler) Callback(c echo.Context) error {
	if reason := c.QueryParam("error"); reason != "" {
		h.logger.Info("install declined", slog.String("reason", reason))
		return h.fail(c, reason)
	}
	subject, err := auth.VerifyToken(c.QueryParam("state"), h.opts.StateSecret)
	if err != nil || subject != installStateSubject {
		h.logger.Warn("install state rejected", slog.Any("error", err))
		return h.fail(c, "invalid_state")
	}

	ctx := c.Request().Context()
	input, err := h.installer.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		h.logger.Error("oauth exchange failed", slog.Any("error", err))
		return h.fail(c, "exchange_failed")
	}
	tenant, created, err := h.tenants.OnboardTenant(ctx, input)
	if err != nil {
		h.logger.Error("onboard tenant failed", slog.String("team_id", input.ExternalID), slog.Any("error", err))
		return h.fail(c, "onboard_failed")
	}

	resp := InstallResponse{TeamID: tenant.ExternalID, Created: created}
	if h.syncer != nil {
		report, err := h.syncer.SyncTenant(ctx, tenant)
		if err != nil {
			// The tenant is installed; the nightly run picks the roster up.
			h.logger.Warn("initial roster sync failed", slog.String("team_id", tenant.ExternalID), slog.Any("error", err))
		}
		resp.Report = report
	}

	if h.opts.SuccessURL == "" {
		return c.JSON(http.StatusOK, resp)
	}
	return c.Redirect(http.StatusFound, withQuery(h.opts.SuccessURL, "team", tenant.ExternalID))
}

// InstallResponse is returned when no success URL is configured.
type InstallResponse struct {
	TeamID  string           `json:"team_id"`
	Created bool             `json:"created"`
	Report  directory.Report `json:"report"`
}

func (h *InstallHandler) fail(c echo.Context, reason string) error {
	if h.opts.FailureURL == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: reason})
	}
	return c.Redirect(http.StatusFound, withQuery(h.opts.FailureURL, "error", reason))
}

func withQuery(raw, key, value string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
