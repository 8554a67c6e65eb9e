// Package slack implements the messenger, directory, profile lookup and OAuth
// installation on top of the Slack Web API.
package slack

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	goslack "github.com/slack-go/slack"

	"github.com/memohai/converse/internal/config"
)

// API builds per-token Slack clients against one API base URL.
type API struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewAPI returns an API for cfg.APIURL. A nil httpClient uses a 30s timeout.
func NewAPI(log *slog.Logger, cfg config.SlackConfig, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimSpace(cfg.APIURL)
	if baseURL == "" {
		baseURL = config.DefaultSlackAPIURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &API{
		baseURL: baseURL,
		http:    httpClient,
		logger:  log.With(slog.String("platform", "slack")),
	}
}

func (a *API) client(token string) *goslack.Client {
	return goslack.New(token,
		goslack.OptionAPIURL(a.baseURL),
		goslack.OptionHTTPClient(a.http),
	)
}
