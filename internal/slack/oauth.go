package slack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	goslack "github.com/slack-go/slack"

	"github.com/memohai/converse/internal/config"
	"github.com/memohai/converse/internal/identity"
)

const authorizeURL = "https://slack.com/oauth/v2/authorize"

// ExchangeFunc trades an OAuth code for workspace credentials.
type ExchangeFunc func(ctx context.Context, client *http.Client, clientID, clientSecret, code, redirectURI string) (*goslack.OAuthV2Response, error)

// Installer drives the "Add to Slack" OAuth v2 flow.
type Installer struct {
	clientID     string
	clientSecret string
	scopes       string
	redirectURL  string
	http         *http.Client
	exchange     ExchangeFunc
}

func NewInstaller(cfg config.SlackConfig, httpClient *http.Client) *Installer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	scopes := cfg.Scopes
	if scopes == "" {
		scopes = config.DefaultSlackScopes
	}
	return &Installer{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scopes:       scopes,
		redirectURL:  cfg.RedirectURL,
		http:         httpClient,
		exchange:     defaultExchange,
	}
}

// WithExchange replaces the code exchange call.
func (i *Installer) WithExchange(fn ExchangeFunc) *Installer {
	i.exchange = fn
	return i
}

// AuthorizeURL is where the installing user is sent.
func (i *Installer) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", i.clientID)
	q.Set("scope", i.scopes)
	q.Set("state", state)
	if i.redirectURL != "" {
		q.Set("redirect_uri", i.redirectURL)
	}
	return authorizeURL + "?" + q.Encode()
}

// Exchange completes the flow and returns the tenant credentials.
func (i *Installer) Exchange(ctx context.Context, code string) (identity.TenantInput, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return identity.TenantInput{}, fmt.Errorf("oauth code is required")
	}
	resp, err := i.exchange(ctx, i.http, i.clientID, i.clientSecret, code, i.redirectURL)
	if err != nil {
		return identity.TenantInput{}, fmt.Errorf("oauth.v2.access: %w", err)
	}
	userToken := resp.AuthedUser.AccessToken
	if userToken == "" {
		userToken = resp.AccessToken
	}
	return identity.TenantInput{
		ExternalID:     resp.Team.ID,
		Name:           resp.Team.Name,
		AccessToken:    userToken,
		BotUserID:      resp.BotUserID,
		BotAccessToken: resp.AccessToken,
	}, nil
}

func defaultExchange(ctx context.Context, client *http.Client, clientID, clientSecret, code, redirectURI string) (*goslack.OAuthV2Response, error) {
	return goslack.GetOAuthV2ResponseContext(ctx, client, clientID, clientSecret, code, redirectURI)
}
