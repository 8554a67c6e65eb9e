package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/memohai/converse/internal/config"
)

// APIAI queries an API.AI compatible /query endpoint.
type APIAI struct {
	http     *http.Client
	baseURL  string
	token    string
	version  string
	language string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewAPIAI builds a client. A nil httpClient uses one bounded by cfg's timeout.
func NewAPIAI(log *slog.Logger, cfg config.ParserConfig, httpClient *http.Client) *APIAI {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.ParserTimeout()}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultAPIAIBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = config.DefaultAPIAIVersion
	}
	language := cfg.Language
	if language == "" {
		language = config.DefaultParserLanguage
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &APIAI{
		http:     httpClient,
		baseURL:  baseURL,
		token:    strings.TrimSpace(cfg.ClientToken),
		version:  version,
		language: language,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   log.With(slog.String("parser", BackendAPIAI)),
	}
}

type apiaiQueryRequest struct {
	Query     string `json:"query"`
	Lang      string `json:"lang"`
	SessionID string `json:"sessionId"`
}

type apiaiQueryResponse struct {
	Result struct {
		Action           string         `json:"action"`
		ActionIncomplete bool           `json:"actionIncomplete"`
		Parameters       map[string]any `json:"parameters"`
		Contexts         []struct {
			Name       string         `json:"name"`
			Parameters map[string]any `json:"parameters"`
		} `json:"contexts"`
		Fulfillment struct {
			Speech string `json:"speech"`
		} `json:"fulfillment"`
	} `json:"result"`
	Status struct {
		Code         int    `json:"code"`
		ErrorType    string `json:"errorType"`
		ErrorDetails string `json:"errorDetails"`
	} `json:"status"`
}

func (p *APIAI) Parse(ctx context.Context, text, sessionID string) (Intent, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Intent{}, err
	}
	payload, err := json.Marshal(apiaiQueryRequest{Query: text, Lang: p.language, SessionID: sessionID})
	if err != nil {
		return Intent{}, err
	}
	endpoint := p.baseURL + "/query?v=" + url.QueryEscape(p.version)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Intent{}, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.http.Do(req)
	if err != nil {
		return Intent{}, fmt.Errorf("apiai query: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Intent{}, fmt.Errorf("apiai query: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Intent{}, fmt.Errorf("apiai query http %d", resp.StatusCode)
	}
	var out apiaiQueryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Intent{}, fmt.Errorf("apiai query: decode: %w", err)
	}
	if out.Status.Code != 0 && out.Status.Code != http.StatusOK {
		return Intent{}, fmt.Errorf("apiai query failed: %d %s %s", out.Status.Code, out.Status.ErrorType, out.Status.ErrorDetails)
	}

	intent := Intent{
		Text:                out.Result.Fulfillment.Speech,
		Action:              out.Result.Action,
		SlotFillingComplete: !out.Result.ActionIncomplete,
		Params:              stringify(out.Result.Parameters),
		Contexts:            make(map[string]map[string]string, len(out.Result.Contexts)),
	}
	for _, c := range out.Result.Contexts {
		intent.Contexts[c.Name] = stringify(c.Parameters)
	}
	p.logger.Debug("parsed",
		slog.String("session_id", sessionID),
		slog.String("action", intent.Action),
		slog.Bool("complete", intent.SlotFillingComplete),
	)
	return intent, nil
}

// stringify flattens parameter values to strings; composite values are kept
// as JSON.
func stringify(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch tv := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = tv
		case float64, bool:
			out[k] = fmt.Sprint(tv)
		default:
			raw, err := json.Marshal(tv)
			if err != nil {
				out[k] = fmt.Sprint(tv)
				continue
			}
			out[k] = string(raw)
		}
	}
	return out
}
