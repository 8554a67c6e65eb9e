package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/labstack/echo/v4"
	goslack "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/memohai/converse/internal/boot"
	"github.com/memohai/converse/internal/pipeline"
)

// ErrVerification is returned when a webhook carries the wrong token or signature.
var ErrVerification = fmt.Errorf("slack request verification failed: %w", errdefs.ErrUnauthenticated)

// EventQueue accepts normalized events for background processing.
type EventQueue interface {
	Enqueue(ev pipeline.Event) error
}

// SlackHandler receives Events API callbacks and interactive button payloads.
type SlackHandler struct {
	verificationToken string
	signingSecret     string
	queue             EventQueue
	logger            *slog.Logger
}

// NewSlackHandler creates the webhook handler. Requests are signature checked
// only when a signing secret is configured.
func NewSlackHandler(log *slog.Logger, rc *boot.RuntimeConfig, queue EventQueue) *SlackHandler {
	return &SlackHandler{
		verificationToken: rc.VerificationToken,
		signingSecret:     rc.SigningSecret,
		queue:             queue,
		logger:            log.With(slog.String("handler", "slack")),
	}
}

func (h *SlackHandler) Register(e *echo.Echo) {
	e.POST("/slack/events", h.HandleEvent)
	e.POST("/slack/actions", h.HandleAction)
}

// HandleEvent answers URL verification and queues user messages.
func (h *SlackHandler) HandleEvent(c echo.Context) error {
	body, err := h.readVerified(c)
	if err != nil {
		return err
	}
	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event payload")
	}
	if !h.tokenMatches(ev.Token) {
		return h.verificationFailed("event token mismatch", ev.TeamID)
	}

	switch ev.Type {
	case slackevents.URLVerification:
		challenge, ok := ev.Data.(*slackevents.EventsAPIURLVerificationEvent)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid challenge payload")
		}
		return c.String(http.StatusOK, challenge.Challenge)
	case slackevents.CallbackEvent:
		msg, ok := ev.InnerEvent.Data.(*slackevents.MessageEvent)
		if !ok {
			return c.NoContent(http.StatusOK)
		}
		if msg.BotID != "" || msg.User == "" {
			return c.NoContent(http.StatusOK)
		}
		return h.enqueue(c, pipeline.Event{
			Kind:      pipeline.KindMessage,
			TeamID:    ev.TeamID,
			UserID:    msg.User,
			ChannelID: msg.Channel,
			Text:      msg.Text,
		})
	default:
		return c.NoContent(http.StatusOK)
	}
}

// HandleAction queues the value of the clicked button as message text.
func (h *SlackHandler) HandleAction(c echo.Context) error {
	body, err := h.readVerified(c)
	if err != nil {
		return err
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}
	raw := form.Get("payload")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "payload is required")
	}
	var cb goslack.InteractionCallback
	if err := json.Unmarshal([]byte(raw), &cb); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid interaction payload")
	}
	if !h.tokenMatches(cb.Token) {
		return h.verificationFailed("action token mismatch", cb.Team.ID)
	}
	text, ok := firstActionValue(cb)
	if !ok {
		return c.NoContent(http.StatusOK)
	}
	return h.enqueue(c, pipeline.Event{
		Kind:      pipeline.KindAction,
		TeamID:    cb.Team.ID,
		UserID:    cb.User.ID,
		ChannelID: cb.Channel.ID,
		Text:      text,
	})
}

func (h *SlackHandler) enqueue(c echo.Context, ev pipeline.Event) error {
	if err := h.queue.Enqueue(ev); err != nil {
		h.logger.Warn("event not queued",
			slog.String("team_id", ev.TeamID),
			slog.String("user_id", ev.UserID),
			slog.String("kind", string(ev.Kind)),
			slog.Any("error", err),
		)
		if errors.Is(err, pipeline.ErrQueueFull) || errors.Is(err, pipeline.ErrQueueStopped) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusOK)
}

func (h *SlackHandler) readVerified(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	if h.signingSecret == "" {
		return body, nil
	}
	sv, err := goslack.NewSecretsVerifier(c.Request().Header, h.signingSecret)
	if err != nil {
		return nil, h.verificationFailed(err.Error(), "")
	}
	if _, err := sv.Write(body); err != nil {
		return nil, h.verificationFailed(err.Error(), "")
	}
	if err := sv.Ensure(); err != nil {
		return nil, h.verificationFailed("signature mismatch", "")
	}
	return body, nil
}

func (h *SlackHandler) tokenMatches(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.verificationToken)) == 1
}

func (h *SlackHandler) verificationFailed(reason, teamID string) error {
	h.logger.Warn("rejected slack request", slog.String("reason", reason), slog.String("team_id", teamID))
	return echo.NewHTTPError(http.StatusBadRequest, ErrVerification.Error()).SetInternal(ErrVerification)
}

func firstActionValue(cb goslack.InteractionCallback) (string, bool) {
	for _, a := range cb.ActionCallback.AttachmentActions {
		if a != nil && strings.TrimSpace(a.Value) != "" {
			return a.Value, true
		}
	}
	for _, a := range cb.ActionCallback.BlockActions {
		if a != nil && strings.TrimSpace(a.Value) != "" {
			return a.Value, true
		}
	}
	return "", false
}
