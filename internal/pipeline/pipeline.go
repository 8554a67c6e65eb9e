// Package pipeline runs one inbound platform event through identity
// resolution, intent parsing, reply and action dispatch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/memohai/converse/internal/action"
	"github.com/memohai/converse/internal/identity"
	"github.com/memohai/converse/internal/messenger"
	"github.com/memohai/converse/internal/metrics"
	"github.com/memohai/converse/internal/parser"
)

// Kind distinguishes typed messages from interactive button presses.
type Kind string

const (
	KindMessage Kind = "message"
	KindAction  Kind = "action"
)

// Event is a normalized inbound event.
type Event struct {
	Kind      Kind
	TeamID    string
	UserID    string
	ChannelID string
	Text      string
}

// Identities is the part of identity.Service the pipeline needs.
type Identities interface {
	TenantByExternalID(ctx context.Context, externalID string) (identity.Tenant, error)
	ResolveOrCreateUser(ctx context.Context, tenant identity.Tenant, platformUserID string, lookup identity.ProfileLookup) (identity.ConversationIdentity, error)
	ExtensionFor(ctx context.Context, user identity.ConversationIdentity) (identity.Extension, error)
	MessengerFor(tenant identity.Tenant, user identity.ConversationIdentity) messenger.Messenger
}

// Pipeline processes events. It holds no per-event state, so one value
// serves all workers.
type Pipeline struct {
	identities Identities
	lookup     identity.ProfileLookup
	parser     parser.Parser
	dispatcher action.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func New(log *slog.Logger, identities Identities, lookup identity.ProfileLookup, p parser.Parser, dispatcher action.Dispatcher, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		identities: identities,
		lookup:     lookup,
		parser:     p,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     log.With(slog.String("service", "pipeline")),
	}
}

// Process handles ev. Unknown tenants and failed profile lookups drop the
// event and return nil; parse and storage errors are returned. A failing
// action handler is logged and the event still counts as processed.
func (p *Pipeline) Process(ctx context.Context, ev Event) error {
	log := p.logger.With(
		slog.String("team_id", ev.TeamID),
		slog.String("user_id", ev.UserID),
		slog.String("kind", string(ev.Kind)),
	)

	tenant, err := p.identities.TenantByExternalID(ctx, ev.TeamID)
	if errors.Is(err, identity.ErrNotFound) {
		log.Warn("event for unknown tenant dropped")
		p.metrics.Event(string(ev.Kind), metrics.OutcomeDropped)
		return nil
	}
	if err != nil {
		p.metrics.Event(string(ev.Kind), metrics.OutcomeFailed)
		return fmt.Errorf("load tenant: %w", err)
	}

	user, err := p.identities.ResolveOrCreateUser(ctx, tenant, ev.UserID, p.lookup)
	if identity.IsRemoteLookup(err) {
		log.Error("user lookup failed, event dropped", slog.Any("error", err))
		p.metrics.Event(string(ev.Kind), metrics.OutcomeDropped)
		return nil
	}
	if err != nil {
		p.metrics.Event(string(ev.Kind), metrics.OutcomeFailed)
		return fmt.Errorf("resolve user: %w", err)
	}

	intent, err := p.parser.Parse(ctx, ev.Text, identity.SessionID(tenant, user.Platform.UserID))
	if err != nil {
		p.metrics.Event(string(ev.Kind), metrics.OutcomeFailed)
		return fmt.Errorf("parse: %w", err)
	}

	if intent.Text != "" {
		sent := p.identities.MessengerFor(tenant, user).Send(ctx, intent.Text)
		p.metrics.Reply(sent)
		if !sent {
			log.Warn("reply not delivered")
		}
	}

	if intent.Dispatchable() {
		if err := p.dispatch(ctx, log, user, intent); err != nil {
			p.metrics.Event(string(ev.Kind), metrics.OutcomeFailed)
			return err
		}
	}

	p.metrics.Event(string(ev.Kind), metrics.OutcomeProcessed)
	return nil
}

func (p *Pipeline) dispatch(ctx context.Context, log *slog.Logger, user identity.ConversationIdentity, intent parser.Intent) error {
	ext, err := p.identities.ExtensionFor(ctx, user)
	if err != nil {
		return fmt.Errorf("load user extension: %w", err)
	}
	err = p.dispatcher.Execute(ctx, intent.Action, action.Call{
		User:     ext,
		Params:   intent.Params,
		Contexts: intent.Contexts,
	})
	p.metrics.Dispatch(intent.Action, err)
	var handlerErr *action.HandlerError
	if errors.As(err, &handlerErr) {
		log.Error("action failed", slog.String("action", handlerErr.Action), slog.Any("error", handlerErr.Err))
		return nil
	}
	return err
}
