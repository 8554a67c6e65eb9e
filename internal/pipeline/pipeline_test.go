package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/converse/internal/action"
	"github.com/memohai/converse/internal/identity"
	"github.com/memohai/converse/internal/messenger"
	"github.com/memohai/converse/internal/metrics"
	"github.com/memohai/converse/internal/parser"
)

type member struct{ identity.UserExtension }

type memberImpl struct{}

func (memberImpl) Kind() string { return "member" }

func (memberImpl) Build(owner identity.Owner, record identity.ExtensionRecord) (identity.Extension, error) {
	return member{identity.NewUserExtension(owner, record)}, nil
}

type team struct{ identity.OrganizationExtension }

type teamImpl struct{}

func (teamImpl) Kind() string { return "team" }

func (teamImpl) Build(owner identity.Owner, record identity.ExtensionRecord) (identity.Extension, error) {
	return team{identity.NewOrganizationExtension(owner, record)}, nil
}

type stubParser struct {
	mu       sync.Mutex
	intent   parser.Intent
	err      error
	sessions []string
}

func (p *stubParser) Parse(_ context.Context, _ string, sessionID string) (parser.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions = append(p.sessions, sessionID)
	return p.intent, p.err
}

type fixture struct {
	pipeline  *Pipeline
	service   *identity.Service
	repo      *identity.MemoryRepository
	recorders *messenger.RecorderFactory
	parser    *stubParser
	registry  *action.Registry
	metrics   *metrics.Metrics
	lookup    identity.ProfileLookupFunc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ext := identity.NewExtensions()
	require.NoError(t, ext.Register(identity.RoleUser, memberImpl{}))
	require.NoError(t, ext.Register(identity.RoleOrganization, teamImpl{}))
	f := &fixture{
		repo:      identity.NewMemoryRepository(),
		recorders: messenger.NewRecorderFactory(nil),
		parser:    &stubParser{},
		registry:  action.NewRegistry(),
		metrics:   metrics.New(),
	}
	f.service = identity.NewService(slog.Default(), f.repo, ext, f.recorders)
	_, _, err := f.service.OnboardTenant(context.Background(), identity.TenantInput{ExternalID: "T1", Name: "Acme", BotAccessToken: "xoxb"})
	require.NoError(t, err)
	f.lookup = func(_ context.Context, _ identity.Tenant, uid string) (identity.Profile, error) {
		return identity.Profile{UserID: uid, Name: "Ada", ChannelID: "D" + uid}, nil
	}
	f.pipeline = New(slog.Default(), f.service, &f.lookup, f.parser, f.registry, f.metrics)
	return f
}

func (f *fixture) processed(kind string) float64 {
	return testutil.ToFloat64(f.metrics.Events.WithLabelValues(kind, metrics.OutcomeProcessed))
}

func TestProcessDispatchGating(t *testing.T) {
	cases := []struct {
		name     string
		intent   parser.Intent
		dispatch bool
	}{
		{"complete with action", parser.Intent{Action: "grocery.add", SlotFillingComplete: true}, true},
		{"incomplete", parser.Intent{Action: "grocery.add", SlotFillingComplete: false}, false},
		{"no action", parser.Intent{SlotFillingComplete: true}, false},
		{"neither", parser.Intent{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.parser.intent = tc.intent
			calls := 0
			f.registry.MustRegister("grocery.add", action.HandlerFunc(func(context.Context, action.Call) error {
				calls++
				return nil
			}))

			require.NoError(t, f.pipeline.Process(context.Background(), Event{Kind: KindMessage, TeamID: "T1", UserID: "U1", Text: "add"}))
			if tc.dispatch {
				assert.Equal(t, 1, calls)
			} else {
				assert.Zero(t, calls)
			}
		})
	}
}

func TestProcessRepliesBeforeDispatch(t *testing.T) {
	f := newFixture(t)
	f.parser.intent = parser.Intent{
		Text:                "Adding milk.",
		Action:              "grocery.add",
		SlotFillingComplete: true,
		Params:              map[string]string{"item": "milk"},
	}
	var sentAtDispatch []messenger.Sent
	var got action.Call
	f.registry.MustRegister("grocery.add", action.HandlerFunc(func(_ context.Context, call action.Call) error {
		sentAtDispatch = f.recorders.Sent()
		got = call
		return nil
	}))

	require.NoError(t, f.pipeline.Process(context.Background(), Event{Kind: KindMessage, TeamID: "T1", UserID: "U1", Text: "add milk"}))

	require.Len(t, sentAtDispatch, 1)
	assert.Equal(t, "Adding milk.", sentAtDispatch[0].Text)
	assert.Equal(t, "DU1", sentAtDispatch[0].Channel)
	assert.Equal(t, "milk", got.Param("item"))
	m, ok := got.User.(member)
	require.True(t, ok)
	assert.Equal(t, "Ada", m.Name())
	assert.Equal(t, []string{"T1-U1"}, f.parser.sessions)
	assert.Equal(t, float64(1), f.processed("message"))
}

func TestProcessSessionUsesStoredUserID(t *testing.T) {
	f := newFixture(t)
	f.parser.intent = parser.Intent{Text: "Hi."}

	require.NoError(t, f.pipeline.Process(context.Background(), Event{Kind: KindMessage, TeamID: "T1", UserID: " U1 ", Text: "hi"}))
	require.NoError(t, f.pipeline.Process(context.Background(), Event{Kind: KindMessage, TeamID: "T1", UserID: "U1", Text: "hi"}))

	assert.Equal(t, []string{"T1-U1", "T1-U1"}, f.parser.sessions)
}

func TestProcessUnknownTenantDropped(t *testing.T) {
	f := newFixture(t)
	f.parser.intent = parser.Intent{Text: "hi"}

	require.NoError(t, f.pipeline.Process(context.Background(), Event{Kind: KindMessage, TeamID: "T404", UserID: "U1", Text: "hi"}))
	assert.Empty(t, f.recorders.Sent())
	assert.Empty(t, f.parser.sessions)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Events.WithLabelValues("message", metrics.OutcomeDropped)))
}

func TestProcessRemoteLookupFailureDropped(t *testing.T) {
	f := newFixture(t)
	f.lookup = func(context.Context, identity.Tenant, string) (identity.Profile, error) {
		return identity.Profile{}, errors.New("user_not_found")
	}
	f.parser.intent = parser.Intent{Text: "hi"}

	require.NoError(t, f.pipeline.Process(context.Background(), Event{Kind: KindMessage, TeamID: "T1", UserID: "U1", Text: "hi"}))
	assert.Empty(t, f.recorders.Sent())
	assert.Empty(t, f.parser.sessions)
	tenant, err := f.service.TenantByExternalID(context.Background(), "T1")
	require.NoError(t, err)
	users, err := f.repo.ListUsers(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestProcessParseErrorPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("parser down")
	f.parser.err = boom

	err := f.pipeline.Process(context.Background(), Event{Kind: KindMessage, TeamID: "T1", UserID: "U1", Text: "hi"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.recorders.Sent())
}

func TestProcessHandlerErrorStillProcessed(t *testing.T) {
	f := newFixture(t)
	f.parser.intent = parser.Intent{Text: "On it.", Action: "explode", SlotFillingComplete: true}
	f.registry.MustRegister("explode", action.HandlerFunc(func(context.Context, action.Call) error {
		return errors.New("kaboom")
	}))

	require.NoError(t, f.pipeline.Process(context.Background(), Event{Kind: KindAction, TeamID: "T1", UserID: "U1", Text: "go"}))
	assert.Len(t, f.recorders.Sent(), 1)
	assert.Equal(t, float64(1), f.processed("action"))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Dispatches.WithLabelValues("explode", "error")))
}

func TestProcessSendFailureIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.recorders.FailChannel("DU1")
	f.parser.intent = parser.Intent{Text: "hello"}

	require.NoError(t, f.pipeline.Process(context.Background(), Event{Kind: KindMessage, TeamID: "T1", UserID: "U1", Text: "hi"}))
	assert.Empty(t, f.recorders.Sent())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Replies.WithLabelValues("failed")))
}
