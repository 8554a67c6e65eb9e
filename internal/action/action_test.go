package action

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/converse/internal/config"
)

func TestClassName(t *testing.T) {
	cases := []struct {
		action, prefix, suffix, want string
	}{
		{"order_item", "Grocery", "Action", "GroceryOrderItemAction"},
		{"foo.bar-baz", "", "", "FooBarBaz"},
		{"add", "", "Action", "AddAction"},
		{"SHOW__list", "", "", "ShowList"},
		{"_leading.trailing_", "", "", "LeadingTrailing"},
		{"", "Pre", "Post", "PrePost"},
	}
	for _, tc := range cases {
		if got := ClassName(tc.action, tc.prefix, tc.suffix); got != tc.want {
			t.Errorf("ClassName(%q, %q, %q) = %q, want %q", tc.action, tc.prefix, tc.suffix, got, tc.want)
		}
	}
}

func TestRegistryExecutesExactMatch(t *testing.T) {
	reg := NewRegistry()
	var got Call
	require.NoError(t, reg.Register("grocery.add", HandlerFunc(func(_ context.Context, call Call) error {
		got = call
		return nil
	})))

	call := Call{Params: map[string]string{"item": "milk"}}
	require.NoError(t, reg.Execute(context.Background(), "grocery.add", call))
	assert.Equal(t, "milk", got.Param("item"))

	assert.NoError(t, reg.Execute(context.Background(), "grocery.remove", call))
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	reg := NewRegistry()
	noop := HandlerFunc(func(context.Context, Call) error { return nil })
	require.NoError(t, reg.Register("a", noop))
	err := reg.Register("a", noop)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.True(t, errdefs.IsFailedPrecondition(err))
}

func TestRegistryWrapsHandlerFailures(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("out of stock")
	reg.MustRegister("fail", HandlerFunc(func(context.Context, Call) error { return boom }))
	reg.MustRegister("panic", HandlerFunc(func(context.Context, Call) error { panic("nil cart") }))

	err := reg.Execute(context.Background(), "fail", Call{})
	var herr *HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "fail", herr.Action)
	assert.ErrorIs(t, err, boom)

	err = reg.Execute(context.Background(), "panic", Call{})
	require.ErrorAs(t, err, &herr)
	assert.Contains(t, herr.Error(), "nil cart")
}

type OrderItemAction struct {
	call     Call
	executed *[]string
}

func (a *OrderItemAction) Execute(context.Context) error {
	if a.executed != nil {
		*a.executed = append(*a.executed, a.call.Param("item"))
	}
	return nil
}

func TestConventionResolvesByTypeName(t *testing.T) {
	var executed []string
	catalog := NewCatalog()
	require.NoError(t, catalog.Add(func(call Call) Action {
		return &OrderItemAction{call: call, executed: &executed}
	}))

	d, err := New(slog.Default(), config.DispatchConfig{Policy: PolicyConvention, Suffix: "Action"}, NewRegistry(), catalog)
	require.NoError(t, err)

	require.NoError(t, d.Execute(context.Background(), "order_item", Call{Params: map[string]string{"item": "eggs"}}))
	require.NoError(t, d.Execute(context.Background(), "order.unknown", Call{}))
	assert.Equal(t, []string{"eggs"}, executed)
}

func TestCatalogRejectsDuplicateType(t *testing.T) {
	catalog := NewCatalog()
	ctor := Constructor(func(call Call) Action { return &OrderItemAction{call: call} })
	require.NoError(t, catalog.Add(ctor))
	assert.ErrorIs(t, catalog.Add(ctor), ErrConfiguration)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "OrderItemAction", TypeName(&OrderItemAction{}))
	assert.Equal(t, "OrderItemAction", TypeName(OrderItemAction{}))
	assert.Equal(t, "", TypeName(nil))
}

func TestNewSelectsExactlyOnePolicy(t *testing.T) {
	noop := HandlerFunc(func(context.Context, Call) error { return nil })
	log := slog.Default()

	reg := NewRegistry()
	reg.MustRegister("a", noop)
	catalog := NewCatalog()
	require.NoError(t, catalog.AddNamed("AAction", func(call Call) Action { return &OrderItemAction{call: call} }))

	_, err := New(log, config.DispatchConfig{Policy: PolicyRegistry}, reg, catalog)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(log, config.DispatchConfig{Policy: PolicyConvention}, reg, NewCatalog())
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(log, config.DispatchConfig{Policy: "magic"}, NewRegistry(), NewCatalog())
	assert.ErrorIs(t, err, ErrConfiguration)

	d, err := New(log, config.DispatchConfig{Policy: PolicyRegistry}, reg, nil)
	require.NoError(t, err)
	assert.IsType(t, &Registry{}, d)

	d, err = New(log, config.DispatchConfig{Policy: PolicyConvention}, nil, catalog)
	require.NoError(t, err)
	assert.IsType(t, &Convention{}, d)
}
