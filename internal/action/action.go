// Package action dispatches parsed intents to host-application code.
//
// Two resolution policies exist and exactly one is active per deployment:
// an explicit Registry keyed by action name, and a naming Convention that
// maps the action name to a constructor in a Catalog.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/containerd/errdefs"

	"github.com/memohai/converse/internal/config"
	"github.com/memohai/converse/internal/identity"
)

const (
	PolicyRegistry   = "registry"
	PolicyConvention = "convention"
)

// ErrConfiguration reports an invalid dispatcher setup.
var ErrConfiguration = fmt.Errorf("action configuration: %w", errdefs.ErrFailedPrecondition)

// Call is what a handler receives. User is the host user extension.
type Call struct {
	User     identity.Extension
	Params   map[string]string
	Contexts map[string]map[string]string
}

// Param returns a parameter value or "".
func (c Call) Param(name string) string {
	return c.Params[name]
}

// Handler runs an action.
type Handler interface {
	Handle(ctx context.Context, call Call) error
}

// HandlerFunc is a plain function handler.
type HandlerFunc func(ctx context.Context, call Call) error

func (f HandlerFunc) Handle(ctx context.Context, call Call) error {
	return f(ctx, call)
}

// Action is an executable unit built per call.
type Action interface {
	Execute(ctx context.Context) error
}

// Constructor builds an Action from a call.
type Constructor func(call Call) Action

func (c Constructor) Handle(ctx context.Context, call Call) error {
	a := c(call)
	if a == nil {
		return errors.New("constructor returned nil action")
	}
	return a.Execute(ctx)
}

// Dispatcher executes the handler resolved for an action name. Unknown names
// are a no-op.
type Dispatcher interface {
	Execute(ctx context.Context, action string, call Call) error
}

// HandlerError wraps a failure raised by host code, including recovered panics.
type HandlerError struct {
	Action string
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("action %q failed: %v", e.Action, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

func run(ctx context.Context, name string, h Handler, call Call) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{Action: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := h.Handle(ctx, call); err != nil {
		return &HandlerError{Action: name, Err: err}
	}
	return nil
}

// New selects the dispatcher named by cfg.Policy. Populating both the
// registry and the catalog is rejected, as is an unknown policy.
func New(log *slog.Logger, cfg config.DispatchConfig, registry *Registry, catalog *Catalog) (Dispatcher, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	if catalog == nil {
		catalog = NewCatalog()
	}
	if registry.Len() > 0 && catalog.Len() > 0 {
		return nil, fmt.Errorf("%w: both registry and naming-convention handlers are populated", ErrConfiguration)
	}
	switch cfg.Policy {
	case PolicyRegistry, "":
		if catalog.Len() > 0 {
			return nil, fmt.Errorf("%w: registry policy selected but catalog is populated", ErrConfiguration)
		}
		registry.logger = log.With(slog.String("dispatcher", PolicyRegistry))
		return registry, nil
	case PolicyConvention:
		if registry.Len() > 0 {
			return nil, fmt.Errorf("%w: convention policy selected but registry is populated", ErrConfiguration)
		}
		return NewConvention(log, catalog, cfg.Prefix, cfg.Suffix), nil
	default:
		return nil, fmt.Errorf("%w: unknown dispatch policy %q", ErrConfiguration, cfg.Policy)
	}
}
