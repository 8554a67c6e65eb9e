package action

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Registry maps exact action names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}, logger: slog.Default()}
}

// Register binds name to h. Names are unique.
func (r *Registry) Register(name string, h Handler) error {
	name = strings.TrimSpace(name)
	if name == "" || h == nil {
		return fmt.Errorf("%w: action name and handler are required", ErrConfiguration)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%w: action %q already registered", ErrConfiguration, name)
	}
	r.handlers[name] = h
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *Registry) MustRegister(name string, h Handler) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

func (r *Registry) Execute(ctx context.Context, name string, call Call) error {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		r.logger.Debug("no handler for action", slog.String("action", name))
		return nil
	}
	return run(ctx, name, h, call)
}
