// Package parser turns user text into an Intent.
package parser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/memohai/converse/internal/config"
)

const (
	BackendAPIAI  = "apiai"
	BackendScript = "script"
)

// Intent is the parser's reading of one utterance. Text is the reply to send
// back, possibly empty.
type Intent struct {
	Text                string
	Action              string
	SlotFillingComplete bool
	Params              map[string]string
	Contexts            map[string]map[string]string
}

// Dispatchable reports whether the intent carries a complete action.
func (i Intent) Dispatchable() bool {
	return i.SlotFillingComplete && i.Action != ""
}

// Parser interprets text within a conversation session.
type Parser interface {
	Parse(ctx context.Context, text, sessionID string) (Intent, error)
}

// New builds the parser selected by cfg.Backend.
func New(log *slog.Logger, cfg config.ParserConfig) (Parser, error) {
	switch cfg.Backend {
	case BackendAPIAI, "":
		return NewAPIAI(log, cfg, nil), nil
	case BackendScript:
		return LoadScript(log, cfg.ScriptPath)
	default:
		return nil, fmt.Errorf("unknown parser backend %q", cfg.Backend)
	}
}
