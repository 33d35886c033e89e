// Package parser turns freeform text or recorded speech into items for the merge engine.
package parser

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukerupert/shoplist/internal/apperr"
	"github.com/dukerupert/shoplist/internal/grocery"
)

// Input is either text or an audio clip. Audio wins when both are set.
type Input struct {
	Text      string
	Audio     []byte
	AudioMIME string
}

func (in Input) empty() bool {
	return strings.TrimSpace(in.Text) == "" && len(in.Audio) == 0
}

type Parser interface {
	Parse(ctx context.Context, in Input) ([]grocery.Incoming, error)
}

// Multi routes input to the model-backed parser when one is configured and falls back to the
// rule-based parser for text when the model fails.
type Multi struct {
	rules  Parser
	model  Parser
	logger *slog.Logger
}

// NewMulti builds a router. model may be nil, in which case audio input is rejected.
func NewMulti(rules, model Parser, logger *slog.Logger) *Multi {
	return &Multi{rules: rules, model: model, logger: logger}
}

func (m *Multi) Parse(ctx context.Context, in Input) ([]grocery.Incoming, error) {
	if in.empty() {
		return nil, apperr.Validation("text or audio is required")
	}

	if len(in.Audio) > 0 {
		if m.model == nil {
			return nil, apperr.Validation("audio input is not supported")
		}
		return m.model.Parse(ctx, in)
	}

	if m.model != nil {
		items, err := m.model.Parse(ctx, in)
		if err == nil {
			return items, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.logger.Warn("model parse failed, using rules", "error", err)
	}
	return m.rules.Parse(ctx, in)
}
