package narrative

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ignite/insight-engine/internal/config"
	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/table"
)

// Mode is the engine state fixed at construction.
type Mode string

const (
	ModeAI   Mode = "ai"
	ModeRule Mode = "rule"
)

var errEmptyResponse = errors.New("empty response")

// Engine produces narrative text, calling an AI generator when one was
// available at construction and falling back to the rule-based builders.
type Engine struct {
	gen     TextGenerator
	timeout time.Duration
	prompts *prompts
}

// Option customizes an Engine.
type Option func(*Engine)

// WithGenerator injects a generator in place of the configured provider. It
// only takes effect when the narrative is enabled.
func WithGenerator(g TextGenerator) Option {
	return func(e *Engine) { e.gen = g }
}

// NewEngine performs the single availability check. The engine is in AI
// mode only when AI is enabled and a generator could be built; it never
// re-checks afterwards.
func NewEngine(ctx context.Context, cfg config.NarrativeConfig, awsSettings config.AWSConfig, opts ...Option) *Engine {
	e := &Engine{timeout: cfg.Timeout(), prompts: newPrompts()}
	for _, opt := range opts {
		opt(e)
	}
	if !cfg.Enabled {
		e.gen = nil
		logger.Info("narrative engine ready", "mode", ModeRule)
		return e
	}
	if e.gen == nil {
		gen, err := NewGenerator(ctx, cfg, awsSettings)
		if err != nil {
			logger.Warn("AI narrative unavailable, using rule-based analysis", "provider", cfg.Provider, "error", err.Error())
		} else {
			e.gen = gen
		}
	}
	if e.gen != nil {
		logger.Info("narrative engine ready", "mode", ModeAI, "provider", e.gen.Name())
	} else {
		logger.Info("narrative engine ready", "mode", ModeRule)
	}
	return e
}

// Mode reports whether the engine will attempt AI generation.
func (e *Engine) Mode() Mode {
	if e.gen == nil {
		return ModeRule
	}
	return ModeAI
}

// DetailedAnalysis returns the ten-section narrative. It never fails: any AI
// error yields the rule-based document.
func (e *Engine) DetailedAnalysis(ctx context.Context, t *table.Table, s metrics.Summary) string {
	if e.gen != nil {
		text, err := e.attempt(ctx, func() (string, error) { return e.prompts.Detailed(t, s) })
		if err == nil {
			return text
		}
		logger.Warn("AI detailed analysis failed, using rule-based analysis", "provider", e.gen.Name(), "error", err.Error())
	}
	return RuleBasedAnalysis(t, s).Render()
}

// QuickInsights returns the short bullet summary with the same fallback.
func (e *Engine) QuickInsights(ctx context.Context, t *table.Table, s metrics.Summary) string {
	if e.gen != nil {
		text, err := e.attempt(ctx, func() (string, error) { return e.prompts.Quick(t, s) })
		if err == nil {
			return text
		}
		logger.Warn("AI quick insights failed, using rule-based insights", "provider", e.gen.Name(), "error", err.Error())
	}
	return RuleBasedQuickInsights(t, s)
}

// attempt renders the prompt and makes exactly one bounded call.
func (e *Engine) attempt(ctx context.Context, render func() (string, error)) (string, error) {
	prompt, err := render()
	if err != nil {
		return "", err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
