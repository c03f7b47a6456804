package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/insight-engine/internal/config"
	"github.com/ignite/insight-engine/internal/pkg/awsconf"
)

// ErrProviderUnavailable means no AI generator could be built from the config.
var ErrProviderUnavailable = errors.New("narrative provider unavailable")

// TextGenerator turns one prompt into one block of text.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// systemPrompt frames every AI request.
const systemPrompt = "You are a senior marketing analytics strategist writing executive campaign reports. " +
	"Use plain text with the numbered section headings requested. Quote numbers exactly as given."

// NewGenerator builds the configured provider. It fails when the provider is
// unknown, its credential is missing, or its client cannot be constructed.
func NewGenerator(ctx context.Context, cfg config.NarrativeConfig, awsSettings config.AWSConfig) (TextGenerator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini: missing API key: %w", ErrProviderUnavailable)
		}
		return NewGeminiProvider(cfg), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic: missing API key: %w", ErrProviderUnavailable)
		}
		return NewAnthropicProvider(cfg), nil
	case "bedrock":
		awsCfg, err := awsconf.Load(ctx, awsSettings)
		if err != nil {
			return nil, fmt.Errorf("bedrock: %v: %w", err, ErrProviderUnavailable)
		}
		if !awsconf.HasCredentials(ctx, awsCfg) {
			return nil, fmt.Errorf("bedrock: no AWS credentials: %w", ErrProviderUnavailable)
		}
		return NewBedrockProvider(awsCfg, cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q: %w", cfg.Provider, ErrProviderUnavailable)
	}
}
