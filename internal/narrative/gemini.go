package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ignite/insight-engine/internal/config"
	"github.com/ignite/insight-engine/internal/pkg/httpretry"
)

const (
	defaultGeminiModel    = "gemini-1.5-flash"
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

// geminiResponse is the Gemini API response body.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// GeminiProvider calls the Google Gemini generateContent REST endpoint.
type GeminiProvider struct {
	apiKey      string
	model       string
	endpoint    string
	maxTokens   int
	temperature float64
	client      httpretry.HTTPDoer
}

// NewGeminiProvider creates a provider; the API key travels in a header so it
// never appears in error messages that echo the URL.
func NewGeminiProvider(cfg config.NarrativeConfig) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		endpoint:    cfg.Endpoint,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      httpretry.NewRetryClient(nil, cfg.MaxRetries),
	}
	if p.model == "" {
		p.model = defaultGeminiModel
	}
	if p.endpoint == "" {
		p.endpoint = defaultGeminiEndpoint
	}
	return p
}

func (g *GeminiProvider) Name() string { return "gemini" }

// Generate sends one prompt and returns the concatenated parts of the first candidate.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent", g.endpoint, g.model)

	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: geminiGenerationConfig{Temperature: g.temperature, MaxOutputTokens: g.maxTokens},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, truncate(string(body), 200))
		}
		return "", fmt.Errorf("parse gemini response: %w", err)
	}
	if geminiResp.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", geminiResp.Error.Code, geminiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if len(geminiResp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var text string
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text (finish_reason=%s)", geminiResp.Candidates[0].FinishReason)
	}
	return text, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
