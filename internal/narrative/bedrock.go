package narrative

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/ignite/insight-engine/internal/config"
	"github.com/ignite/insight-engine/internal/pkg/logger"
)

const defaultBedrockModel = "anthropic.claude-3-sonnet-20240229-v1:0"

// BedrockInvoker is the slice of the Bedrock runtime client the provider uses.
type BedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockMessage represents a message in Bedrock format
type BedrockMessage struct {
	Role    string                `json:"role"`
	Content []BedrockContentBlock `json:"content"`
}

// BedrockContentBlock represents content in a message
type BedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// BedrockRequest is the Anthropic messages body Bedrock expects
type BedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []BedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

// BedrockResponse is the response from Bedrock
type BedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// BedrockProvider generates narrative with Claude on AWS Bedrock.
// Campaign data stays inside the AWS account.
type BedrockProvider struct {
	client      BedrockInvoker
	modelID     string
	maxTokens   int
	temperature float64
}

// NewBedrockProvider creates a provider from a resolved AWS config.
func NewBedrockProvider(awsCfg aws.Config, cfg config.NarrativeConfig) *BedrockProvider {
	return NewBedrockProviderWithClient(bedrockruntime.NewFromConfig(awsCfg), cfg)
}

// NewBedrockProviderWithClient wires an existing client.
func NewBedrockProviderWithClient(client BedrockInvoker, cfg config.NarrativeConfig) *BedrockProvider {
	model := cfg.Model
	if model == "" {
		model = defaultBedrockModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &BedrockProvider{client: client, modelID: model, maxTokens: maxTokens, temperature: cfg.Temperature}
}

func (b *BedrockProvider) Name() string { return "bedrock" }

// Generate sends a single-turn request and concatenates the text blocks.
func (b *BedrockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	request := BedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        b.maxTokens,
		System:           systemPrompt,
		Messages: []BedrockMessage{{
			Role:    "user",
			Content: []BedrockContentBlock{{Type: "text", Text: prompt}},
		}},
		Temperature: b.temperature,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	output, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke: %w", err)
	}

	var response BedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	var text string
	for _, content := range response.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("bedrock: empty response (stop_reason=%s)", response.StopReason)
	}

	logger.Info("bedrock narrative generated",
		"model", b.modelID,
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens)
	return text, nil
}
