package ai

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/edustack/content-engine/config"
	"github.com/edustack/content-engine/pkg/logger"
)

// GeminiClient adapts the google generative-ai SDK to the Client
// interface.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  logger.Logger
}

func NewGeminiClient(ctx context.Context, cfg *config.AIConfig, log logger.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, NewBackendError("gemini", "create client: %v", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = "gemini-1.5-flash"
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  log,
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(float32(temperature))
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", NewBackendError("gemini", "generate content: %v", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", NewBackendError("gemini", "empty candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", NewBackendError("gemini", "no text parts in response")
	}
	return out, nil
}

func (c *GeminiClient) Close() error { return c.client.Close() }
