// ABOUTME: Gemini generation through Vertex AI
// ABOUTME: One GenerativeModel per client; temperature is set per request copy
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
)

// DefaultGeminiModel is the default Vertex generation model
const DefaultGeminiModel = "gemini-2.5-flash-lite"

// VertexConfig holds configuration for the Vertex client
type VertexConfig struct {
	ProjectID   string
	Region      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// VertexClient generates text with Gemini models
type VertexClient struct {
	client      *genai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

// NewVertexClient connects to Vertex AI using application default credentials
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &VertexClient{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}, nil
}

// Generate completes prompt with Gemini
func (c *VertexClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(float32(temperatureOr(opts, c.temperature)))

	resp, err := model.GenerateContent(ctx, genai.Text(ComposePrompt(opts.System, prompt)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return finish(responseText(resp))
}

// Close releases the underlying gRPC connection
func (c *VertexClient) Close() error {
	return c.client.Close()
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
