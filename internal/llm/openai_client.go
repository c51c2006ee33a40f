// ABOUTME: OpenAI-compatible client for embeddings and chat completions
// ABOUTME: Embeddings retry a fixed number of times with a fixed delay; generation does not retry
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/util"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel openai.EmbeddingModel
	Temperature    float64
	Timeout        time.Duration
	Attempts       int
	RetryDelay     time.Duration
	Logger         *zap.Logger
	// OnRetry is notified of every failed embedding attempt that will be retried
	OnRetry func()
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Temperature:    DefaultTemperature,
		Timeout:        60 * time.Second,
		Attempts:       3,
		RetryDelay:     time.Second,
	}
}

// OpenAIClient wraps the OpenAI API client
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	temperature    float64
	timeout        time.Duration
	policy         util.Policy
	logger         *zap.Logger
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	c := &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		temperature:    config.Temperature,
		timeout:        config.Timeout,
		logger:         logging.OrNop(config.Logger),
	}
	attempts := config.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	c.policy = util.Policy{
		Attempts: attempts,
		Delay:    config.RetryDelay,
		OnRetry: func(attempt int, err error) {
			c.logger.Warn("embedding attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err))
			if config.OnRetry != nil {
				config.OnRetry()
			}
		},
	}
	return c, nil
}

// Embed generates an embedding vector for text. The OpenAI API has no task type,
// so task only appears in logs.
func (c *OpenAIClient) Embed(ctx context.Context, text string, task TaskType) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text for embedding: %w", ErrEmptyInput)
	}

	var vector []float64
	attempts, err := util.Do(ctx, c.policy, func(ctx context.Context) error {
		callCtx, cancel := c.withTimeout(ctx)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.embeddingModel,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return fmt.Errorf("empty embedding response")
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		vector = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			vector[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed after %d attempts: %w", attempts, err)
	}

	c.logger.Debug("embedded text",
		zap.String("task", string(task)),
		zap.Int("dimensions", len(vector)),
		zap.Int("attempts", attempts))
	return vector, nil
}

// Generate completes prompt with a single user message
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: ComposePrompt(opts.System, prompt),
			},
		},
		Temperature: float32(temperatureOr(opts, c.temperature)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return finish(resp.Choices[0].Message.Content)
}

func (c *OpenAIClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
