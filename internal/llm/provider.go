// ABOUTME: Builds the embedder and generator selected by configuration
// ABOUTME: Embeddings always use the OpenAI-compatible API; generation is pluggable
package llm

import (
	"context"
	"fmt"

	"github.com/harper/docqa/internal/config"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Clients bundles the capabilities a session needs
type Clients struct {
	Embedder  Embedder
	Generator Generator
	closers   []func() error
}

// Close releases any backend connections
func (c *Clients) Close() error {
	var first error
	for _, fn := range c.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewClients constructs clients from configuration. onRetry may be nil.
func NewClients(ctx context.Context, cfg *config.Config, logger *zap.Logger, onRetry func()) (*Clients, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	oc := &ClientConfig{
		APIKey:         cfg.OpenAIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		EmbeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		Temperature:    cfg.Temperature,
		Timeout:        cfg.Timeout,
		Attempts:       cfg.EmbedAttempts,
		RetryDelay:     cfg.EmbedRetryDelay,
		Logger:         logger,
		OnRetry:        onRetry,
	}
	if cfg.Provider == config.ProviderOpenAI {
		oc.ChatModel = cfg.ChatModel
	}
	openaiClient, err := NewOpenAIClientWithConfig(oc)
	if err != nil {
		return nil, err
	}

	clients := &Clients{Embedder: openaiClient}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		clients.Generator = openaiClient
	case config.ProviderVertex:
		vc, err := NewVertexClient(ctx, VertexConfig{
			ProjectID:   cfg.GCPProject,
			Region:      cfg.GCPRegion,
			Model:       cfg.ChatModel,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		clients.Generator = vc
		clients.closers = append(clients.closers, vc.Close)
	case config.ProviderAnthropic:
		ac, err := NewAnthropicClient(AnthropicConfig{
			APIKey:      cfg.AnthropicKey,
			Model:       cfg.ChatModel,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		clients.Generator = ac
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	return clients, nil
}
