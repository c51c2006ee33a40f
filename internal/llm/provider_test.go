// ABOUTME: Tests for provider selection
// ABOUTME: Verifies credential checks and backend wiring without network calls
package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/harper/docqa/internal/config"
)

func TestNewClients_MissingCredentials(t *testing.T) {
	cfg := config.Default()
	_, err := NewClients(context.Background(), cfg, nil, nil)
	if !errors.Is(err, config.ErrMissingCredentials) {
		t.Errorf("NewClients() error = %v, want ErrMissingCredentials", err)
	}
}

func TestNewClients_OpenAI(t *testing.T) {
	cfg := config.Default()
	cfg.OpenAIKey = "sk-test"

	clients, err := NewClients(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewClients() error = %v", err)
	}
	defer func() { _ = clients.Close() }()

	if _, ok := clients.Embedder.(*OpenAIClient); !ok {
		t.Errorf("Embedder = %T, want *OpenAIClient", clients.Embedder)
	}
	if _, ok := clients.Generator.(*OpenAIClient); !ok {
		t.Errorf("Generator = %T, want *OpenAIClient", clients.Generator)
	}
}

func TestNewClients_Anthropic(t *testing.T) {
	cfg := config.Default()
	cfg.OpenAIKey = "sk-test"
	cfg.Provider = config.ProviderAnthropic
	cfg.AnthropicKey = "sk-ant"

	clients, err := NewClients(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewClients() error = %v", err)
	}
	if _, ok := clients.Generator.(*AnthropicClient); !ok {
		t.Errorf("Generator = %T, want *AnthropicClient", clients.Generator)
	}
}
