// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies defaults, TOML overlay, environment precedence and validation
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate clears the environment and points DOCQA_CONFIG at a missing file
func isolate(t *testing.T) string {
	t.Helper()
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "config.toml")
	os.Setenv("DOCQA_CONFIG", path)
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider = %s, want openai", cfg.Provider)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("EmbeddingModel = %s, want text-embedding-3-small", cfg.EmbeddingModel)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Temperature = %f, want 0.2", cfg.Temperature)
	}
	if cfg.EmbedAttempts != 3 {
		t.Errorf("EmbedAttempts = %d, want 3", cfg.EmbedAttempts)
	}
	if cfg.EmbedRetryDelay != time.Second {
		t.Errorf("EmbedRetryDelay = %v, want 1s", cfg.EmbedRetryDelay)
	}
	if cfg.ChunkSize != 1600 || cfg.ChunkOverlap != 200 {
		t.Errorf("Chunking = %d/%d, want 1600/200", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.TopK)
	}
	if cfg.MaxDistance != 0.35 {
		t.Errorf("MaxDistance = %f, want 0.35", cfg.MaxDistance)
	}
	if cfg.ShortChunkChars != 200 {
		t.Errorf("ShortChunkChars = %d, want 200", cfg.ShortChunkChars)
	}
	if cfg.MinKeywordLen != 4 {
		t.Errorf("MinKeywordLen = %d, want 4", cfg.MinKeywordLen)
	}
	if cfg.SummaryWordLimit != 2000 {
		t.Errorf("SummaryWordLimit = %d, want 2000", cfg.SummaryWordLimit)
	}
	if cfg.JudgeSampleChars != 12000 {
		t.Errorf("JudgeSampleChars = %d, want 12000", cfg.JudgeSampleChars)
	}
	if !strings.HasSuffix(cfg.DataDir, filepath.Join("docqa", "index")) {
		t.Errorf("DataDir = %s, want suffix docqa/index", cfg.DataDir)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	isolate(t)
	os.Setenv("DOCQA_DATA_DIR", "/tmp/idx")
	os.Setenv("DOCQA_LLM_PROVIDER", "anthropic")
	os.Setenv("DOCQA_CHAT_MODEL", "claude-haiku-4-5-20251001")
	os.Setenv("DOCQA_TEMPERATURE", "0.5")
	os.Setenv("DOCQA_EMBED_ATTEMPTS", "5")
	os.Setenv("DOCQA_EMBED_RETRY_DELAY", "250ms")
	os.Setenv("DOCQA_TOP_K", "8")
	os.Setenv("DOCQA_MAX_DISTANCE", "0.5")
	os.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DataDir != "/tmp/idx" {
		t.Errorf("DataDir = %s, want /tmp/idx", cfg.DataDir)
	}
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("Provider = %s, want anthropic", cfg.Provider)
	}
	if cfg.ChatModel != "claude-haiku-4-5-20251001" {
		t.Errorf("ChatModel = %s", cfg.ChatModel)
	}
	if cfg.Temperature != 0.5 {
		t.Errorf("Temperature = %f, want 0.5", cfg.Temperature)
	}
	if cfg.EmbedAttempts != 5 {
		t.Errorf("EmbedAttempts = %d, want 5", cfg.EmbedAttempts)
	}
	if cfg.EmbedRetryDelay != 250*time.Millisecond {
		t.Errorf("EmbedRetryDelay = %v, want 250ms", cfg.EmbedRetryDelay)
	}
	if cfg.TopK != 8 {
		t.Errorf("TopK = %d, want 8", cfg.TopK)
	}
	if cfg.MaxDistance != 0.5 {
		t.Errorf("MaxDistance = %f, want 0.5", cfg.MaxDistance)
	}
	if cfg.AnthropicKey != "sk-ant" {
		t.Errorf("AnthropicKey = %s, want sk-ant", cfg.AnthropicKey)
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	isolate(t)
	os.Setenv("DOCQA_TOP_K", "many")
	os.Setenv("DOCQA_MAX_DISTANCE", "far")
	os.Setenv("DOCQA_EMBED_RETRY_DELAY", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.TopK != DefaultTopK {
		t.Errorf("TopK = %d, want %d", cfg.TopK, DefaultTopK)
	}
	if cfg.MaxDistance != DefaultMaxDistance {
		t.Errorf("MaxDistance = %f, want %f", cfg.MaxDistance, DefaultMaxDistance)
	}
	if cfg.EmbedRetryDelay != time.Second {
		t.Errorf("EmbedRetryDelay = %v, want 1s", cfg.EmbedRetryDelay)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := isolate(t)
	content := `
data_dir = "/srv/docqa"

[llm]
provider = "vertex"
gcp_project = "demo-project"
temperature = 0.1
timeout = "90s"

[chunking]
size = 1000
overlap = 100

[retrieval]
max_distance = 0.4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DataDir != "/srv/docqa" {
		t.Errorf("DataDir = %s, want /srv/docqa", cfg.DataDir)
	}
	if cfg.Provider != ProviderVertex {
		t.Errorf("Provider = %s, want vertex", cfg.Provider)
	}
	if cfg.GCPProject != "demo-project" {
		t.Errorf("GCPProject = %s, want demo-project", cfg.GCPProject)
	}
	if cfg.Temperature != 0.1 {
		t.Errorf("Temperature = %f, want 0.1", cfg.Temperature)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.Timeout)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 100 {
		t.Errorf("Chunking = %d/%d, want 1000/100", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.MaxDistance != 0.4 {
		t.Errorf("MaxDistance = %f, want 0.4", cfg.MaxDistance)
	}
	// Untouched keys keep defaults
	if cfg.TopK != DefaultTopK {
		t.Errorf("TopK = %d, want %d", cfg.TopK, DefaultTopK)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("[retrieval]\ntop_k = 7\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	os.Setenv("DOCQA_TOP_K", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d, want 3", cfg.TopK)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("[llm\nprovider = "), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(); err == nil {
		t.Error("Load() should fail on malformed TOML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider = "llama" }, true},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, true},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, true},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, true},
		{"top k zero", func(c *Config) { c.TopK = 0 }, true},
		{"top k too large", func(c *Config) { c.TopK = 51 }, true},
		{"distance too large", func(c *Config) { c.MaxDistance = 2.5 }, true},
		{"no embed attempts", func(c *Config) { c.EmbedAttempts = 0 }, true},
		{"too many embed attempts", func(c *Config) { c.EmbedAttempts = 11 }, true},
		{"keyword length zero", func(c *Config) { c.MinKeywordLen = 0 }, true},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, true},
		{"word limit zero", func(c *Config) { c.SummaryWordLimit = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"no openai key", func(c *Config) {}, true},
		{"openai ok", func(c *Config) { c.OpenAIKey = "sk" }, false},
		{"anthropic without key", func(c *Config) { c.OpenAIKey = "sk"; c.Provider = ProviderAnthropic }, true},
		{"anthropic ok", func(c *Config) { c.OpenAIKey = "sk"; c.Provider = ProviderAnthropic; c.AnthropicKey = "a" }, false},
		{"vertex without project", func(c *Config) { c.OpenAIKey = "sk"; c.Provider = ProviderVertex }, true},
		{"vertex ok", func(c *Config) { c.OpenAIKey = "sk"; c.Provider = ProviderVertex; c.GCPProject = "p" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.RequireCredentials()
			if (err != nil) != tt.wantErr {
				t.Fatalf("RequireCredentials() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("RequireCredentials() error = %v, want ErrMissingCredentials", err)
			}
		})
	}
}
