// ABOUTME: Centralized configuration for the document Q&A assistant
// ABOUTME: Defaults, then an optional TOML file, then environment variables, then validation
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// Supported generation providers
const (
	ProviderOpenAI    = "openai"
	ProviderVertex    = "vertex"
	ProviderAnthropic = "anthropic"
)

// Retrieval gate defaults. These are heuristics awaiting calibration.
const (
	DefaultTopK            = 5
	DefaultMaxDistance     = 0.35
	DefaultShortChunkChars = 200
	DefaultMinKeywordLen   = 4
)

// Chunking defaults
const (
	DefaultChunkSize    = 1600
	DefaultChunkOverlap = 200
)

// ErrMissingCredentials is returned when the selected provider has no API key or project
var ErrMissingCredentials = errors.New("missing credentials")

// Config holds all configuration for the assistant
type Config struct {
	// Storage settings
	DataDir    string
	PromptsDir string

	// Model provider settings
	Provider       string
	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	Timeout        time.Duration
	OpenAIKey      string
	OpenAIBaseURL  string
	AnthropicKey   string
	GCPProject     string
	GCPRegion      string

	// Embedding retry settings
	EmbedAttempts   int
	EmbedRetryDelay time.Duration

	// Chunking settings
	ChunkSize    int
	ChunkOverlap int

	// Retrieval gate settings
	TopK            int
	MaxDistance     float64
	ShortChunkChars int
	MinKeywordLen   int

	// Evaluation settings
	SummaryWordLimit int
	JudgeSampleChars int

	// Surface settings
	LogLevel  string
	LogFormat string
	HTTPAddr  string
}

// fileConfig mirrors Config for the TOML file; nil fields are left at their defaults
type fileConfig struct {
	DataDir    *string `toml:"data_dir"`
	PromptsDir *string `toml:"prompts_dir"`
	LLM        struct {
		Provider       *string  `toml:"provider"`
		ChatModel      *string  `toml:"chat_model"`
		EmbeddingModel *string  `toml:"embedding_model"`
		Temperature    *float64 `toml:"temperature"`
		Timeout        *string  `toml:"timeout"`
		OpenAIBaseURL  *string  `toml:"openai_base_url"`
		GCPProject     *string  `toml:"gcp_project"`
		GCPRegion      *string  `toml:"gcp_region"`
	} `toml:"llm"`
	Embedding struct {
		Attempts   *int    `toml:"attempts"`
		RetryDelay *string `toml:"retry_delay"`
	} `toml:"embedding"`
	Chunking struct {
		Size    *int `toml:"size"`
		Overlap *int `toml:"overlap"`
	} `toml:"chunking"`
	Retrieval struct {
		TopK            *int     `toml:"top_k"`
		MaxDistance     *float64 `toml:"max_distance"`
		ShortChunkChars *int     `toml:"short_chunk_chars"`
		MinKeywordLen   *int     `toml:"min_keyword_len"`
	} `toml:"retrieval"`
	Eval struct {
		SummaryWordLimit *int `toml:"summary_word_limit"`
		JudgeSampleChars *int `toml:"judge_sample_chars"`
	} `toml:"eval"`
	Log struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"log"`
	HTTPAddr *string `toml:"http_addr"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DataDir:          filepath.Join(xdg.DataHome, "docqa", "index"),
		PromptsDir:       "prompts",
		Provider:         ProviderOpenAI,
		ChatModel:        "",
		EmbeddingModel:   "text-embedding-3-small",
		Temperature:      0.2,
		Timeout:          60 * time.Second,
		GCPRegion:        "us-central1",
		EmbedAttempts:    3,
		EmbedRetryDelay:  time.Second,
		ChunkSize:        DefaultChunkSize,
		ChunkOverlap:     DefaultChunkOverlap,
		TopK:             DefaultTopK,
		MaxDistance:      DefaultMaxDistance,
		ShortChunkChars:  DefaultShortChunkChars,
		MinKeywordLen:    DefaultMinKeywordLen,
		SummaryWordLimit: 2000,
		JudgeSampleChars: 12000,
		LogLevel:         "info",
		LogFormat:        "json",
		HTTPAddr:         ":8080",
	}
}

// DefaultConfigPath returns the TOML file consulted when DOCQA_CONFIG is unset
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "docqa", "config.toml")
}

// Load reads configuration from the optional TOML file and environment variables
func Load() (*Config, error) {
	cfg := Default()

	path := getEnv("DOCQA_CONFIG", DefaultConfigPath())
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.DataDir, fc.DataDir)
	setString(&c.PromptsDir, fc.PromptsDir)
	setString(&c.Provider, fc.LLM.Provider)
	setString(&c.ChatModel, fc.LLM.ChatModel)
	setString(&c.EmbeddingModel, fc.LLM.EmbeddingModel)
	setFloat(&c.Temperature, fc.LLM.Temperature)
	setString(&c.OpenAIBaseURL, fc.LLM.OpenAIBaseURL)
	setString(&c.GCPProject, fc.LLM.GCPProject)
	setString(&c.GCPRegion, fc.LLM.GCPRegion)
	setInt(&c.EmbedAttempts, fc.Embedding.Attempts)
	setInt(&c.ChunkSize, fc.Chunking.Size)
	setInt(&c.ChunkOverlap, fc.Chunking.Overlap)
	setInt(&c.TopK, fc.Retrieval.TopK)
	setFloat(&c.MaxDistance, fc.Retrieval.MaxDistance)
	setInt(&c.ShortChunkChars, fc.Retrieval.ShortChunkChars)
	setInt(&c.MinKeywordLen, fc.Retrieval.MinKeywordLen)
	setInt(&c.SummaryWordLimit, fc.Eval.SummaryWordLimit)
	setInt(&c.JudgeSampleChars, fc.Eval.JudgeSampleChars)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	setString(&c.HTTPAddr, fc.HTTPAddr)

	if err := setDuration(&c.Timeout, fc.LLM.Timeout); err != nil {
		return fmt.Errorf("llm.timeout: %w", err)
	}
	if err := setDuration(&c.EmbedRetryDelay, fc.Embedding.RetryDelay); err != nil {
		return fmt.Errorf("embedding.retry_delay: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("DOCQA_DATA_DIR", c.DataDir)
	c.PromptsDir = getEnv("DOCQA_PROMPTS_DIR", c.PromptsDir)
	c.Provider = getEnv("DOCQA_LLM_PROVIDER", c.Provider)
	c.ChatModel = getEnv("DOCQA_CHAT_MODEL", c.ChatModel)
	c.EmbeddingModel = getEnv("DOCQA_EMBEDDING_MODEL", c.EmbeddingModel)
	c.Temperature = getEnvFloat("DOCQA_TEMPERATURE", c.Temperature)
	c.Timeout = getEnvDuration("DOCQA_TIMEOUT", c.Timeout)
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.AnthropicKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicKey)
	c.GCPProject = getEnv("GOOGLE_CLOUD_PROJECT", c.GCPProject)
	c.GCPRegion = getEnv("GOOGLE_CLOUD_REGION", c.GCPRegion)
	c.EmbedAttempts = getEnvInt("DOCQA_EMBED_ATTEMPTS", c.EmbedAttempts)
	c.EmbedRetryDelay = getEnvDuration("DOCQA_EMBED_RETRY_DELAY", c.EmbedRetryDelay)
	c.ChunkSize = getEnvInt("DOCQA_CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = getEnvInt("DOCQA_CHUNK_OVERLAP", c.ChunkOverlap)
	c.TopK = getEnvInt("DOCQA_TOP_K", c.TopK)
	c.MaxDistance = getEnvFloat("DOCQA_MAX_DISTANCE", c.MaxDistance)
	c.ShortChunkChars = getEnvInt("DOCQA_SHORT_CHUNK_CHARS", c.ShortChunkChars)
	c.MinKeywordLen = getEnvInt("DOCQA_MIN_KEYWORD_LEN", c.MinKeywordLen)
	c.SummaryWordLimit = getEnvInt("DOCQA_SUMMARY_WORD_LIMIT", c.SummaryWordLimit)
	c.JudgeSampleChars = getEnvInt("DOCQA_JUDGE_SAMPLE_CHARS", c.JudgeSampleChars)
	c.LogLevel = getEnv("DOCQA_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("DOCQA_LOG_FORMAT", c.LogFormat)
	c.HTTPAddr = getEnv("DOCQA_HTTP_ADDR", c.HTTPAddr)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderVertex, ProviderAnthropic:
	default:
		return fmt.Errorf("DOCQA_LLM_PROVIDER must be one of openai, vertex, anthropic, got %q", c.Provider)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("DOCQA_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("DOCQA_CHUNK_OVERLAP must be 0-%d, got %d", c.ChunkSize-1, c.ChunkOverlap)
	}
	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("DOCQA_TOP_K must be 1-50, got %d", c.TopK)
	}
	if c.MaxDistance < 0 || c.MaxDistance > 2 {
		return fmt.Errorf("DOCQA_MAX_DISTANCE must be 0-2, got %f", c.MaxDistance)
	}
	if c.ShortChunkChars < 0 {
		return fmt.Errorf("DOCQA_SHORT_CHUNK_CHARS must not be negative, got %d", c.ShortChunkChars)
	}
	if c.MinKeywordLen < 1 {
		return fmt.Errorf("DOCQA_MIN_KEYWORD_LEN must be positive, got %d", c.MinKeywordLen)
	}
	if c.EmbedAttempts < 1 || c.EmbedAttempts > 10 {
		return fmt.Errorf("DOCQA_EMBED_ATTEMPTS must be 1-10, got %d", c.EmbedAttempts)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("DOCQA_TEMPERATURE must be 0-2, got %f", c.Temperature)
	}
	if c.SummaryWordLimit <= 0 {
		return fmt.Errorf("DOCQA_SUMMARY_WORD_LIMIT must be positive, got %d", c.SummaryWordLimit)
	}
	if c.JudgeSampleChars <= 0 {
		return fmt.Errorf("DOCQA_JUDGE_SAMPLE_CHARS must be positive, got %d", c.JudgeSampleChars)
	}
	return nil
}

// RequireCredentials checks that the embedding key and the generation provider's
// credentials are present. Embeddings always go through the OpenAI-compatible API.
func (c *Config) RequireCredentials() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is required for embeddings", ErrMissingCredentials)
	}
	switch c.Provider {
	case ProviderAnthropic:
		if c.AnthropicKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY is required for provider anthropic", ErrMissingCredentials)
		}
	case ProviderVertex:
		if c.GCPProject == "" || c.GCPRegion == "" {
			return fmt.Errorf("%w: GOOGLE_CLOUD_PROJECT and GOOGLE_CLOUD_REGION are required for provider vertex", ErrMissingCredentials)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
