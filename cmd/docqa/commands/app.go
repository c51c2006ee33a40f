// ABOUTME: Builds the configured components shared by CLI commands
// ABOUTME: Config, logger, model clients, index store, prompts, engines and the session
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/eval"
	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/metrics"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/prompts"
	"github.com/harper/docqa/internal/session"
	"github.com/harper/docqa/internal/storage/sqlite"
)

// app is everything a command needs to drive a session
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	clients *llm.Clients
	store   *sqlite.ChunkStore
	session *session.Session
}

// logLevel resolves the effective level from flags and configuration
func logLevel(cfg *config.Config) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	}
	return cfg.LogLevel
}

// loadConfig reads .env, configuration and builds the logger
func loadConfig() (*config.Config, *zap.Logger, error) {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(logLevel(cfg), cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, logger, nil
}

// newApp wires the full stack: models, index store, prompts, engines, session
func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	clients, err := llm.NewClients(ctx, cfg, logger, m.EmbeddingRetried)
	if err != nil {
		return nil, fmt.Errorf("initializing model clients: %w", err)
	}

	store, err := sqlite.NewChunkStore(cfg.DataDir)
	if err != nil {
		_ = clients.Close()
		return nil, fmt.Errorf("initializing index store: %w", err)
	}

	source := prompts.NewFileStore(cfg.PromptsDir)
	if err := source.Validate(); err != nil {
		_ = store.Close()
		_ = clients.Close()
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	chunker := core.NewChunkEngine(cfg.ChunkSize, cfg.ChunkOverlap)
	judge := eval.NewJudge(clients.Generator, logger)

	sess := session.New(session.Deps{
		Indexer:    core.NewIndexer(chunker, clients.Embedder, store, logger, m),
		Answerer:   core.NewAnswerEngine(clients.Embedder, store, clients.Generator, source, core.GateConfigFrom(cfg), logger, m),
		Summarizer: core.NewSummarizer(clients.Generator, source, logger),
		Evaluator:  eval.NewRunner(judge, cfg.SummaryWordLimit, cfg.JudgeSampleChars, m, logger),
		Logger:     logger,
	})

	logger.Debug("components initialized",
		zap.String("provider", cfg.Provider),
		zap.String("data_dir", cfg.DataDir),
		zap.String("prompts_dir", source.Dir()))

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		clients: clients,
		store:   store,
		session: sess,
	}, nil
}

// Close releases the index store and model clients
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing index store", zap.Error(err))
	}
	if err := a.clients.Close(); err != nil {
		a.logger.Warn("closing model clients", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// loadFile reads path into the session
func (a *app) loadFile(path string) (models.Document, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return models.Document{}, fmt.Errorf("reading document: %w", err)
	}
	return a.session.LoadDocument(filepath.Base(path), data)
}

// loadAndIndex reads path and builds its index
func (a *app) loadAndIndex(ctx context.Context, path string) (models.Document, int, error) {
	doc, err := a.loadFile(path)
	if err != nil {
		return doc, 0, err
	}
	n, err := a.session.BuildIndex(ctx)
	if err != nil {
		return doc, 0, fmt.Errorf("building index: %w", err)
	}
	return doc, n, nil
}

// newEvaluator builds an evaluation runner without an index. A model client is
// only constructed when the judge is requested.
func newEvaluator(ctx context.Context) (*eval.Runner, func(), error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = logger.Sync() }

	var judge *eval.Judge
	if useJudge {
		clients, err := llm.NewClients(ctx, cfg, logger, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing judge: %w", err)
		}
		judge = eval.NewJudge(clients.Generator, logger)
		cleanup = func() {
			_ = clients.Close()
			_ = logger.Sync()
		}
	}
	return eval.NewRunner(judge, cfg.SummaryWordLimit, cfg.JudgeSampleChars, nil, logger), cleanup, nil
}
