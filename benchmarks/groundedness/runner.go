// ABOUTME: Benchmark runner - indexes each scenario into a throwaway store and asks its questions
// ABOUTME: Collects answers, runs the QA evaluation and exports scored results

package groundedness

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/eval"
	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/metrics"
	"github.com/harper/docqa/internal/prompts"
	"github.com/harper/docqa/internal/session"
	"github.com/harper/docqa/internal/storage/sqlite"
)

// RunnerConfig holds the collaborators a benchmark run needs
type RunnerConfig struct {
	Embedder  llm.Embedder
	Generator llm.Generator
	Prompts   prompts.Source
	Gate      core.GateConfig
	Chunker   *core.ChunkEngine
	Judge     bool
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Verbose   bool
	Out       io.Writer
}

// BenchmarkRunner executes groundedness scenarios
type BenchmarkRunner struct {
	cfg     RunnerConfig
	logger  *zap.Logger
	metrics *MetricsCalculator
	out     io.Writer
}

// NewBenchmarkRunner creates a new benchmark runner
func NewBenchmarkRunner(cfg RunnerConfig) *BenchmarkRunner {
	if cfg.Gate.TopK <= 0 {
		cfg.Gate = core.DefaultGateConfig()
	}
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	return &BenchmarkRunner{
		cfg:     cfg,
		logger:  logging.OrNop(cfg.Logger),
		metrics: NewMetricsCalculator(),
		out:     out,
	}
}

func (r *BenchmarkRunner) printf(format string, args ...any) {
	if r.cfg.Verbose {
		_, _ = fmt.Fprintf(r.out, format, args...)
	}
}

// RunScenario executes a single scenario against a fresh index
func (r *BenchmarkRunner) RunScenario(ctx context.Context, scenario Scenario) (ScenarioResult, error) {
	r.printf("\n========================================\n")
	r.printf("RUNNING: %s\n", scenario.Name)
	r.printf("========================================\n")
	r.printf("Description: %s\n\n", scenario.Description)

	dir, err := os.MkdirTemp("", "docqa_bench_"+scenario.ID+"_")
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("failed to create scenario index dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	store, err := sqlite.NewChunkStore(dir)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("failed to create scenario index: %w", err)
	}
	defer func() { _ = store.Close() }()

	var judge *eval.Judge
	if r.cfg.Judge {
		judge = eval.NewJudge(r.cfg.Generator, r.logger)
	}
	sess := session.New(session.Deps{
		Indexer:    core.NewIndexer(r.cfg.Chunker, r.cfg.Embedder, store, r.logger, r.cfg.Metrics),
		Answerer:   core.NewAnswerEngine(r.cfg.Embedder, store, r.cfg.Generator, r.cfg.Prompts, r.cfg.Gate, r.logger, r.cfg.Metrics),
		Summarizer: core.NewSummarizer(r.cfg.Generator, r.cfg.Prompts, r.logger),
		Evaluator:  eval.NewRunner(judge, 0, 0, r.cfg.Metrics, r.logger),
		Logger:     r.logger,
	})

	if _, err := sess.LoadDocument(scenario.ID+".txt", scenario.Document()); err != nil {
		return ScenarioResult{}, fmt.Errorf("failed to load scenario document: %w", err)
	}
	n, err := sess.BuildIndex(ctx)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("failed to index scenario document: %w", err)
	}
	r.printf("✓ Indexed %d pages into %d chunks\n\n", len(scenario.Pages), n)

	answers := make([]core.Answer, 0, len(scenario.Questions))
	for i, q := range scenario.Questions {
		answer, err := sess.Ask(ctx, q.Text)
		if err != nil && !answer.Refused {
			return ScenarioResult{}, fmt.Errorf("question %d failed: %w", i+1, err)
		}
		if err != nil {
			r.logger.Warn("answer replaced by refusal", zap.Int("question", i+1), zap.Error(err))
		}
		r.printf("[Q%d] %s\n", i+1, q.Text)
		r.printf("[A%d] %s\n\n", i+1, answer.Text[:min(150, len(answer.Text))])
		answers = append(answers, answer)
	}

	report, err := sess.EvaluateQA(ctx, len(scenario.Questions), r.cfg.Judge)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("failed to evaluate answers: %w", err)
	}

	// EvaluateQA covers at most the last MaxEvalItems answers
	offset := len(answers) - len(report.Items)
	questions := make([]QuestionResult, 0, len(answers))
	for i, answer := range answers {
		var item eval.QAItemReport
		if j := i - offset; j >= 0 {
			item = report.Items[j]
		}
		questions = append(questions, r.metrics.EvaluateQuestion(scenario.Questions[i], answer, item))
	}

	result := r.metrics.EvaluateScenario(scenario, questions)

	r.printf("RESULTS: %s\n", scenario.Name)
	r.printf("Refusal Accuracy: %.2f\n", result.RefusalAccuracy)
	r.printf("Citation Recall: %.2f\n", result.CitationRecall)
	r.printf("Eval Pass Rate: %.2f\n", result.EvalPassRate)
	r.printf("Status: %s\n", result.Status)

	return result, nil
}

// RunAll executes every scenario. A scenario that errors is recorded as failed
// and the run continues.
func (r *BenchmarkRunner) RunAll(ctx context.Context, scenarios []Scenario) []ScenarioResult {
	results := make([]ScenarioResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		result, err := r.RunScenario(ctx, scenario)
		if err != nil {
			r.logger.Error("scenario failed", zap.String("scenario", scenario.ID), zap.Error(err))
			result = ScenarioResult{
				ScenarioID:   scenario.ID,
				ScenarioName: scenario.Name,
				Status:       StatusFail,
				Questions:    []QuestionResult{},
				ErrorMessage: err.Error(),
			}
		}
		results = append(results, result)
	}
	return results
}

// RunSummary is the exported form of a benchmark run
type RunSummary struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	Timestamp  string           `json:"timestamp" yaml:"timestamp"`
	TotalTests int              `json:"total_tests" yaml:"total_tests"`
	Passed     int              `json:"passed" yaml:"passed"`
	Failed     int              `json:"failed" yaml:"failed"`
	Results    []ScenarioResult `json:"results" yaml:"results"`
}

// Summarize counts passes and failures
func Summarize(results []ScenarioResult) RunSummary {
	summary := RunSummary{
		RunID:      uuid.New().String(),
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Status == StatusPass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// ExportResults writes the run summary to outputPath (.json or .yaml)
func ExportResults(summary RunSummary, outputPath string) error {
	if err := eval.ExportFile(outputPath, summary); err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}
	return nil
}
