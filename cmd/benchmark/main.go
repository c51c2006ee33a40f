// ABOUTME: Command-line runner for the groundedness benchmark
// ABOUTME: Runs synthetic whitepaper scenarios against the configured models and exports JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/harper/docqa/benchmarks/groundedness"
	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/prompts"
)

func main() {
	// Command-line flags
	scenarioID := flag.String("scenario", "", "Run a single scenario (tokenomics, security, roadmap). If empty, runs all.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for results (.json or .yaml)")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	judge := flag.Bool("judge", false, "Also grade answers with the model judge")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (continuing anyway): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(level, "console")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	clients, err := llm.NewClients(ctx, cfg, logger, nil)
	if err != nil {
		log.Fatalf("Failed to create model clients: %v", err)
	}
	defer func() { _ = clients.Close() }()

	source := prompts.NewFileStore(cfg.PromptsDir)
	if err := source.Validate(); err != nil {
		log.Fatalf("Failed to load prompts: %v", err)
	}

	scenarios := groundedness.GetAllScenarios()
	if *scenarioID != "" {
		scenario, ok := groundedness.GetScenario(*scenarioID)
		if !ok {
			log.Fatalf("Unknown scenario: %s (valid options: tokenomics, security, roadmap)", *scenarioID)
		}
		scenarios = []groundedness.Scenario{scenario}
	}

	// Print header
	fmt.Println("========================================")
	fmt.Println("docqa Groundedness Benchmark")
	fmt.Println("========================================")
	fmt.Printf("Provider: %s, scenarios: %d\n", cfg.Provider, len(scenarios))

	runner := groundedness.NewBenchmarkRunner(groundedness.RunnerConfig{
		Embedder:  clients.Embedder,
		Generator: clients.Generator,
		Prompts:   source,
		Gate:      core.GateConfigFrom(cfg),
		Chunker:   core.NewChunkEngine(cfg.ChunkSize, cfg.ChunkOverlap),
		Judge:     *judge,
		Logger:    logger,
		Verbose:   *verbose,
		Out:       os.Stdout,
	})
	results := runner.RunAll(ctx, scenarios)
	summary := groundedness.Summarize(results)

	// Print summary
	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.ScenarioID, result.ScenarioName)
		if result.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", result.ErrorMessage)
		}
		fmt.Printf("  Refusal Accuracy: %.2f\n", result.RefusalAccuracy)
		fmt.Printf("  Citation Recall: %.2f\n", result.CitationRecall)
		fmt.Printf("  Eval Pass Rate: %.2f\n", result.EvalPassRate)
		fmt.Printf("  Status: %s\n", result.Status)
		for _, q := range result.Questions {
			if q.Status != groundedness.StatusPass {
				fmt.Printf("    ✗ %s: %s\n", q.Question, strings.Join(q.Details, "; "))
			}
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Println("========================================")

	// Export results
	if err := groundedness.ExportResults(summary, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}
	fmt.Printf("✓ Results exported to: %s\n", *outputPath)

	// Exit with error code if any tests failed
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
