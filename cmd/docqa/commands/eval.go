// ABOUTME: CLI commands to evaluate saved summaries and QA transcripts
// ABOUTME: Runs the deterministic checks, plus the model judge with --judge
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/eval"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/pdf"
	"github.com/harper/docqa/internal/session"
)

var (
	evalOutput string
	evalLastN  int
)

// NewEvalCmd creates eval command with its summary and qa subcommands
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate summaries and answers",
		Long: `Evaluate a saved summary against its whitepaper, or a saved QA
transcript against the chunks each answer was grounded on.`,
	}

	cmd.PersistentFlags().StringVarP(&evalOutput, "output", "o", "", "Also write the report to this file (.json or .yaml)")

	summary := &cobra.Command{
		Use:   "summary <summary-file> <document-file>",
		Short: "Evaluate a summary",
		Long: `Check required headings, the word limit and missing-information phrasing.
With --judge a model also grades faithfulness, coverage and neutrality.

Examples:
  docqa eval summary summary.txt whitepaper.pdf
  docqa eval summary summary.txt whitepaper.pdf --judge -o report.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: runEvalSummary,
	}

	qa := &cobra.Command{
		Use:   "qa <transcript>",
		Short: "Evaluate a QA transcript",
		Long: `Check answer structure, reference format and validity against the retrieved
chunks, and numeric claims. The transcript is a JSON array of
{question, answer, retrieved_chunks} items (as written by chat --transcript)
or a session snapshot with a qa_log field.

Examples:
  docqa eval qa qa.json
  docqa eval qa qa.json --last 10 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runEvalQA,
	}
	qa.Flags().IntVar(&evalLastN, "last", session.DefaultEvalItems, "Evaluate the last n items (1-10)")

	cmd.AddCommand(summary, qa)
	return cmd
}

func runEvalSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	summary, err := os.ReadFile(args[0]) // #nosec G304
	if err != nil {
		return fmt.Errorf("reading summary: %w", err)
	}
	doc, err := pdf.LoadFile(args[1])
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	runner, cleanup, err := newEvaluator(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	report := runner.EvaluateSummary(ctx, string(summary), pdf.FullText(doc.Pages), useJudge)
	if err := exportReport(report); err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), report, func(o *output) {
		printSummaryReport(o, report)
	})
}

func runEvalQA(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := validatePositiveInt(evalLastN, "--last"); err != nil {
		return err
	}

	data, err := os.ReadFile(args[0]) // #nosec G304
	if err != nil {
		return fmt.Errorf("reading transcript: %w", err)
	}
	items, err := decodeTranscript(data)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return session.ErrNoQAItems
	}
	n := session.ClampEvalItems(evalLastN)
	if len(items) > n {
		items = items[len(items)-n:]
	}

	runner, cleanup, err := newEvaluator(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	report := runner.EvaluateQA(ctx, items, useJudge)
	if err := exportReport(report); err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), report, func(o *output) {
		printQAReport(o, report)
	})
}

// decodeTranscript accepts a bare QA item array or an object with a qa_log field
func decodeTranscript(data []byte) ([]models.QAItem, error) {
	var items []models.QAItem
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var snapshot struct {
		QALog []models.QAItem `json:"qa_log"`
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}
	return snapshot.QALog, nil
}

func exportReport(v any) error {
	if evalOutput == "" {
		return nil
	}
	if err := eval.ExportFile(evalOutput, v); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
