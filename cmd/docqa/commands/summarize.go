// ABOUTME: CLI command to summarize a whitepaper
// ABOUTME: Produces the structured summary and optionally evaluates it
package commands

import (
	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/eval"
)

var (
	summarizeEvaluate bool
)

type summarizeResult struct {
	core.SummaryResult `yaml:",inline"`
	Report             *eval.SummaryReport `json:"report,omitempty" yaml:"report,omitempty"`
}

// NewSummarizeCmd creates summarize command
func NewSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Write a structured summary of a whitepaper",
		Long: `Generate the fixed-heading summary of a whitepaper. Output that contains
investment or trading language is regenerated once.

Examples:
  docqa summarize whitepaper.pdf
  docqa summarize whitepaper.pdf --evaluate --judge`,
		Args: cobra.ExactArgs(1),
		RunE: runSummarize,
	}

	cmd.Flags().BoolVar(&summarizeEvaluate, "evaluate", false, "Evaluate the summary after generating it")

	return cmd
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.loadFile(args[0]); err != nil {
		return err
	}
	summary, err := a.session.Summarize(ctx)
	if err != nil {
		return err
	}

	result := summarizeResult{SummaryResult: summary}
	if summarizeEvaluate {
		report, err := a.session.EvaluateSummary(ctx, useJudge)
		if err != nil {
			return err
		}
		result.Report = &report
	}

	return writeResult(cmd.OutOrStdout(), result, func(o *output) {
		printSummary(o, result.SummaryResult)
		if result.Report != nil {
			o.printf("\n")
			printSummaryReport(o, *result.Report)
		}
	})
}
