// ABOUTME: Shared output helpers for CLI commands
// ABOUTME: Renders results as text, JSON or YAML and formats answers, summaries and reports
package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/eval"
	"github.com/harper/docqa/internal/models"
)

// output collects the first write error so renderers stay linear
type output struct {
	w   io.Writer
	err error
}

func (o *output) printf(format string, args ...any) {
	if o.err != nil {
		return
	}
	_, o.err = fmt.Fprintf(o.w, format, args...)
}

// writeResult writes v in the selected structured format, or calls text for plain output
func writeResult(w io.Writer, v any, text func(*output)) error {
	switch outputFormat {
	case formatJSON, formatYAML:
		return eval.Export(w, v, outputFormat)
	}
	o := &output{w: w}
	text(o)
	return o.err
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// oneLine collapses whitespace runs so chunk previews fit on a line
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

func mark(passed bool) string {
	if passed {
		return "✓"
	}
	return "✗"
}

func printChunks(o *output, chunks []models.RetrievedChunk) {
	for i, c := range chunks {
		o.printf("  [%d] page %d | %s | distance %.3f\n", i+1, c.Page, c.Section, c.Distance)
		o.printf("      %s\n", truncate(oneLine(c.Text), 100))
	}
}

func printAnswer(o *output, answer core.Answer) {
	o.printf("%s\n", answer.Text)
	if verbose && len(answer.Chunks) > 0 {
		o.printf("\nRetrieved chunks:\n")
		printChunks(o, answer.Chunks)
	}
}

func printSummary(o *output, result core.SummaryResult) {
	o.printf("%s\n", result.Text)
	if result.StillFlagged {
		o.printf("\nWarning: summary still contains investment language after regeneration\n")
	}
}

func printMetrics(o *output, metrics eval.Metrics) {
	for _, m := range metrics {
		o.printf("  %s %s: %s\n", mark(m.Passed), m.Name, m.Message)
	}
}

func printJudge(o *output, j *eval.JudgeResult) {
	if j == nil {
		return
	}
	switch j.Status {
	case eval.JudgeOK:
		o.printf("  judge:")
		for _, k := range sortedKeys(j.Scores) {
			o.printf(" %s=%v", k, j.Scores[k])
		}
		o.printf("\n")
	case eval.JudgeUnparseable:
		o.printf("  judge: unparseable output: %s\n", truncate(oneLine(j.Raw), 120))
	default:
		o.printf("  judge: unavailable: %s\n", j.Error)
	}
}

func printSummaryReport(o *output, report eval.SummaryReport) {
	o.printf("Summary evaluation: %s\n", passLabel(report.Passed))
	printMetrics(o, report.Metrics)
	printJudge(o, report.Judge)
}

func printQAReport(o *output, report eval.QAReport) {
	o.printf("QA evaluation: %d/%d passed\n", report.PassedCount(), len(report.Items))
	for i, item := range report.Items {
		o.printf("\n[%d] %s (%s)\n", i+1, truncate(item.Question, 80), passLabel(item.Passed))
		printMetrics(o, item.Metrics)
		printJudge(o, item.Judge)
	}
}

func passLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
