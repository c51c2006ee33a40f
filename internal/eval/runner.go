// ABOUTME: Evaluation runner combining deterministic checks with an optional judge
// ABOUTME: A report passes when every deterministic check passes
package eval

import (
	"context"

	"go.uber.org/zap"

	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/metrics"
	"github.com/harper/docqa/internal/models"
)

// DefaultSampleChars is how much of each end of a whitepaper the summary judge sees
const DefaultSampleChars = 12000

// Metric names
const (
	MetricRequiredSections   = "has_required_sections"
	MetricWordLimit          = "within_word_limit"
	MetricMissingInfoPhrase  = "missing_info_phrase_consistency"
	MetricQAStructure        = "qa_structure_valid"
	MetricCitationFormat     = "citation_presence_format"
	MetricNotFound           = "not_found_correctness"
	MetricCitationValidity   = "citation_validity_vs_retrieval"
	MetricNumericHallucinate = "hallucination_risk_numeric"
)

// SampleWhitepaper returns text unchanged when it is at most twice sampleChars long,
// otherwise its head and tail joined by an ellipsis line.
func SampleWhitepaper(text string, sampleChars int) string {
	if sampleChars <= 0 {
		sampleChars = DefaultSampleChars
	}
	runes := []rune(text)
	if len(runes) <= sampleChars*2 {
		return text
	}
	return string(runes[:sampleChars]) + "\n\n...\n\n" + string(runes[len(runes)-sampleChars:])
}

// Runner evaluates summaries and QA logs
type Runner struct {
	judge       *Judge
	wordLimit   int
	sampleChars int
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewRunner creates a Runner. judge, m and logger may be nil; a nil judge reports
// every requested judgment as unavailable.
func NewRunner(judge *Judge, wordLimit, sampleChars int, m *metrics.Metrics, logger *zap.Logger) *Runner {
	if wordLimit <= 0 {
		wordLimit = DefaultWordLimit
	}
	if sampleChars <= 0 {
		sampleChars = DefaultSampleChars
	}
	return &Runner{
		judge:       judge,
		wordLimit:   wordLimit,
		sampleChars: sampleChars,
		metrics:     m,
		logger:      logging.OrNop(logger),
	}
}

func collect(names []string, checks []Check) Metrics {
	out := make(Metrics, len(checks))
	for i, c := range checks {
		out[i] = Metric{Name: names[i], Passed: c.Passed, Message: c.Message}
	}
	return out
}

// EvaluateSummary checks a summary; with useJudge it also asks the judge to grade it
// against a sample of the whitepaper.
func (r *Runner) EvaluateSummary(ctx context.Context, summary, whitepaper string, useJudge bool) SummaryReport {
	m := collect(
		[]string{MetricRequiredSections, MetricWordLimit, MetricMissingInfoPhrase},
		[]Check{
			CheckSummaryRequiredSections(summary),
			CheckSummaryWordLimit(summary, r.wordLimit),
			CheckSummaryMissingInfoPhrase(summary),
		},
	)

	report := SummaryReport{Metrics: m, Failures: m.failures()}
	report.Passed = len(report.Failures) == 0
	if useJudge {
		report.Judge = r.judge.JudgeSummary(ctx, SampleWhitepaper(whitepaper, r.sampleChars), summary)
	}

	r.metrics.Evaluated("summary", report.Passed)
	r.logger.Info("summary evaluated", zap.Bool("passed", report.Passed), zap.Int("failures", len(report.Failures)))
	return report
}

// EvaluateQA checks each logged question independently
func (r *Runner) EvaluateQA(ctx context.Context, items []models.QAItem, useJudge bool) QAReport {
	report := QAReport{Items: make([]QAItemReport, 0, len(items))}

	for _, item := range items {
		chunks := item.RetrievedChunks
		if chunks == nil {
			chunks = []models.RetrievedChunk{}
		}
		m := collect(
			[]string{MetricQAStructure, MetricCitationFormat, MetricNotFound, MetricCitationValidity, MetricNumericHallucinate},
			[]Check{
				CheckQAStructure(item.Answer),
				CheckQAReferenceFormat(item.Answer),
				CheckNotFoundFormat(item.Answer),
				CheckReferenceValidity(item.Answer, chunks),
				CheckNumericHallucination(item.Answer, chunks),
			},
		)

		result := QAItemReport{
			Question:        item.Question,
			Answer:          item.Answer,
			Metrics:         m,
			Failures:        m.failures(),
			RetrievedChunks: chunks,
		}
		result.Passed = len(result.Failures) == 0
		if useJudge {
			result.Judge = r.judge.JudgeQA(ctx, item.Question, item.Answer, chunks)
		}

		r.metrics.Evaluated("qa", result.Passed)
		report.Items = append(report.Items, result)
	}

	r.logger.Info("qa evaluated", zap.Int("items", len(report.Items)), zap.Int("passed", report.PassedCount()))
	return report
}
