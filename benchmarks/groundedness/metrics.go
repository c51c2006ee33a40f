// ABOUTME: Groundedness metrics for refusal correctness, citation page recall and answer coverage
// ABOUTME: Deterministic scoring against each question's ground truth

package groundedness

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/eval"
	"github.com/harper/docqa/internal/models"
)

// Status values for questions and scenarios
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// QuestionResult is the scored outcome of one question
type QuestionResult struct {
	Question        string   `json:"question"`
	ExpectRefusal   bool     `json:"expect_refusal"`
	Refused         bool     `json:"refused"`
	RefusalReason   string   `json:"refusal_reason,omitempty"`
	RefusalCorrect  bool     `json:"refusal_correct"`
	CitationRecall  float64  `json:"citation_recall"`
	CitedPages      []int    `json:"cited_pages"`
	AnswerCoverage  float64  `json:"answer_coverage"`
	EvalPassed      bool     `json:"eval_passed"`
	EvalFailures    []string `json:"eval_failures,omitempty"`
	Status          string   `json:"status"`
	Details         []string `json:"details,omitempty"`
	RetrievedChunks int      `json:"retrieved_chunks"`
	AnswerPreview   string   `json:"answer_preview"`
}

// ScenarioResult aggregates the questions of one scenario
type ScenarioResult struct {
	ScenarioID      string           `json:"scenario_id"`
	ScenarioName    string           `json:"scenario_name"`
	RefusalAccuracy float64          `json:"refusal_accuracy"`
	CitationRecall  float64          `json:"citation_recall"`
	EvalPassRate    float64          `json:"eval_pass_rate"`
	Status          string           `json:"status"`
	Questions       []QuestionResult `json:"questions"`
	ErrorMessage    string           `json:"error_message,omitempty"`
}

// MetricsCalculator computes groundedness scores
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateRefusalCorrectness checks that the refusal literal was used exactly when expected
func (m *MetricsCalculator) CalculateRefusalCorrectness(expectRefusal bool, answer string) (bool, string) {
	refused := models.IsRefusal(answer)
	switch {
	case expectRefusal && refused:
		return true, "Refused as expected"
	case expectRefusal:
		return false, "Expected the not-found response but an answer was generated"
	case refused:
		return false, "Expected a grounded answer but the question was refused"
	}
	return true, "Answered as expected"
}

// CitedPages returns the distinct page numbers cited in REFERENCES, in order of first citation
func CitedPages(answer string) []int {
	var pages []int
	for _, ref := range eval.ParseReferences(answer) {
		page, err := strconv.Atoi(ref.Page)
		if err != nil || slices.Contains(pages, page) {
			continue
		}
		pages = append(pages, page)
	}
	return pages
}

// CalculateCitationRecall is the fraction of expected pages that were cited (0.0-1.0)
func (m *MetricsCalculator) CalculateCitationRecall(expectedPages []int, answer string) (float64, string) {
	if len(expectedPages) == 0 {
		return 1.0, "No citations required"
	}

	cited := CitedPages(answer)
	var missing []int
	for _, page := range expectedPages {
		if !slices.Contains(cited, page) {
			missing = append(missing, page)
		}
	}

	recall := float64(len(expectedPages)-len(missing)) / float64(len(expectedPages))
	if len(missing) == 0 {
		return recall, "All expected pages cited"
	}
	return recall, fmt.Sprintf("Missing page citations: %v (cited %v)", missing, cited)
}

// CalculateAnswerCoverage is the fraction of expected strings present in the answer (0.0-1.0)
func (m *MetricsCalculator) CalculateAnswerCoverage(expected []string, answer string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No answer content required"
	}

	upper := strings.ToUpper(answer)
	var missing []string
	for _, item := range expected {
		if !strings.Contains(upper, strings.ToUpper(item)) {
			missing = append(missing, item)
		}
	}

	coverage := float64(len(expected)-len(missing)) / float64(len(expected))
	if len(missing) == 0 {
		return coverage, "All expected content present"
	}
	return coverage, fmt.Sprintf("Missing expected content: %v", missing)
}

// EvaluateQuestion scores one answer. The QA evaluation verdict only counts for
// answerable questions; refusals always fail the structure check.
func (m *MetricsCalculator) EvaluateQuestion(q Question, answer core.Answer, item eval.QAItemReport) QuestionResult {
	refusalOK, refusalDetail := m.CalculateRefusalCorrectness(q.ExpectRefusal, answer.Text)

	result := QuestionResult{
		Question:        q.Text,
		ExpectRefusal:   q.ExpectRefusal,
		Refused:         models.IsRefusal(answer.Text),
		RefusalReason:   answer.Reason,
		RefusalCorrect:  refusalOK,
		CitedPages:      CitedPages(answer.Text),
		EvalPassed:      item.Passed,
		EvalFailures:    item.Failures,
		RetrievedChunks: len(answer.Chunks),
		AnswerPreview:   answer.Text[:min(200, len(answer.Text))],
		Details:         []string{refusalDetail},
	}
	if result.CitedPages == nil {
		result.CitedPages = []int{}
	}

	if q.ExpectRefusal {
		result.CitationRecall = 1.0
		result.AnswerCoverage = 1.0
	} else {
		var detail string
		result.CitationRecall, detail = m.CalculateCitationRecall(q.ExpectedPages, answer.Text)
		result.Details = append(result.Details, detail)
		result.AnswerCoverage, detail = m.CalculateAnswerCoverage(q.ExpectedInAnswer, answer.Text)
		result.Details = append(result.Details, detail)
	}

	result.Status = StatusFail
	if refusalOK && result.CitationRecall >= 1.0 && result.AnswerCoverage >= 1.0 && (q.ExpectRefusal || item.Passed) {
		result.Status = StatusPass
	}
	return result
}

// EvaluateScenario aggregates question results into a scenario verdict
func (m *MetricsCalculator) EvaluateScenario(s Scenario, questions []QuestionResult) ScenarioResult {
	result := ScenarioResult{
		ScenarioID:   s.ID,
		ScenarioName: s.Name,
		Questions:    questions,
		Status:       StatusPass,
	}
	if len(questions) == 0 {
		result.Status = StatusFail
		result.ErrorMessage = "no questions answered"
		return result
	}

	var refusalsCorrect, answerable, evalPassed int
	var recall float64
	for _, q := range questions {
		if q.RefusalCorrect {
			refusalsCorrect++
		}
		if !q.ExpectRefusal {
			answerable++
			recall += q.CitationRecall
			if q.EvalPassed {
				evalPassed++
			}
		}
		if q.Status != StatusPass {
			result.Status = StatusFail
		}
	}

	result.RefusalAccuracy = float64(refusalsCorrect) / float64(len(questions))
	result.CitationRecall = 1.0
	result.EvalPassRate = 1.0
	if answerable > 0 {
		result.CitationRecall = recall / float64(answerable)
		result.EvalPassRate = float64(evalPassed) / float64(answerable)
	}
	return result
}
