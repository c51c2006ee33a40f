// ABOUTME: Tests for groundedness scoring of refusals, citations and coverage
// ABOUTME: Table tests over hand-written answers

package groundedness

import (
	"reflect"
	"testing"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/eval"
	"github.com/harper/docqa/internal/models"
)

const citedAnswer = "ANSWER\nSupply is 1,000,000,000.\n\nEVIDENCE\n\"fixed at 1,000,000,000\"\n\nREFERENCES\nPage 2 | Section: TOKENOMICS\nPage 3 | Section: TEAM\nPage 2 | Section: TOKENOMICS"

func TestCalculateRefusalCorrectness(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name          string
		expectRefusal bool
		answer        string
		want          bool
	}{
		{"expected refusal", true, models.RefusalText, true},
		{"expected refusal with whitespace", true, "  " + models.RefusalText + "\n", true},
		{"unexpected answer", true, citedAnswer, false},
		{"unexpected refusal", false, models.RefusalText, false},
		{"expected answer", false, citedAnswer, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateRefusalCorrectness(tt.expectRefusal, tt.answer)
			if got != tt.want {
				t.Errorf("CalculateRefusalCorrectness() = %v (%s), want %v", got, detail, tt.want)
			}
		})
	}
}

func TestCitedPages(t *testing.T) {
	got := CitedPages(citedAnswer)
	if !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("CitedPages() = %v, want [2 3]", got)
	}
	if got := CitedPages(models.RefusalText); len(got) != 0 {
		t.Errorf("CitedPages(refusal) = %v, want empty", got)
	}
}

func TestCalculateCitationRecall(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name     string
		expected []int
		answer   string
		want     float64
	}{
		{"nothing required", nil, "anything", 1.0},
		{"all cited", []int{2, 3}, citedAnswer, 1.0},
		{"half cited", []int{2, 5}, citedAnswer, 0.5},
		{"none cited", []int{4}, citedAnswer, 0.0},
		{"refusal", []int{2}, models.RefusalText, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateCitationRecall(tt.expected, tt.answer)
			if got != tt.want {
				t.Errorf("CalculateCitationRecall() = %.2f (%s), want %.2f", got, detail, tt.want)
			}
		})
	}
}

func TestCalculateAnswerCoverage(t *testing.T) {
	m := NewMetricsCalculator()

	got, _ := m.CalculateAnswerCoverage([]string{"1,000,000,000", "supply"}, citedAnswer)
	if got != 1.0 {
		t.Errorf("coverage = %.2f, want 1.0", got)
	}
	got, detail := m.CalculateAnswerCoverage([]string{"1,000,000,000", "burn"}, citedAnswer)
	if got != 0.5 || detail != "Missing expected content: [burn]" {
		t.Errorf("coverage = %.2f (%s), want 0.5", got, detail)
	}
}

func TestEvaluateQuestion(t *testing.T) {
	m := NewMetricsCalculator()
	answerable := Question{Text: "Supply?", ExpectedPages: []int{2}, ExpectedInAnswer: []string{"1,000,000,000"}}
	unanswerable := Question{Text: "Price?", ExpectRefusal: true}
	refusal := core.Answer{Text: models.RefusalText, Chunks: []models.RetrievedChunk{}, Refused: true, Reason: core.ReasonShortNoOverlap}

	tests := []struct {
		name     string
		question Question
		answer   core.Answer
		item     eval.QAItemReport
		want     string
	}{
		{"grounded answer with passing eval", answerable, core.Answer{Text: citedAnswer}, eval.QAItemReport{Passed: true}, StatusPass},
		{"grounded answer with failing eval", answerable, core.Answer{Text: citedAnswer}, eval.QAItemReport{Passed: false}, StatusFail},
		{"refused answerable question", answerable, refusal, eval.QAItemReport{}, StatusFail},
		{"refused unanswerable question", unanswerable, refusal, eval.QAItemReport{Passed: false}, StatusPass},
		{"answered unanswerable question", unanswerable, core.Answer{Text: citedAnswer}, eval.QAItemReport{Passed: true}, StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.EvaluateQuestion(tt.question, tt.answer, tt.item)
			if got.Status != tt.want {
				t.Errorf("EvaluateQuestion() status = %s, want %s (details %v)", got.Status, tt.want, got.Details)
			}
		})
	}
}

func TestEvaluateScenario(t *testing.T) {
	m := NewMetricsCalculator()
	s := GetTokenomicsScenario()

	questions := []QuestionResult{
		{ExpectRefusal: false, RefusalCorrect: true, CitationRecall: 1.0, EvalPassed: true, Status: StatusPass},
		{ExpectRefusal: false, RefusalCorrect: false, CitationRecall: 0.0, Status: StatusFail},
		{ExpectRefusal: true, RefusalCorrect: true, CitationRecall: 1.0, Status: StatusPass},
	}

	got := m.EvaluateScenario(s, questions)
	if got.Status != StatusFail {
		t.Errorf("status = %s, want FAIL", got.Status)
	}
	if got.CitationRecall != 0.5 || got.EvalPassRate != 0.5 {
		t.Errorf("citation recall = %.2f, eval pass rate = %.2f, want 0.5 each", got.CitationRecall, got.EvalPassRate)
	}
	if want := 2.0 / 3.0; got.RefusalAccuracy != want {
		t.Errorf("refusal accuracy = %.4f, want %.4f", got.RefusalAccuracy, want)
	}

	empty := m.EvaluateScenario(s, nil)
	if empty.Status != StatusFail || empty.ErrorMessage == "" {
		t.Errorf("empty scenario = %+v, want FAIL with message", empty)
	}
}
