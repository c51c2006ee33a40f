// ABOUTME: Model-graded evaluation of summaries and answers
// ABOUTME: Judge output is advisory; it never changes a deterministic verdict
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
)

// SummaryJudgePrompt instructs the judge for summaries
const SummaryJudgePrompt = `You are a strict evaluator. Use only the provided whitepaper sample text.
Evaluate the summary for faithfulness and coverage.
Return JSON only, with fields:
{"faithfulness": 0-5, "coverage": 0-5, "notes": "...", "major_issues": ["..."]}
If unsupported claims exist, lower faithfulness.`

// QAJudgePrompt instructs the judge for answers
const QAJudgePrompt = `You are a strict evaluator. Use only the provided retrieved chunks.
Evaluate answer groundedness, whether it answers the question, and citation quality.
Return JSON only, with fields:
{"grounded": 0-5, "answers_question": 0-5, "citation_quality": 0-5,
 "notes": "...", "hallucination_flags": ["..."]}
If claims are not supported by chunks, grounded must be low.
If "Information not found in the document." is correct, grounded can be high.`

// JudgeStatus describes how a judge call ended
type JudgeStatus string

const (
	JudgeOK          JudgeStatus = "ok"
	JudgeUnparseable JudgeStatus = "unparseable"
	JudgeUnavailable JudgeStatus = "unavailable"
)

// JudgeResult holds the judge's scores, or why there are none
type JudgeResult struct {
	Status JudgeStatus    `json:"status" yaml:"status"`
	Scores map[string]any `json:"scores,omitempty" yaml:"scores,omitempty"`
	Raw    string         `json:"raw,omitempty" yaml:"raw,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Judge asks a generator to grade outputs
type Judge struct {
	generator llm.Generator
	logger    *zap.Logger
}

// NewJudge creates a Judge. logger may be nil.
func NewJudge(generator llm.Generator, logger *zap.Logger) *Judge {
	return &Judge{generator: generator, logger: logging.OrNop(logger)}
}

// JudgeSummary grades a summary against a whitepaper sample
func (j *Judge) JudgeSummary(ctx context.Context, sample, summary string) *JudgeResult {
	prompt := SummaryJudgePrompt + "\n\nWHITEPAPER SAMPLE:\n" + sample + "\n\nSUMMARY:\n" + summary + "\n"
	return j.run(ctx, "summary", prompt)
}

// JudgeQA grades an answer against the chunks it was given
func (j *Judge) JudgeQA(ctx context.Context, question, answer string, chunks []models.RetrievedChunk) *JudgeResult {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("[Chunk %d] Page %d | Section: %s\n%s", i+1, c.Page, c.Section, c.Text)
	}
	prompt := QAJudgePrompt +
		"\n\nQUESTION:\n" + question +
		"\n\nANSWER:\n" + answer +
		"\n\nRETRIEVED CHUNKS:\n" + strings.Join(blocks, "\n\n") + "\n"
	return j.run(ctx, "qa", prompt)
}

func (j *Judge) run(ctx context.Context, kind, prompt string) *JudgeResult {
	if j == nil || j.generator == nil {
		return &JudgeResult{Status: JudgeUnavailable, Error: "judge not configured"}
	}

	response, err := j.generator.Generate(ctx, prompt, llm.GenerateOptions{})
	if err != nil {
		j.logger.Warn("judge call failed", zap.String("kind", kind), zap.Error(err))
		return &JudgeResult{Status: JudgeUnavailable, Error: err.Error()}
	}

	scores, ok := ParseJudgeJSON(response)
	if !ok {
		j.logger.Warn("judge response was not JSON", zap.String("kind", kind))
		return &JudgeResult{Status: JudgeUnparseable, Raw: response}
	}
	return &JudgeResult{Status: JudgeOK, Scores: scores}
}

// ParseJudgeJSON decodes a JSON object from text, falling back to the span
// between the first '{' and the last '}' when the model wrapped it in prose or fences.
func ParseJudgeJSON(text string) (map[string]any, bool) {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil && out != nil {
		return out, true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	out = nil
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}
