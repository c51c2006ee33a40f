// ABOUTME: Summarizer produces the structured whitepaper summary
// ABOUTME: Output containing investment language triggers one regeneration
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/prompts"
)

// ErrEmptyText is returned when there is no whitepaper text to summarize
var ErrEmptyText = errors.New("whitepaper text is empty")

// BannedTerms are matched case-insensitively as substrings
var BannedTerms = []string{
	"buy",
	"sell",
	"hold",
	"bullish",
	"bearish",
	"price target",
	"moon",
	"guaranteed returns",
	"financial advice",
}

const regenerateInstruction = "IMPORTANT: The previous output contained banned investment language. " +
	"You must regenerate the summary and strictly avoid all investment or trading terms."

// ContainsInvestmentLanguage reports whether text contains any banned term.
// Matching is plain substring, so "hold" also matches "holders".
func ContainsInvestmentLanguage(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range BannedTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// SummaryResult is the outcome of one summarization
type SummaryResult struct {
	Text string `json:"summary" yaml:"summary"`
	// Regenerated is set when the first draft was rejected
	Regenerated bool `json:"regenerated" yaml:"regenerated"`
	// StillFlagged is set when the regenerated draft also contains banned terms
	StillFlagged bool `json:"still_flagged" yaml:"still_flagged"`
}

// Summarizer wraps the generator with the summary template and the language filter
type Summarizer struct {
	generator llm.Generator
	prompts   prompts.Source
	logger    *zap.Logger
}

// NewSummarizer creates a Summarizer. logger may be nil.
func NewSummarizer(generator llm.Generator, source prompts.Source, logger *zap.Logger) *Summarizer {
	return &Summarizer{generator: generator, prompts: source, logger: logging.OrNop(logger)}
}

// Summarize generates the summary for the full whitepaper text
func (s *Summarizer) Summarize(ctx context.Context, text string) (SummaryResult, error) {
	if strings.TrimSpace(text) == "" {
		return SummaryResult{}, ErrEmptyText
	}

	system, err := s.prompts.Load(prompts.Summary)
	if err != nil {
		return SummaryResult{}, err
	}
	prompt := system + "\n\nWHITEPAPER TEXT:\n" + text

	summary, err := s.generator.Generate(ctx, prompt, llm.GenerateOptions{})
	if err != nil {
		return SummaryResult{}, fmt.Errorf("failed to generate summary: %w", err)
	}
	if !ContainsInvestmentLanguage(summary) {
		return SummaryResult{Text: summary}, nil
	}

	s.logger.Info("summary contained investment language, regenerating")
	summary, err = s.generator.Generate(ctx, prompt+"\n\n"+regenerateInstruction, llm.GenerateOptions{})
	if err != nil {
		return SummaryResult{}, fmt.Errorf("failed to regenerate summary: %w", err)
	}

	result := SummaryResult{Text: summary, Regenerated: true}
	if ContainsInvestmentLanguage(summary) {
		result.StillFlagged = true
		s.logger.Warn("regenerated summary still contains investment language")
	}
	return result, nil
}
