// ABOUTME: AnswerEngine answers questions strictly from retrieved document chunks
// ABOUTME: A relevance gate and a reference post-check decide when to return the refusal
package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/metrics"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/prompts"
)

// Refusal reasons, used for logs and metrics
const (
	ReasonEmptyQuestion     = "empty_question"
	ReasonNoResults         = "no_results"
	ReasonNoDistance        = "no_distance"
	ReasonShortNoOverlap    = "short_no_overlap"
	ReasonFarNoOverlap      = "far_no_overlap"
	ReasonMissingReferences = "missing_references"
)

var keywordPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

// GateConfig holds the relevance gate thresholds
type GateConfig struct {
	TopK            int
	MaxDistance     float64
	ShortChunkChars int
	MinKeywordLen   int
}

// DefaultGateConfig returns the standard thresholds
func DefaultGateConfig() GateConfig {
	return GateConfig{
		TopK:            config.DefaultTopK,
		MaxDistance:     config.DefaultMaxDistance,
		ShortChunkChars: config.DefaultShortChunkChars,
		MinKeywordLen:   config.DefaultMinKeywordLen,
	}
}

// GateConfigFrom reads the thresholds from cfg
func GateConfigFrom(cfg *config.Config) GateConfig {
	return GateConfig{
		TopK:            cfg.TopK,
		MaxDistance:     cfg.MaxDistance,
		ShortChunkChars: cfg.ShortChunkChars,
		MinKeywordLen:   cfg.MinKeywordLen,
	}
}

// Answer is the result of one question
type Answer struct {
	Text string `json:"answer"`
	// Chunks is empty when the gate refused before generation
	Chunks  []models.RetrievedChunk `json:"retrieved_chunks"`
	Refused bool                    `json:"refused"`
	Reason  string                  `json:"reason,omitempty"`
}

// AnswerEngine runs retrieval, gating, prompt assembly and generation
type AnswerEngine struct {
	embedder  llm.Embedder
	index     ChunkIndex
	generator llm.Generator
	prompts   prompts.Source
	gate      GateConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewAnswerEngine creates an AnswerEngine. logger and m may be nil.
func NewAnswerEngine(embedder llm.Embedder, index ChunkIndex, generator llm.Generator, source prompts.Source, gate GateConfig, logger *zap.Logger, m *metrics.Metrics) *AnswerEngine {
	def := DefaultGateConfig()
	if gate.TopK <= 0 {
		gate.TopK = def.TopK
	}
	if gate.ShortChunkChars <= 0 {
		gate.ShortChunkChars = def.ShortChunkChars
	}
	if gate.MinKeywordLen <= 0 {
		gate.MinKeywordLen = def.MinKeywordLen
	}
	return &AnswerEngine{
		embedder:  embedder,
		index:     index,
		generator: generator,
		prompts:   source,
		gate:      gate,
		logger:    logging.OrNop(logger),
		metrics:   m,
	}
}

// Answer answers question about docID using history as conversation memory.
// history should already be reduced with RecentHistory.
func (e *AnswerEngine) Answer(ctx context.Context, docID, question string, history []models.ChatTurn) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return e.refuse(docID, ReasonEmptyQuestion, nil), nil
	}

	vec, err := e.embedder.Embed(ctx, question, llm.TaskRetrievalQuery)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to embed question: %w", err)
	}
	retrieved, err := e.index.Query(ctx, docID, vec, e.gate.TopK)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to query index: %w", err)
	}
	if len(retrieved) == 0 {
		return e.refuse(docID, ReasonNoResults, nil), nil
	}

	if reason := e.checkGate(question, retrieved); reason != "" {
		return e.refuse(docID, reason, nil), nil
	}

	system, err := e.prompts.Load(prompts.QA)
	if err != nil {
		return Answer{}, err
	}
	prompt := BuildQAPrompt(FormatHistory(history), FormatContext(retrieved), question)

	response, err := e.generator.Generate(ctx, prompt, llm.GenerateOptions{System: system})
	if err != nil {
		return Answer{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	chunks := make([]models.RetrievedChunk, len(retrieved))
	for i, rc := range retrieved {
		chunks[i] = models.RetrievedChunk{Page: rc.Page, Section: rc.Section, Text: rc.Text}
	}

	if !HasReferences(response) {
		return e.refuse(docID, ReasonMissingReferences, chunks), nil
	}

	minDistance, _ := MinDistance(retrieved)
	e.metrics.Answered()
	e.logger.Debug("question answered",
		zap.String("doc_id", docID),
		zap.Int("chunks", len(chunks)),
		zap.Float64("min_distance", minDistance),
	)
	return Answer{Text: response, Chunks: chunks}, nil
}

// checkGate returns a refusal reason, or "" when generation may proceed
func (e *AnswerEngine) checkGate(question string, retrieved []models.RetrievedChunk) string {
	minDistance, ok := MinDistance(retrieved)
	if !ok {
		return ReasonNoDistance
	}

	short := true
	texts := make([]string, len(retrieved))
	for i, rc := range retrieved {
		texts[i] = rc.Text
		if utf8.RuneCountInString(strings.TrimSpace(rc.Text)) >= e.gate.ShortChunkChars {
			short = false
		}
	}
	overlap := HasKeywordOverlap(question, texts, e.gate.MinKeywordLen)

	switch {
	case short && !overlap:
		return ReasonShortNoOverlap
	case minDistance > e.gate.MaxDistance && !overlap:
		return ReasonFarNoOverlap
	}
	return ""
}

func (e *AnswerEngine) refuse(docID, reason string, chunks []models.RetrievedChunk) Answer {
	if chunks == nil {
		chunks = []models.RetrievedChunk{}
	}
	e.metrics.Refused(reason)
	e.logger.Info("question refused", zap.String("doc_id", docID), zap.String("reason", reason))
	return Answer{Text: models.RefusalText, Chunks: chunks, Refused: true, Reason: reason}
}

// MinDistance returns the smallest distance among chunks
func MinDistance(chunks []models.RetrievedChunk) (float64, bool) {
	if len(chunks) == 0 {
		return 0, false
	}
	lowest := chunks[0].Distance
	for _, c := range chunks[1:] {
		if c.Distance < lowest {
			lowest = c.Distance
		}
	}
	return lowest, true
}

// Keywords returns the lowercase alphanumeric words of text that are at least minLen long
func Keywords(text string, minLen int) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range keywordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) >= minLen {
			words[w] = struct{}{}
		}
	}
	return words
}

// HasKeywordOverlap reports whether any document shares a keyword with question.
// A question with no keywords counts as overlapping.
func HasKeywordOverlap(question string, documents []string, minLen int) bool {
	q := Keywords(question, minLen)
	if len(q) == 0 {
		return true
	}
	for _, doc := range documents {
		for w := range Keywords(doc, minLen) {
			if _, ok := q[w]; ok {
				return true
			}
		}
	}
	return false
}

// FormatContext renders retrieved chunks as labeled blocks, or "None"
func FormatContext(chunks []models.RetrievedChunk) string {
	if len(chunks) == 0 {
		return "None"
	}
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		section := c.Section
		if section == "" {
			section = models.UnknownSection
		}
		blocks[i] = fmt.Sprintf("[Chunk %d] Page %d | Section: %s\n%s", i+1, c.Page, section, c.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildQAPrompt lays out memory, context and question for the model
func BuildQAPrompt(history, chunks, question string) string {
	return "CONVERSATION MEMORY (LAST 2 TURNS EACH SIDE):\n" + history +
		"\n\nCONTEXT CHUNKS:\n" + chunks +
		"\n\nQUESTION:\n" + question + "\n"
}

// HasReferences reports whether a response carries a references block
func HasReferences(text string) bool {
	upper := strings.ToUpper(text)
	return strings.Contains(upper, "REFERENCES") && strings.Contains(upper, "PAGE")
}
