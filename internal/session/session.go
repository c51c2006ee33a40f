// ABOUTME: Session holds the state of one whitepaper conversation: document, index flag, chat, summary, reports
// ABOUTME: Every operation takes the session lock, so callers from HTTP and MCP run one at a time
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/eval"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/pdf"
)

// QA evaluation window
const (
	DefaultEvalItems = 5
	MaxEvalItems     = 10
)

// ReasonError marks an answer replaced by the refusal because answering failed
const ReasonError = "error"

var (
	ErrNoDocument = errors.New("no document loaded")
	ErrNotIndexed = errors.New("document has not been indexed")
	ErrNoSummary  = errors.New("no summary has been generated")
	ErrNoQAItems  = errors.New("no answered questions to evaluate")
)

// Deps are the engines a session drives
type Deps struct {
	Indexer    *core.Indexer
	Answerer   *core.AnswerEngine
	Summarizer *core.Summarizer
	Evaluator  *eval.Runner
	Logger     *zap.Logger
}

// Session is the explicit state of one user working on one document at a time
type Session struct {
	mu   sync.Mutex
	id   string
	deps Deps
	log  *zap.Logger

	docID     string
	fileName  string
	fileBytes []byte
	pages     []models.Page
	indexed   bool
	history   []models.ChatTurn
	summary   *core.SummaryResult
	qaLog     []models.QAItem
	summaryEv *eval.SummaryReport
	qaEv      *eval.QAReport
}

// New creates an empty session
func New(deps Deps) *Session {
	id := uuid.New().String()
	return &Session{
		id:   id,
		deps: deps,
		log:  logging.OrNop(deps.Logger).With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// LoadDocument extracts pages from an upload. A document with a new id clears
// the index flag, chat, summary, QA log and reports.
func (s *Session) LoadDocument(name string, data []byte) (models.Document, error) {
	doc, err := pdf.Load(name, data)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to load document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID != s.docID {
		s.clearDerived()
		s.log.Info("document loaded", zap.String("doc_id", doc.ID), zap.Int("pages", len(doc.Pages)))
	}
	s.docID = doc.ID
	s.fileName = doc.Name
	s.fileBytes = data
	s.pages = doc.Pages
	return doc, nil
}

// Reset clears every field
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docID = ""
	s.fileName = ""
	s.fileBytes = nil
	s.pages = nil
	s.clearDerived()
	s.log.Info("session reset")
}

func (s *Session) clearDerived() {
	s.indexed = false
	s.history = nil
	s.summary = nil
	s.qaLog = nil
	s.summaryEv = nil
	s.qaEv = nil
}

// BuildIndex indexes the loaded document and returns the chunk count
func (s *Session) BuildIndex(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docID == "" {
		return 0, ErrNoDocument
	}
	n, err := s.deps.Indexer.IndexDocument(ctx, s.docID, s.pages)
	if err != nil {
		s.indexed = false
		return 0, err
	}
	s.indexed = true
	return n, nil
}

// Ask answers a question against the index. An answering failure is recorded as
// the refusal with no chunks and returned together with the error.
func (s *Session) Ask(ctx context.Context, question string) (core.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docID == "" {
		return core.Answer{}, ErrNoDocument
	}
	if !s.indexed {
		return core.Answer{}, ErrNotIndexed
	}

	s.history = append(s.history, models.ChatTurn{Role: models.RoleUser, Content: question})
	recent := core.RecentHistory(s.history)

	answer, err := s.deps.Answerer.Answer(ctx, s.docID, question, recent)
	if err != nil {
		s.log.Error("answering failed", zap.Error(err))
		answer = core.Answer{
			Text:    models.RefusalText,
			Chunks:  []models.RetrievedChunk{},
			Refused: true,
			Reason:  ReasonError,
		}
	}

	s.history = append(s.history, models.ChatTurn{Role: models.RoleAssistant, Content: answer.Text})
	s.qaLog = append(s.qaLog, models.QAItem{
		Question:        question,
		Answer:          answer.Text,
		RetrievedChunks: answer.Chunks,
	})
	return answer, err
}

// Summarize generates and caches the document summary
func (s *Session) Summarize(ctx context.Context) (core.SummaryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docID == "" {
		return core.SummaryResult{}, ErrNoDocument
	}
	result, err := s.deps.Summarizer.Summarize(ctx, pdf.FullText(s.pages))
	if err != nil {
		return core.SummaryResult{}, err
	}
	s.summary = &result
	return result, nil
}

// EvaluateSummary evaluates the cached summary against the document text
func (s *Session) EvaluateSummary(ctx context.Context, useJudge bool) (eval.SummaryReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.summary == nil || s.summary.Text == "" {
		return eval.SummaryReport{}, ErrNoSummary
	}
	if s.docID == "" {
		return eval.SummaryReport{}, ErrNoDocument
	}
	report := s.deps.Evaluator.EvaluateSummary(ctx, s.summary.Text, pdf.FullText(s.pages), useJudge)
	s.summaryEv = &report
	return report, nil
}

// EvaluateQA evaluates the last n logged questions. n is clamped to 1..10;
// zero or less means the default of 5.
func (s *Session) EvaluateQA(ctx context.Context, n int, useJudge bool) (eval.QAReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.indexed {
		return eval.QAReport{}, ErrNotIndexed
	}
	if len(s.qaLog) == 0 {
		return eval.QAReport{}, ErrNoQAItems
	}

	n = ClampEvalItems(n)
	items := s.qaLog
	if len(items) > n {
		items = items[len(items)-n:]
	}
	report := s.deps.Evaluator.EvaluateQA(ctx, items, useJudge)
	s.qaEv = &report
	return report, nil
}

// ClampEvalItems applies the QA evaluation window bounds
func ClampEvalItems(n int) int {
	switch {
	case n <= 0:
		return DefaultEvalItems
	case n > MaxEvalItems:
		return MaxEvalItems
	}
	return n
}

// Snapshot is a read-only copy of session state
type Snapshot struct {
	ID            string              `json:"session_id" yaml:"session_id"`
	DocID         string              `json:"doc_id,omitempty" yaml:"doc_id,omitempty"`
	FileName      string              `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	FileSize      int                 `json:"file_size" yaml:"file_size"`
	PageCount     int                 `json:"page_count" yaml:"page_count"`
	Indexed       bool                `json:"indexed" yaml:"indexed"`
	History       []models.ChatTurn   `json:"chat_history" yaml:"chat_history"`
	Summary       *core.SummaryResult `json:"summary,omitempty" yaml:"summary,omitempty"`
	QALog         []models.QAItem     `json:"qa_log" yaml:"qa_log"`
	SummaryReport *eval.SummaryReport `json:"summary_report,omitempty" yaml:"summary_report,omitempty"`
	QAReport      *eval.QAReport      `json:"qa_report,omitempty" yaml:"qa_report,omitempty"`
}

// Snapshot copies the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:            s.id,
		DocID:         s.docID,
		FileName:      s.fileName,
		FileSize:      len(s.fileBytes),
		PageCount:     len(s.pages),
		Indexed:       s.indexed,
		History:       append([]models.ChatTurn{}, s.history...),
		QALog:         append([]models.QAItem{}, s.qaLog...),
		SummaryReport: s.summaryEv,
		QAReport:      s.qaEv,
	}
	if s.summary != nil {
		summary := *s.summary
		snap.Summary = &summary
	}
	return snap
}

// Pages returns a copy of the extracted pages
func (s *Session) Pages() []models.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Page{}, s.pages...)
}
