// ABOUTME: Test doubles for the model and index capabilities used by core
// ABOUTME: Deterministic embedder, scripted generator and in-memory index
package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/prompts"
)

var errFake = errors.New("fake failure")

var testVocabulary = []string{"supply", "token", "risk", "team", "roadmap", "staking"}

// fakeEmbedder counts vocabulary words; every vector gets a small constant
// component so none is all-zero.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls []llm.TaskType
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, task llm.TaskType) ([]float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, task)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	lower := strings.ToLower(text)
	vec := make([]float64, len(testVocabulary)+1)
	for i, w := range testVocabulary {
		vec[i] = float64(strings.Count(lower, w))
	}
	vec[len(testVocabulary)] = 0.01
	return vec, nil
}

func (f *fakeEmbedder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type generateCall struct {
	prompt string
	opts   llm.GenerateOptions
}

// fakeGenerator returns responses in order; the last one repeats
type fakeGenerator struct {
	responses []string
	err       error
	calls     []generateCall
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	f.calls = append(f.calls, generateCall{prompt: prompt, opts: opts})
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", llm.ErrEmptyResponse
	}
	i := len(f.calls) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

// fakeIndex stores upserts and serves a fixed query result
type fakeIndex struct {
	upserts  map[string][]models.Chunk
	results  []models.RetrievedChunk
	queryK   int
	queryErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{upserts: make(map[string][]models.Chunk)}
}

func (f *fakeIndex) Upsert(_ context.Context, docID string, chunks []models.Chunk) error {
	f.upserts[docID] = chunks
	return nil
}

func (f *fakeIndex) Query(_ context.Context, _ string, _ []float64, k int) ([]models.RetrievedChunk, error) {
	f.queryK = k
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.results, nil
}

func testPrompts() prompts.Static {
	return prompts.Static{
		prompts.Summary: "Summarize with the required headings.",
		prompts.QA:      "Answer only from the context chunks.",
	}
}
