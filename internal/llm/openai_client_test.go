// ABOUTME: Tests for the OpenAI-compatible client against a local HTTP server
// ABOUTME: Verifies embedding retry bounds, error wording and generation trimming
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries *int32) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	cfg.RetryDelay = time.Millisecond
	cfg.Timeout = 5 * time.Second
	if retries != nil {
		cfg.OnRetry = func() { atomic.AddInt32(retries, 1) }
	}
	client, err := NewOpenAIClientWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}
	return client
}

func writeEmbedding(w http.ResponseWriter, vec []float32) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"object": "list",
		"model":  "text-embedding-3-small",
		"data": []map[string]interface{}{
			{"object": "embedding", "index": 0, "embedding": vec},
		},
	})
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient(""); err == nil {
		t.Error("NewOpenAIClient(\"\") should fail")
	}
}

func TestEmbed_EmptyText(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, nil)

	_, err := client.Embed(context.Background(), "   \n", TaskRetrievalQuery)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Embed() error = %v, want ErrEmptyInput", err)
	}
	if calls != 0 {
		t.Errorf("upstream calls = %d, want 0", calls)
	}
}

func TestEmbed_RetriesThenSucceeds(t *testing.T) {
	var calls, retries int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		writeEmbedding(w, []float32{0.5, 0.25})
	}, &retries)

	vec, err := client.Embed(context.Background(), "tokenomics", TaskRetrievalDocument)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 || vec[1] != 0.25 {
		t.Errorf("Embed() = %v, want [0.5 0.25]", vec)
	}
	if calls != 3 {
		t.Errorf("upstream calls = %d, want 3", calls)
	}
	if retries != 2 {
		t.Errorf("retries = %d, want 2", retries)
	}
}

func TestEmbed_ExhaustsAttempts(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":{"message":"down"}}`, http.StatusInternalServerError)
	}, nil)

	_, err := client.Embed(context.Background(), "hello", TaskRetrievalQuery)
	if err == nil {
		t.Fatal("Embed() should fail when every attempt fails")
	}
	if !strings.Contains(err.Error(), "embedding failed after 3 attempts") {
		t.Errorf("Embed() error = %q, want attempt count", err.Error())
	}
	if calls != 3 {
		t.Errorf("upstream calls = %d, want 3", calls)
	}
}

func TestEmbed_EmptyVectorIsFailure(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEmbedding(w, []float32{})
	}, nil)

	if _, err := client.Embed(context.Background(), "hello", TaskRetrievalQuery); err == nil {
		t.Error("Embed() should fail on empty vectors")
	}
	if calls != 3 {
		t.Errorf("upstream calls = %d, want 3", calls)
	}
}

func TestGenerate(t *testing.T) {
	var gotPrompt string
	var gotTemp float64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Temperature float64 `json:"temperature"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			gotPrompt = req.Messages[0].Content
		}
		gotTemp = req.Temperature
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  ANSWER\nok \n"},"finish_reason":"stop"}]}`))
	}, nil)

	out, err := client.Generate(context.Background(), "QUESTION", GenerateOptions{System: "SYSTEM"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "ANSWER\nok" {
		t.Errorf("Generate() = %q, want trimmed text", out)
	}
	if gotPrompt != "SYSTEM\n\nQUESTION" {
		t.Errorf("prompt = %q, want system prepended", gotPrompt)
	}
	if diff := gotTemp - 0.2; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("temperature = %v, want 0.2", gotTemp)
	}
}

func TestGenerate_EmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"   "},"finish_reason":"stop"}]}`))
	}, nil)

	_, err := client.Generate(context.Background(), "hi", GenerateOptions{})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Generate() error = %v, want ErrEmptyResponse", err)
	}
}

func TestComposePrompt(t *testing.T) {
	if got := ComposePrompt("", "p"); got != "p" {
		t.Errorf("ComposePrompt(\"\", p) = %q", got)
	}
	if got := ComposePrompt("s", "p"); got != "s\n\np" {
		t.Errorf("ComposePrompt(s, p) = %q", got)
	}
}
