// ABOUTME: MCP tool handler implementations for the document assistant
// ABOUTME: Domain failures become tool errors; only encoding problems are returned as Go errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/harper/docqa/internal/session"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	session *session.Session
	judge   bool
	logger  *zap.Logger

	mu       sync.Mutex
	closing  bool
	inflight sync.WaitGroup
}

// tracked counts a tool call as in flight until it returns.
// Calls arriving after Shutdown are rejected.
func (h *Handlers) tracked(fn mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		h.mu.Lock()
		if h.closing {
			h.mu.Unlock()
			return mcp.NewToolResultError("server is shutting down"), nil
		}
		h.inflight.Add(1)
		h.mu.Unlock()
		defer h.inflight.Done()

		return fn(ctx, request)
	}
}

// Shutdown stops accepting tool calls and waits for in-flight ones to complete
func (h *Handlers) Shutdown() {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()

	h.logger.Info("waiting for in-flight tool calls")
	h.inflight.Wait()
	h.logger.Info("all tool calls completed")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// LoadDocument handles the load_document tool
func (h *Handlers) LoadDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}

	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", path, err)), nil
	}
	doc, err := h.session.LoadDocument(filepath.Base(path), data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"doc_id": doc.ID,
		"name":   doc.Name,
		"pages":  len(doc.Pages),
	})
}

// BuildIndex handles the build_index tool
func (h *Handlers) BuildIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := h.session.BuildIndex(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build index: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"doc_id": h.session.Snapshot().DocID,
		"chunks": n,
	})
}

// AskQuestion handles the ask_question tool
func (h *Handlers) AskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	answer, err := h.session.Ask(ctx, question)
	if err != nil && !answer.Refused {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.logger.Warn("answer replaced by refusal", zap.Error(err))
	}
	return jsonResult(answer)
}

// SummarizeDocument handles the summarize_document tool
func (h *Handlers) SummarizeDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.session.Summarize(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to summarize: %v", err)), nil
	}
	return jsonResult(result)
}

// EvaluateSummary handles the evaluate_summary tool
func (h *Handlers) EvaluateSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := h.session.EvaluateSummary(ctx, request.GetBool("judge", h.judge))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

// EvaluateQA handles the evaluate_qa tool
func (h *Handlers) EvaluateQA(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lastN := request.GetInt("last_n", session.DefaultEvalItems)
	report, err := h.session.EvaluateQA(ctx, lastN, request.GetBool("judge", h.judge))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

// ResetSession handles the reset_session tool
func (h *Handlers) ResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.session.Reset()
	return jsonResult(map[string]interface{}{"status": "reset"})
}
