// ABOUTME: MCP tool definitions and registration for the document assistant
// ABOUTME: Seven tools drive one shared session: load, index, ask, summarize, two evaluations, reset
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/session"
)

// ServerName and ServerVersion identify the MCP server
const (
	ServerName    = "docqa"
	ServerVersion = "0.1.0"
)

// NewServer creates an MCP server with every tool registered
func NewServer(sess *session.Session, judge bool, logger *zap.Logger) (*mcpserver.MCPServer, *Handlers) {
	server := mcpserver.NewMCPServer(ServerName, ServerVersion, mcpserver.WithToolCapabilities(false))
	return server, RegisterTools(server, sess, judge, logger)
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, sess *session.Session, judge bool, logger *zap.Logger) *Handlers {
	handlers := &Handlers{
		session: sess,
		judge:   judge,
		logger:  logging.OrNop(logger),
	}

	// 1. load_document - read a whitepaper from disk into the session
	server.AddTool(mcp.Tool{
		Name:        "load_document",
		Description: "Load a whitepaper (PDF, .txt or .md) from a local path. Loading a different document clears the index, chat, summary and reports.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the document file",
				},
			},
			Required: []string{"path"},
		},
	}, handlers.tracked(handlers.LoadDocument))

	// 2. build_index - chunk and embed the loaded document
	server.AddTool(mcp.Tool{
		Name:        "build_index",
		Description: "Build the question-answering index for the loaded document. Required before ask_question.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.tracked(handlers.BuildIndex))

	// 3. ask_question - grounded answer with page/section references
	server.AddTool(mcp.Tool{
		Name:        "ask_question",
		Description: "Ask a question about the indexed document. Answers cite pages and sections, or return exactly \"Information not found in the document.\"",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question about the document",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.tracked(handlers.AskQuestion))

	// 4. summarize_document - structured summary
	server.AddTool(mcp.Tool{
		Name:        "summarize_document",
		Description: "Generate the structured summary of the loaded document.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.tracked(handlers.SummarizeDocument))

	// 5. evaluate_summary - deterministic checks plus optional judge
	server.AddTool(mcp.Tool{
		Name:        "evaluate_summary",
		Description: "Evaluate the generated summary: required headings, word limit and missing-info phrasing.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"judge": map[string]interface{}{
					"type":        "boolean",
					"description": "Also ask a model to grade faithfulness and coverage",
				},
			},
		},
	}, handlers.tracked(handlers.EvaluateSummary))

	// 6. evaluate_qa - checks over the most recent answers
	server.AddTool(mcp.Tool{
		Name:        "evaluate_qa",
		Description: "Evaluate the most recent answers: structure, citation format and validity, numeric claims.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"last_n": map[string]interface{}{
					"type":        "number",
					"description": "How many recent answers to evaluate (1-10, default: 5)",
					"default":     session.DefaultEvalItems,
				},
				"judge": map[string]interface{}{
					"type":        "boolean",
					"description": "Also ask a model to grade groundedness and citation quality",
				},
			},
		},
	}, handlers.tracked(handlers.EvaluateQA))

	// 7. reset_session - start over
	server.AddTool(mcp.Tool{
		Name:        "reset_session",
		Description: "Clear the document, index flag, chat history, summary and reports.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.tracked(handlers.ResetSession))

	return handlers
}
