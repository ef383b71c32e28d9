// Package mcpserver exposes the document store and question answering as
// MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/services"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
)

// Server wraps the MCP server with the document tools.
type Server struct {
	mcp  *server.MCPServer
	docs services.DocumentService
}

func New(docs services.DocumentService, version string) *Server {
	s := &Server{docs: docs}

	s.mcp = server.NewMCPServer(
		"Knowledge Lens",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Search stored documents by title, type, department or summary text. "+
			"Returns the matching documents and an answer drawn from the knowledge base."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Case-insensitive search text")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("ask_question",
		mcp.WithDescription("Answer a question from the document knowledge base, or from a single document when document_id is given."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
		mcp.WithString("document_id", mcp.Description("Optional id of one document to answer from")),
	), s.askQuestion)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read a stored document, including its analysis and extracted text."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List stored documents, optionally filtered by one field."),
		mcp.WithString("field", mcp.Description("Filter field"), mcp.Enum("department", "priority", "type")),
		mcp.WithString("value", mcp.Description("Value the filter field must equal")),
	), s.listDocuments)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.docs.Search(ctx, query)
	if err != nil {
		return toolError(err), nil
	}

	// Original text is left out of search results to keep them small.
	type hit struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		Type       string          `json:"type"`
		Department string          `json:"department"`
		Priority   models.Priority `json:"priority"`
		Headline   string          `json:"headline"`
	}
	out := struct {
		Documents []hit  `json:"documents"`
		Answer    string `json:"answer"`
	}{Documents: make([]hit, 0, len(resp.Documents)), Answer: resp.Answer}
	for _, d := range resp.Documents {
		out.Documents = append(out.Documents, hit{d.ID, d.Title, d.Type, d.Department, d.Priority, d.Summary.Headline})
	}
	return jsonResult(out)
}

func (s *Server) askQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.docs.Ask(ctx, models.AskRequest{
		Question:   question,
		DocumentID: optionalString(req, "document_id"),
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(resp.Answer), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(doc)
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field := models.DocumentField(optionalString(req, "field"))
	value := optionalString(req, "value")
	if field == models.FieldPriority {
		p, ok := models.ParsePriority(value)
		if !ok {
			return mcp.NewToolResultError("priority must be high, medium or low"), nil
		}
		value = string(p)
	}

	docs, err := s.docs.List(ctx, field, value)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(docs)
}

func optionalString(req mcp.CallToolRequest, name string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return ""
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", appErr.Kind, appErr.Message))
	}
	return mcp.NewToolResultError(err.Error())
}
