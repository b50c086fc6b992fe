// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the documentation cache tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/docctx/internal/service"
)

// FormatURI is the resource URI of the document format contract.
const FormatURI = "docctx://document-format"

// Server wraps the MCP server with documentation cache tools.
type Server struct {
	mcp *server.MCPServer
	svc *service.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *service.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"docctx",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("context_status",
		mcp.WithDescription("Validate every context document against the source files it references. "+
			"Reports each document as valid, stale or orphaned, with the references that changed or disappeared."),
		mcp.WithBoolean("invalid_only", mcp.Description("Only list stale and orphaned documents")),
	), s.status)

	s.mcp.AddTool(mcp.NewTool("context_sync",
		mcp.WithDescription("Refresh the stored fingerprints of one document, or of every document when path is empty. "+
			"Call this after updating a document to match the code it describes."),
		mcp.WithString("path", mcp.Description("Document path relative to the project or documentation root (empty for all)")),
		mcp.WithBoolean("discover", mcp.Description("Also add existing files mentioned in inline code spans as references")),
	), s.sync)

	s.mcp.AddTool(mcp.NewTool("context_find",
		mcp.WithDescription("Find the context documents that reference the given source files."),
		mcp.WithArray("paths", mcp.Required(),
			mcp.Description("Project-relative source paths"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.find)

	s.mcp.AddTool(mcp.NewTool("context_search",
		mcp.WithDescription("Substring search through context document bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Literal text to search for")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of matches (0 for all)")),
		mcp.WithBoolean("case_sensitive", mcp.Description("Match case exactly")),
	), s.search)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List every context document with its slug, description and references."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the context document format contract. "+
			"Call this before writing or editing documents to ensure correct structure."),
	), s.getDocumentContract)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource(FormatURI, "Document Format Contract",
			mcp.WithResourceDescription("Frontmatter and reference format every context document follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) status(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Status(ctx, req.GetBool("invalid_only", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) sync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.svc.Sync(ctx, service.SyncRequest{
		Path:     req.GetString("path", ""),
		Discover: req.GetBool("discover", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) find(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths, err := req.RequireStringSlice("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Find(ctx, service.FindRequest{Paths: paths})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Search(ctx, service.SearchRequest{
		Query:         query,
		Limit:         req.GetInt("limit", 0),
		CaseSensitive: req.GetBool("case_sensitive", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(res) == 0 {
		return mcp.NewToolResultText("no matches found"), nil
	}
	return jsonResult(res)
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.Documents(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
