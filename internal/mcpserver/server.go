// Package mcpserver exposes document verification as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Novanna/doc-verifier/internal/pipeline"
	"github.com/Novanna/doc-verifier/internal/templates"
)

const serverName = "doc-verifier"

// Server wraps an MCP server bound to a Verifier.
type Server struct {
	verifier  *pipeline.Verifier
	maxBytes  int64
	mcpServer *server.MCPServer
}

// NewServer registers the verification tools. Files larger than maxBytes
// are refused.
func NewServer(v *pipeline.Verifier, maxBytes int64, version string) (*Server, error) {
	if v == nil {
		return nil, fmt.Errorf("verifier cannot be nil")
	}
	s := &Server{
		verifier: v,
		maxBytes: maxBytes,
		mcpServer: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	validateTool := mcp.NewTool(
		"validate_document",
		mcp.WithDescription("Check a BRD, UAT or PVT PDF against its layout template. "+
			"Returns a map of step keys to pass/fail with diagnostics for failed steps."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("doc_type",
			mcp.Required(),
			mcp.Description("Document type: BRD, UAT or PVT"),
		),
		mcp.WithString("request_id",
			mcp.Description("Optional identifier echoed as responseId (generated when empty)"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateDocument)

	templatesTool := mcp.NewTool(
		"list_templates",
		mcp.WithDescription("List the supported document types and the steps each one checks"),
	)
	s.mcpServer.AddTool(templatesTool, s.handleListTemplates)
}

func (s *Server) handleValidateDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docType, err := request.RequireString("doc_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	requestID := ""
	if id, ok := request.GetArguments()["request_id"].(string); ok {
		requestID = id
	}

	data, err := s.readFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.verifier.Verify(ctx, pipeline.Request{
		RequestID: requestID,
		DocType:   docType,
		Filename:  filepath.Base(path),
		Data:      data,
	})
	if errors.Is(err, templates.ErrUnsupported) {
		return mcp.NewToolResultError("unsupported document type"), nil
	}
	if errors.Is(err, pipeline.ErrBusy) {
		return mcp.NewToolResultError("server busy, retry later"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type entry struct {
		ID    string           `json:"id"`
		Name  string           `json:"name"`
		Steps []templates.Step `json:"steps"`
	}
	var out []entry
	for _, t := range s.verifier.Templates() {
		out = append(out, entry{ID: t.ID, Name: t.Name, Steps: t.Steps()})
	}
	return jsonResult(out)
}

func (s *Server) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return nil, fmt.Errorf("file exceeds max size (%d bytes)", s.maxBytes)
	}
	return os.ReadFile(path)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// Serve runs the MCP protocol on stdin/stdout until the input closes.
func (s *Server) Serve() error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
