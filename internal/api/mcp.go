package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/document"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Renderer Renderer
	Version  string
}

// NewMCPServer creates an MCP server with the texcv tools and resources.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"texcv",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("texcv: build résumé/CV documents as JSON, normalize and clean them, and fetch LaTeX source from the rendering backend."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("normalize_document",
			mcp.WithDescription("Coerce arbitrary JSON into the canonical résumé document shape. Returns the document and a list of coercions applied."),
			mcp.WithString("document", mcp.Description("Document JSON text"), mcp.Required()),
		),
		mcpNormalize(),
	)

	s.AddTool(
		mcp.NewTool("clean_document",
			mcp.WithDescription("Normalize a document, then drop empty contacts, links, education rows, bullets and entries the way a render request does."),
			mcp.WithString("document", mcp.Description("Document JSON text"), mcp.Required()),
		),
		mcpClean(),
	)

	s.AddTool(
		mcp.NewTool("get_latex",
			mcp.WithDescription("Generate LaTeX source for a document using the rendering backend."),
			mcp.WithString("document", mcp.Description("Document JSON text"), mcp.Required()),
			mcp.WithString("type", mcp.Description("resume or cv (default resume)")),
		),
		mcpGetLatex(deps),
	)

	s.AddTool(
		mcp.NewTool("backend_health",
			mcp.WithDescription("Report whether the rendering backend is reachable and healthy."),
		),
		mcpBackendHealth(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"texcv://sample",
			"Sample Document",
			mcp.WithResourceDescription("Built-in example résumé as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceDocument(document.Sample),
	)

	s.AddResource(
		mcp.NewResource(
			"texcv://blank",
			"Blank Document",
			mcp.WithResourceDescription("Empty form with one row in every section"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceDocument(document.Blank),
	)

	return s
}

func mcpNormalize() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("document")
		if err != nil {
			return mcpError("document is required"), nil
		}
		v, err := document.Parse([]byte(raw))
		if err != nil {
			return mcpError(err.Error()), nil
		}
		diags, err := document.Diagnose(v)
		if err != nil {
			return mcpError(fmt.Sprintf("schema check failed: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{
			"document":    document.Normalize(v),
			"diagnostics": diags,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal document: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpClean() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("document")
		if err != nil {
			return mcpError("document is required"), nil
		}
		doc, err := document.Import([]byte(raw))
		if err != nil {
			return mcpError(err.Error()), nil
		}

		b, err := json.Marshal(document.Clean(doc))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal document: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetLatex(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("document")
		if err != nil {
			return mcpError("document is required"), nil
		}
		docType := req.GetString("type", string(backend.Resume))
		if _, err := backend.ParseDocType(docType); err != nil {
			return mcpError(err.Error()), nil
		}
		doc, err := document.Import([]byte(raw))
		if err != nil {
			return mcpError(err.Error()), nil
		}

		src, err := deps.Renderer.RequestSource(ctx, doc, docType)
		if err != nil {
			return mcpError(fmt.Sprintf("get_latex failed: %v", err)), nil
		}
		return mcpText(src), nil
	}
}

func mcpBackendHealth(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := deps.Renderer.Health(ctx)
		if err != nil {
			return mcpText(fmt.Sprintf("unhealthy: %v", err)), nil
		}
		if !report.Healthy() {
			return mcpText(fmt.Sprintf("unhealthy: backend reported %s", string(report.Body))), nil
		}
		return mcpText("healthy"), nil
	}
}

func mcpResourceDocument(build func() document.Document) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.MarshalIndent(build(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
