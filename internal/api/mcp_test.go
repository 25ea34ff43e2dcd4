package api

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/document"
)

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestNewMCPServer(t *testing.T) {
	if s := NewMCPServer(MCPDeps{Renderer: &mockRenderer{}}); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}

func TestMCPTool_Normalize(t *testing.T) {
	handler := mcpNormalize()
	req := makeCallToolRequest("normalize_document", map[string]interface{}{
		"document": `{"name":"Ada","skills":[{"category":"","bullets":["","  "]}]}`,
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var out struct {
		Document    document.Document `json:"document"`
		Diagnostics []string          `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &out); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if out.Document.Name != "Ada" {
		t.Errorf("name = %q, want Ada", out.Document.Name)
	}
	if len(out.Document.Skills) != 1 || len(out.Document.Skills[0].Bullets) != 0 || len(out.Document.Skills[0].ShowOn) != 2 {
		t.Errorf("skills = %+v", out.Document.Skills)
	}
	if len(out.Diagnostics) == 0 {
		t.Error("expected diagnostics for blank bullets and missing show_on")
	}
}

func TestMCPTool_Normalize_InvalidJSON(t *testing.T) {
	handler := mcpNormalize()
	req := makeCallToolRequest("normalize_document", map[string]interface{}{"document": `{"name":`})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error for invalid JSON")
	}
	if !strings.Contains(toolText(t, result), "invalid JSON") {
		t.Errorf("text = %q", toolText(t, result))
	}
}

func TestMCPTool_Normalize_MissingArgument(t *testing.T) {
	result, err := mcpNormalize()(context.Background(), makeCallToolRequest("normalize_document", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error without document")
	}
}

func TestMCPTool_Clean(t *testing.T) {
	handler := mcpClean()
	req := makeCallToolRequest("clean_document", map[string]interface{}{
		"document": `{"links":[{"label":"","url":"  "}],"contact":["a@b.c",""]}`,
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var doc document.Document
	if err := json.Unmarshal([]byte(toolText(t, result)), &doc); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if len(doc.Links) != 0 {
		t.Errorf("links = %+v, want none", doc.Links)
	}
	if len(doc.Contact) != 1 || doc.Contact[0] != "a@b.c" {
		t.Errorf("contact = %q", doc.Contact)
	}
}

func TestMCPTool_GetLatex(t *testing.T) {
	rend := &mockRenderer{latex: `\documentclass{article}`}
	handler := mcpGetLatex(MCPDeps{Renderer: rend})

	req := makeCallToolRequest("get_latex", map[string]interface{}{
		"document": `{"name":"Ada"}`,
		"type":     "cv",
	})
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	if got := toolText(t, result); got != `\documentclass{article}` {
		t.Errorf("latex = %q", got)
	}
	if rend.lastType() != "cv" || rend.lastDoc().Name != "Ada" {
		t.Errorf("renderer got %q / %+v", rend.lastType(), rend.lastDoc())
	}
}

func TestMCPTool_GetLatex_InvalidType(t *testing.T) {
	rend := &mockRenderer{}
	handler := mcpGetLatex(MCPDeps{Renderer: rend})

	result, err := handler(context.Background(), makeCallToolRequest("get_latex", map[string]interface{}{
		"document": `{}`,
		"type":     "pdf",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error for an invalid type")
	}
	if rend.calls.Load() != 0 {
		t.Error("invalid type reached the renderer")
	}
}

func TestMCPTool_GetLatex_UpstreamError(t *testing.T) {
	rend := &mockRenderer{err: &backend.UpstreamError{Op: "get_tex", Status: 500, Details: "boom"}}
	result, err := mcpGetLatex(MCPDeps{Renderer: rend})(context.Background(), makeCallToolRequest("get_latex", map[string]interface{}{
		"document": `{}`,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(toolText(t, result), "boom") {
		t.Errorf("result = %+v", result)
	}
}

func TestMCPTool_BackendHealth(t *testing.T) {
	tests := []struct {
		name string
		rend *mockRenderer
		want string
	}{
		{"healthy", &mockRenderer{report: backend.HealthReport{Status: "healthy", Body: []byte(`{"status":"healthy"}`)}}, "healthy"},
		{"degraded", &mockRenderer{report: backend.HealthReport{Status: "degraded", Body: []byte(`{"status":"degraded"}`)}}, "unhealthy"},
		{"down", &mockRenderer{healthErr: &backend.UpstreamError{Op: "health", Status: 500}}, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := mcpBackendHealth(MCPDeps{Renderer: tt.rend})(context.Background(), makeCallToolRequest("backend_health", nil))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := toolText(t, result); !strings.HasPrefix(got, tt.want) {
				t.Errorf("text = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestMCPResource_Templates(t *testing.T) {
	for uri, build := range map[string]func() document.Document{
		"texcv://sample": document.Sample,
		"texcv://blank":  document.Blank,
	} {
		contents, err := mcpResourceDocument(build)(context.Background(), makeReadResourceRequest(uri))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", uri, err)
		}
		if len(contents) != 1 {
			t.Fatalf("%s: expected 1 content, got %d", uri, len(contents))
		}
		tc, ok := contents[0].(mcp.TextResourceContents)
		if !ok {
			t.Fatalf("expected TextResourceContents, got %T", contents[0])
		}
		if tc.URI != uri || tc.MIMEType != "application/json" {
			t.Errorf("contents = %+v", tc)
		}
		var doc document.Document
		if err := json.Unmarshal([]byte(tc.Text), &doc); err != nil {
			t.Fatalf("%s: failed to parse JSON: %v", uri, err)
		}
		if doc.Name != build().Name {
			t.Errorf("%s: name = %q", uri, doc.Name)
		}
	}
}

func TestMCPServer_ConcurrentCalls(t *testing.T) {
	rend := &mockRenderer{latex: "x"}
	cleanHandler := mcpClean()
	latexHandler := mcpGetLatex(MCPDeps{Renderer: rend})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := cleanHandler(context.Background(), makeCallToolRequest("clean_document", map[string]interface{}{"document": `{}`})); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := latexHandler(context.Background(), makeCallToolRequest("get_latex", map[string]interface{}{"document": `{}`})); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent call failed: %v", err)
	}
	if n := rend.calls.Load(); n != 10 {
		t.Errorf("renderer calls = %d, want 10", n)
	}
}
