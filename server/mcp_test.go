package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/uniparse/uniparse/docstore"
	"github.com/uniparse/uniparse/extract"
)

var testMCPImpl = &mcp.Implementation{Name: "uniparse-test", Version: "0.1.0"}

func mcpSession(t *testing.T) (*mcp.ClientSession, docstore.Store) {
	t.Helper()
	store := docstore.NewMemStore(docstore.Config{})
	pipe := extract.NewPipeline(store, extract.Config{})
	svc := New(store, pipe, Config{})
	srv := svc.NewMCPServer()

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session, store
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	// Tool-level failures arrive as IsError with the message in Content;
	// the result's err field never crosses the wire to clients.
	if result.IsError {
		t.Fatalf("CallTool(%s) tool error: %v", name, result.Content)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_Formats(t *testing.T) {
	session, _ := mcpSession(t)

	text := mcpCallTool(t, session, "uniparse_formats", map[string]any{})

	var resp struct {
		Kinds []string `json:"kinds"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	expected := map[string]bool{"pdf": true, "excel": true, "csv": true, "docx": true, "html": true}
	if len(resp.Kinds) != len(expected) {
		t.Fatalf("kinds = %v", resp.Kinds)
	}
	for _, k := range resp.Kinds {
		if !expected[k] {
			t.Errorf("unexpected kind %q", k)
		}
	}
}

func TestMCP_Classify(t *testing.T) {
	session, _ := mcpSession(t)

	text := mcpCallTool(t, session, "uniparse_classify", map[string]any{"filename": "Budget.XLSX"})

	var resp struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Kind != string(docstore.KindExcel) {
		t.Fatalf("kind = %q, want excel", resp.Kind)
	}
}

func TestMCP_Parse(t *testing.T) {
	session, store := mcpSession(t)

	doc, err := store.Put(context.Background(), "orders.csv", "text/csv", []byte("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	text := mcpCallTool(t, session, "uniparse_parse", map[string]any{"id": doc.ID})

	var resp struct {
		Markdown string `json:"markdown"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(resp.Markdown, "| 1 | 2 |") {
		t.Fatalf("markdown = %q", resp.Markdown)
	}
}

func TestMCP_ParseUnknownID(t *testing.T) {
	session, _ := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "uniparse_parse",
		Arguments: map[string]any{"id": "no-such-id"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for unknown document id")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent error payload, got %T", result.Content[0])
	}
	if !strings.Contains(tc.Text, "not found") {
		t.Fatalf("error text = %q, want mention of not found", tc.Text)
	}
}
