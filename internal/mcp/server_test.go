package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/chatbridge/internal/command"
	"github.com/ziadkadry99/chatbridge/internal/deliveries"
	"github.com/ziadkadry99/chatbridge/internal/vectordb"
)

// mockResponder echoes the routed command.
type mockResponder struct {
	err  error
	last command.Command
}

func (m *mockResponder) Respond(_ context.Context, cmd command.Command) (string, error) {
	m.last = cmd
	if m.err != nil {
		return "", m.err
	}
	return "reply to " + cmd.Payload, nil
}

// mockStore implements vectordb.VectorStore for testing.
type mockStore struct {
	docs []vectordb.Document
}

func (m *mockStore) AddDocuments(_ context.Context, docs []vectordb.Document) error {
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *mockStore) Search(_ context.Context, query string, limit int, _ *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	var results []vectordb.SearchResult
	for _, doc := range m.docs {
		if !strings.Contains(doc.Content, query) {
			continue
		}
		results = append(results, vectordb.SearchResult{Document: doc, Similarity: 0.95})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (m *mockStore) DeleteBySource(_ context.Context, _ string) error { return nil }
func (m *mockStore) Persist(_ context.Context, _ string) error        { return nil }
func (m *mockStore) Load(_ context.Context, _ string) error           { return nil }
func (m *mockStore) Count() int                                       { return len(m.docs) }

// mockDeliveries returns fixed entries filtered by status.
type mockDeliveries struct {
	entries []deliveries.Entry
	filter  deliveries.QueryFilter
}

func (m *mockDeliveries) Query(_ context.Context, f deliveries.QueryFilter) ([]deliveries.Entry, error) {
	m.filter = f
	var out []deliveries.Entry
	for _, e := range m.entries {
		if f.Status == "" || e.Status == f.Status {
			out = append(out, e)
		}
	}
	return out, nil
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String(), result.IsError
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool     mcp.Tool
		wantName string
	}{
		{routeMessageTool, "route_message"},
		{queryBackendTool, "query_backend"},
		{searchKnowledgeTool, "search_knowledge"},
		{recentDeliveriesTool, "recent_deliveries"},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := NewServer(Deps{})
	if srv == nil || srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleRouteMessage(t *testing.T) {
	srv := NewServer(Deps{})

	out, isErr := call(t, srv.handleRouteMessage, map[string]any{"text": "#レシピ カレー"})
	if isErr || out != `domain(recipe) "カレー"` {
		t.Errorf("route_message = %q (error %v)", out, isErr)
	}

	if _, isErr := call(t, srv.handleRouteMessage, map[string]any{}); !isErr {
		t.Error("expected error for missing text")
	}
}

func TestHandleQueryBackend(t *testing.T) {
	responder := &mockResponder{}
	srv := NewServer(Deps{Responder: responder})

	out, isErr := call(t, srv.handleQueryBackend, map[string]any{"text": "pro: hello"})
	if isErr || out != "reply to hello" {
		t.Errorf("query_backend = %q (error %v)", out, isErr)
	}
	if responder.last.Kind != command.KindAI || !responder.last.Pro {
		t.Errorf("unexpected routed command: %+v", responder.last)
	}

	responder.err = errors.New("quota exceeded")
	out, isErr = call(t, srv.handleQueryBackend, map[string]any{"text": "ai: x"})
	if !isErr || !strings.Contains(out, "quota exceeded") {
		t.Errorf("expected backend error, got %q", out)
	}

	if _, isErr := call(t, NewServer(Deps{}).handleQueryBackend, map[string]any{"text": "x"}); !isErr {
		t.Error("expected error without responder")
	}
}

func TestHandleSearchKnowledge(t *testing.T) {
	store := &mockStore{docs: []vectordb.Document{
		{ID: "1", Content: "chicken curry with rice", Metadata: vectordb.DocumentMetadata{Title: "Curry"}},
		{ID: "2", Content: "miso soup", Metadata: vectordb.DocumentMetadata{Title: "Miso"}},
	}}
	srv := NewServer(Deps{Knowledge: store})

	out, isErr := call(t, srv.handleSearchKnowledge, map[string]any{"query": "curry"})
	if isErr || !strings.Contains(out, "Curry") || strings.Contains(out, "Miso") {
		t.Errorf("search_knowledge = %q", out)
	}

	out, isErr = call(t, srv.handleSearchKnowledge, map[string]any{"query": "pizza"})
	if isErr || !strings.Contains(out, "No results found") {
		t.Errorf("empty search = %q (error %v)", out, isErr)
	}

	if _, isErr := call(t, srv.handleSearchKnowledge, map[string]any{}); !isErr {
		t.Error("expected error for missing query")
	}
	if _, isErr := call(t, NewServer(Deps{}).handleSearchKnowledge, map[string]any{"query": "x"}); !isErr {
		t.Error("expected error without knowledge base")
	}
}

func TestHandleRecentDeliveries(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	log := &mockDeliveries{entries: []deliveries.Entry{
		{Kind: "echo", Status: deliveries.StatusSent, Preview: "hi", CreatedAt: at},
		{Kind: "domain", Domain: "inventory", Status: deliveries.StatusFailed, Reason: deliveries.ReasonRejected, StatusCode: 400, CreatedAt: at},
	}}
	srv := NewServer(Deps{Deliveries: log})

	out, isErr := call(t, srv.handleRecentDeliveries, map[string]any{"status": "failed", "limit": 5})
	if isErr {
		t.Fatalf("unexpected tool error: %s", out)
	}
	if !strings.Contains(out, "domain(inventory)") || !strings.Contains(out, "reason=rejected") || !strings.Contains(out, "http=400") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, `"hi"`) {
		t.Errorf("status filter ignored:\n%s", out)
	}
	if log.filter.Limit != 5 {
		t.Errorf("limit = %d, want 5", log.filter.Limit)
	}

	out, _ = call(t, NewServer(Deps{Deliveries: &mockDeliveries{}}).handleRecentDeliveries, map[string]any{})
	if out != "No deliveries recorded." {
		t.Errorf("empty log = %q", out)
	}
}
