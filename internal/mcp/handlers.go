package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/chatbridge/internal/command"
	"github.com/ziadkadry99/chatbridge/internal/deliveries"
	"github.com/ziadkadry99/chatbridge/internal/vectordb"
)

func (s *Server) handleRouteMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	return mcp.NewToolResultText(command.Route(text).String()), nil
}

func (s *Server) handleQueryBackend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	if s.deps.Responder == nil {
		return mcp.NewToolResultError("backends are not configured"), nil
	}

	cmd := command.Route(text)
	reply, err := s.deps.Responder.Respond(ctx, cmd)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", cmd, err)), nil
	}
	return mcp.NewToolResultText(reply), nil
}

func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	if s.deps.Knowledge == nil {
		return mcp.NewToolResultError("knowledge base is not configured"), nil
	}

	limit := request.GetInt("limit", 3)
	if limit <= 0 {
		limit = 3
	}

	results, err := s.deps.Knowledge.Search(ctx, query, limit, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The knowledge base may not be indexed yet. Run `chatbridge index <dir>` first."), nil
	}
	return mcp.NewToolResultText(vectordb.FormatResults(results)), nil
}

func (s *Server) handleRecentDeliveries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Deliveries == nil {
		return mcp.NewToolResultError("delivery log is not configured"), nil
	}

	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	entries, err := s.deps.Deliveries.Query(ctx, deliveries.QueryFilter{
		Status: deliveries.Status(request.GetString("status", "")),
		Limit:  limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No deliveries recorded."), nil
	}
	return mcp.NewToolResultText(formatDeliveries(entries)), nil
}

func formatDeliveries(entries []deliveries.Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		kind := e.Kind
		if e.Domain != "" {
			kind += "(" + e.Domain + ")"
		}
		fmt.Fprintf(&sb, "%s  %-12s %-6s", e.CreatedAt.Format("2006-01-02 15:04:05"), kind, e.Status)
		if e.Reason != deliveries.ReasonNone {
			fmt.Fprintf(&sb, " reason=%s", e.Reason)
		}
		if e.StatusCode != 0 {
			fmt.Fprintf(&sb, " http=%d", e.StatusCode)
		}
		if e.Preview != "" {
			fmt.Fprintf(&sb, " %q", e.Preview)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
