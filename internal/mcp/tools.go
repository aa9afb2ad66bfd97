package mcp

import "github.com/mark3labs/mcp-go/mcp"

var routeMessageTool = mcp.NewTool("route_message",
	mcp.WithDescription("Show which command a chat message is routed to: echo, ai (optionally pro) or a domain lookup, with the extracted payload."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Message text exactly as a user would send it"),
	),
)

var queryBackendTool = mcp.NewTool("query_backend",
	mcp.WithDescription("Route a chat message and run the selected backend. Returns the reply text that would be sent; nothing is delivered."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Message text exactly as a user would send it"),
	),
)

var searchKnowledgeTool = mcp.NewTool("search_knowledge",
	mcp.WithDescription("Semantic search over the indexed knowledge documents used by the recipe lookup."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 3)"),
	),
)

var recentDeliveriesTool = mcp.NewTool("recent_deliveries",
	mcp.WithDescription("List recent reply attempts, newest first."),
	mcp.WithString("status",
		mcp.Description("Only return attempts with this outcome"),
		mcp.Enum("sent", "failed"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 20)"),
	),
)
