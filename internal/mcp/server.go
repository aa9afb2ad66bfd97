package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/chatbridge/internal/command"
	"github.com/ziadkadry99/chatbridge/internal/deliveries"
	"github.com/ziadkadry99/chatbridge/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Responder produces the reply text for a routed command without sending it.
type Responder interface {
	Respond(ctx context.Context, cmd command.Command) (string, error)
}

// DeliveryQuerier reads recorded reply attempts.
type DeliveryQuerier interface {
	Query(ctx context.Context, filter deliveries.QueryFilter) ([]deliveries.Entry, error)
}

// Deps are the bridge components the tools exercise. Any may be nil; the
// matching tool then reports that it is unavailable.
type Deps struct {
	Responder  Responder
	Knowledge  vectordb.VectorStore
	Deliveries DeliveryQuerier
}

// Server wraps an MCP server that lets an agent drive the bridge's routing
// and backends without a messaging platform.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(deps Deps) *Server {
	s := &Server{deps: deps}

	s.mcp = server.NewMCPServer(
		"chatbridge",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(routeMessageTool, s.handleRouteMessage)
	s.mcp.AddTool(queryBackendTool, s.handleQueryBackend)
	s.mcp.AddTool(searchKnowledgeTool, s.handleSearchKnowledge)
	s.mcp.AddTool(recentDeliveriesTool, s.handleRecentDeliveries)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
