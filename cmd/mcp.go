package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatbridge/internal/bots"
	"github.com/ziadkadry99/chatbridge/internal/deliveries"
	mcpserver "github.com/ziadkadry99/chatbridge/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server for agent-driven testing",
	Long: `Starts a Model Context Protocol (MCP) server on stdio. Agents can route
messages, query the configured backends, search the knowledge index and
read the deliveries log without sending anything to LINE.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Stdout carries the protocol, so the logger must stay on stderr.
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	backends, store, err := buildBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	deps := mcpserver.Deps{
		Responder:  bots.NewProcessor(backends, nil, nil, logger),
		Deliveries: deliveries.NewStore(database),
	}
	if store != nil {
		deps.Knowledge = store
	}

	mcpserver.Version = Version
	logger.Info("chatbridge MCP server started on stdio", "version", Version)

	if err := mcpserver.NewServer(deps).Serve(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
