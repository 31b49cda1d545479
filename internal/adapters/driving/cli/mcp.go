package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Schneison/unima/internal/adapters/driving/mcp"
	"github.com/Schneison/unima/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  unima mcp serve

  # HTTP mode
  unima mcp serve --port 8080

  # Sync all modules every hour while serving
  unima mcp serve --sync-interval 1h

Client configuration:
  {
    "mcpServers": {
      "unima": {
        "command": "/path/to/unima",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Duration("sync-interval", 0, "sync all modules periodically (0 = never)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	interval, err := cmd.Flags().GetDuration("sync-interval")
	if err != nil {
		return fmt.Errorf("getting sync-interval flag: %w", err)
	}
	if contentEngine == nil || memberService == nil {
		return errors.New("content engine and member service not configured")
	}

	ports := &mcp.Ports{
		Content:    contentEngine,
		Members:    memberService,
		Controller: resourceController,
		Downloads:  downloadService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if interval > 0 && newScheduler != nil {
		scheduler := newScheduler(interval)
		go func() {
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Scheduler stopped: %v", err)
			}
		}()
		defer scheduler.Stop() //nolint:errcheck
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
