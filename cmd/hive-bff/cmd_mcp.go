package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	hivemcp "github.com/hivehq/hive-bff/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  get_dents   — fetch the content aggregate for a contact, tile, or member
  get_counts  — fetch only the per-kind item counts

If the upstream API is unavailable, tool calls return the empty aggregate
the same way the HTTP routes do.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			fetcher := newFetcher(logger)
			srv := hivemcp.NewServer(fetcher, logger)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: hive-bff MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
