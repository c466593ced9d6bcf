package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/mcp"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve [stage]",
	Short: "Start the MCP server for a stage",
	Long: `Start a Model Context Protocol server that lets AI assistants browse a
stage: list children and properties, resolve opinions and sample values.

By default the server communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead. HTTP mode also serves
Prometheus metrics for the resolution cache on /metrics.

Examples:
  # Stdio mode
  usdinspect mcp serve shot.yaml

  # HTTP mode
  usdinspect mcp serve shot.yaml --port 8080`,
	Args: cobra.ExactArgs(1),
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	return withStage(cmd.Context(), args[0], func(stage driving.StageService) error {
		ports := &mcp.Ports{Stage: stage}
		if metrics != nil {
			ports.Metrics = metrics
		}

		server, err := mcp.NewServer(ports)
		if err != nil {
			return err
		}

		if mcpPort > 0 {
			addr := fmt.Sprintf(":%d", mcpPort)
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(cmd.Context(), addr)
		}
		return server.Run(cmd.Context())
	})
}
