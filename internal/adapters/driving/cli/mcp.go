package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	codebookfile "github.com/custodia-labs/annotator/internal/adapters/driven/codebook/file"
	"github.com/custodia-labs/annotator/internal/adapters/driving/mcp"
	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an assistant can code units.

By default, the server communicates over stdio using JSON-RPC. Use --port
to serve over HTTP instead, for example to test with MCP Inspector.

A codebook file set with codebook.path is watched while the server runs;
edits take effect the next time a unit is opened.

Examples:
  # Stdio mode (default)
  annotator mcp serve

  # HTTP mode
  annotator mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if codingService == nil {
		return errors.New("coding service not configured")
	}

	ports := &mcp.Ports{
		Coding: codingService,
		Unit:   unitService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if store, ok := codebookStore.(*codebookfile.Store); ok {
		watcher, err := codebookfile.NewWatcher(store, func(cb *domain.Codebook, err error) {
			if err != nil {
				return
			}
			logger.Info("codebook now has %d questions and %d variables", len(cb.Questions), len(cb.Variables))
		})
		if err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
		if err := watcher.Start(cmd.Context()); err != nil {
			logger.Warn("codebook will not be reloaded: %v", err)
		}
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
