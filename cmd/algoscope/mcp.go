package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	algomcp "github.com/rendis/algoscope/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	Long: `Runs the MCP server on stdin/stdout. Logs go to stderr.

Tools: algoscope.list_models, algoscope.get_model, algoscope.schema,
algoscope.predict, algoscope.sweep, algoscope.facets.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := algomcp.NewServer(algomcp.ServerDeps{
		Engine:  eng,
		Logger:  logger,
		Version: version,
	})
	return srv.Serve(ctx)
}
