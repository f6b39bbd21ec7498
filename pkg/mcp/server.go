package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/algoscope/internal/engine"
)

// ServerDeps holds the dependencies for creating a Server.
type ServerDeps struct {
	Engine  *engine.Engine
	Logger  *slog.Logger
	Version string
}

// Server wraps an MCP server with the catalog and prediction tool handlers.
type Server struct {
	engine    *engine.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new Server with all 6 tools registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		engine: deps.Engine,
		logger: logger,
	}

	mcpSrv := server.NewMCPServer(
		"algoscope",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Algoscope documents public-sector decision algorithms and simulates them. Use algoscope.list_models to browse model cards, algoscope.get_model and algoscope.schema to inspect one, algoscope.predict to run a simulation, algoscope.sweep to see how one input moves the outputs, and algoscope.facets to list agencies and services."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 6 registered MCP tools as ServerTool entries.
func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: listModelsTool(), Handler: s.handleListModels},
		{Tool: getModelTool(), Handler: s.handleGetModel},
		{Tool: schemaTool(), Handler: s.handleSchema},
		{Tool: predictTool(), Handler: s.handlePredict},
		{Tool: sweepTool(), Handler: s.handleSweep},
		{Tool: facetsTool(), Handler: s.handleFacets},
	}
}

// --- Tool definitions ---

func listModelsTool() mcp.Tool {
	return mcp.NewTool("algoscope.list_models",
		mcp.WithDescription("List model cards, optionally filtered"),
		mcp.WithString("q", mcp.Description("Case-insensitive text matched against name, description, agency and service")),
		mcp.WithString("agency", mcp.Description("Agency substring")),
		mcp.WithString("service", mcp.Description("Service substring")),
		mcp.WithString("where", mcp.Description("Boolean expression evaluated against each card (variable: card)")),
		mcp.WithString("lang", mcp.Enum("cel", "expr", "jq"), mcp.Description("Language of the where expression (default: cel)")),
	)
}

func getModelTool() mcp.Tool {
	return mcp.NewTool("algoscope.get_model",
		mcp.WithDescription("Get one model card"),
		mcp.WithString("model_id", mcp.Required(), mcp.Description("Model card identifier")),
	)
}

func schemaTool() mcp.Tool {
	return mcp.NewTool("algoscope.schema",
		mcp.WithDescription("Get the JSON Schema of a model's inputs"),
		mcp.WithString("model_id", mcp.Required(), mcp.Description("Model card identifier")),
	)
}

func predictTool() mcp.Tool {
	return mcp.NewTool("algoscope.predict",
		mcp.WithDescription("Run a model's simulation on the given inputs"),
		mcp.WithString("model_id", mcp.Required(), mcp.Description("Model card identifier")),
		mcp.WithObject("inputs", mcp.Description("Input values keyed by field name; omitted fields use their declared defaults")),
	)
}

func sweepTool() mcp.Tool {
	return mcp.NewTool("algoscope.sweep",
		mcp.WithDescription("Vary one number input across its declared range and return the outputs at each step"),
		mcp.WithString("model_id", mcp.Required(), mcp.Description("Model card identifier")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Number input to vary")),
		mcp.WithObject("inputs", mcp.Description("Values held fixed for the other inputs")),
		mcp.WithNumber("steps", mcp.Description("Number of evenly spaced points (default: 6)")),
	)
}

func facetsTool() mcp.Tool {
	return mcp.NewTool("algoscope.facets",
		mcp.WithDescription("List the distinct agencies and services in the catalog"),
		mcp.WithString("kind", mcp.Enum("agencies", "services"), mcp.Description("Facet to list (default: both)")),
	)
}
