package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/auditgate/internal/engine"
	"github.com/ppiankov/auditgate/internal/metrics"
)

// Config holds MCP server configuration.
type Config struct {
	PolicyPath string
	AgentName  string
	Version    string
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Server wraps the MCP SDK server with the audit boundary.
type Server struct {
	mcpServer *mcpsdk.Server
	eng       *engine.Engine
	logger    *slog.Logger
}

// New creates an MCP server with the policy loaded and tools registered.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	eng, err := engine.Load(engine.Config{
		PolicyPath: cfg.PolicyPath,
		AgentName:  cfg.AgentName,
		Logger:     cfg.Logger,
		Metrics:    cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{eng: eng, logger: cfg.Logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "auditgate",
			Version: cfg.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer s.eng.Alerts.Wait()
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all auditgate tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "auditgate_check",
		Description: "Audit a task against the configured principles without running it (dry-run).",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "auditgate_dispatch",
		Description: "Run an agent operation through the audit boundary. Blocked tasks return an error result with the reason.",
	}, s.handleDispatch)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "auditgate_principles",
		Description: "List the principles tasks are audited against and their mandates.",
	}, s.handlePrinciples)
}
