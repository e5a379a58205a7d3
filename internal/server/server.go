// Package server provides the MCP server implementation for Spark History analysis.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/config"
	"github.com/sparkmcp/spark-history-mcp/internal/health"
	"github.com/sparkmcp/spark-history-mcp/internal/metrics"
	"github.com/sparkmcp/spark-history-mcp/internal/spark"
	"github.com/sparkmcp/spark-history-mcp/internal/tools"
	"github.com/sparkmcp/spark-history-mcp/internal/tracing"
)

// Server represents the MCP server
type Server struct {
	mcpServer    *mcp.Server
	registry     *spark.Registry
	config       *config.Config
	logger       *zap.Logger
	metrics      *metrics.Metrics
	version      string
	healthServer *health.Server
	otelShutdown func(context.Context) error
}

// New creates a new MCP server instance.
func New(cfg *config.Config, logger *zap.Logger, version string) (*Server, error) {
	registry, err := spark.NewRegistry(cfg, logger, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create history server clients: %w", err)
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "Spark History MCP Server",
		Version: version,
	}, &mcp.ServerOptions{
		HasTools: true,
	})

	otelShutdown, err := tracing.InitOTel(tracing.OTelConfig{
		ServiceName:    "spark-history-mcp",
		ServiceVersion: version,
		Enabled:        cfg.EnableTracing,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	s := &Server{
		mcpServer:    mcpServer,
		registry:     registry,
		config:       cfg,
		logger:       logger,
		metrics:      metrics.New(logger),
		version:      version,
		otelShutdown: otelShutdown,
	}
	registry.SetRecorder(s.metrics)

	// Health server only when a port is configured
	if cfg.HealthPort > 0 {
		healthChecker := health.New(registry, logger)
		s.healthServer = health.NewServer(healthChecker, logger, cfg.HealthPort, cfg.HealthBindAddr, cfg.MetricsEndpoint)
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Application and job inspection tools
	s.registerTool(tools.NewListApplicationsTool(s.registry, s.logger))
	s.registerTool(tools.NewGetApplicationTool(s.registry, s.logger))
	s.registerTool(tools.NewListJobsTool(s.registry, s.logger))

	// Stage tools
	s.registerTool(tools.NewListStagesTool(s.registry, s.logger))
	s.registerTool(tools.NewGetStageTool(s.registry, s.logger))
	s.registerTool(tools.NewGetStageTaskSummaryTool(s.registry, s.logger))
	s.registerTool(tools.NewListStageTasksTool(s.registry, s.logger))

	// Executor tools
	s.registerTool(tools.NewListExecutorsTool(s.registry, s.logger))
	s.registerTool(tools.NewGetExecutorTool(s.registry, s.logger))
	s.registerTool(tools.NewGetExecutorSummaryTool(s.registry, s.logger))

	// Environment and SQL tools
	s.registerTool(tools.NewGetEnvironmentTool(s.registry, s.logger))
	s.registerTool(tools.NewListSQLExecutionsTool(s.registry, s.logger))

	// Ranking tools
	s.registerTool(tools.NewListSlowestJobsTool(s.registry, s.logger))
	s.registerTool(tools.NewListSlowestStagesTool(s.registry, s.logger))
	s.registerTool(tools.NewListSlowestSQLQueriesTool(s.registry, s.logger))

	// Analysis tools
	s.registerTool(tools.NewGetJobBottlenecksTool(s.registry, s.logger))
	s.registerTool(tools.NewGetResourceUsageTimelineTool(s.registry, s.logger))

	// Comparison tools
	s.registerTool(tools.NewCompareAppPerformanceTool(s.registry, s.logger))
	s.registerTool(tools.NewCompareAppEnvironmentsTool(s.registry, s.logger))
	s.registerTool(tools.NewCompareSQLPlansTool(s.registry, s.logger))

	s.logger.Info("Registered all MCP tools")
}

// registerTool registers one tool, wrapping its Execute with metrics and
// optional tracing.
func (s *Server) registerTool(t tools.Tool) {
	toolName := t.Name()

	mcpTool := &mcp.Tool{
		Name:        toolName,
		Description: t.Description(),
		InputSchema: t.InputSchema(),
		Annotations: t.Annotations(),
	}

	handler := func(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		ctx, span := tracing.ToolSpan(ctx, toolName)
		defer span.End()

		if timeout := t.DefaultTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		var args map[string]interface{}
		if len(request.Params.Arguments) > 0 {
			if err := json.Unmarshal(request.Params.Arguments, &args); err != nil {
				s.metrics.RecordToolExecution(toolName, false, time.Since(start))
				return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
			}
		}

		result, err := t.Execute(ctx, args)
		success := err == nil && (result == nil || !result.IsError)
		s.metrics.RecordToolExecution(toolName, success, time.Since(start))

		if err != nil {
			tracing.RecordError(span, err)
		} else if success {
			tracing.SetSuccess(span)
		}

		return result, err
	}

	s.mcpServer.AddTool(mcpTool, handler)
	s.logger.Debug("Registered tool", zap.String("tool", mcpTool.Name))
}

// Start starts the MCP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server")

	if s.healthServer != nil {
		go func() {
			if err := s.healthServer.Start(); err != nil {
				s.logger.Error("Health server error", zap.Error(err))
			}
		}()
		s.healthServer.SetReady(true)
	}

	defer func() {
		s.metrics.LogStats()

		if s.healthServer != nil {
			s.healthServer.SetReady(false)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.healthServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("Failed to shutdown health server", zap.Error(err))
			}
		}

		if s.otelShutdown != nil {
			if err := s.otelShutdown(context.Background()); err != nil {
				s.logger.Error("Failed to shutdown tracing", zap.Error(err))
			}
		}

		if err := s.registry.Close(); err != nil {
			s.logger.Error("Failed to close history server clients", zap.Error(err))
		}
	}()

	// Serve over stdio
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// GetMetrics returns the server's metrics tracker for external access
func (s *Server) GetMetrics() *metrics.Metrics {
	return s.metrics
}
