// Package main implements the Spark History MCP (Model Context Protocol) server.
//
// The server exposes read-only analytical tools over one or more Spark
// History Server instances: job/stage/executor/environment/SQL inspection,
// slowest-N rankings, bottleneck detection, and cross-application
// comparisons.
//
// The server communicates using the MCP protocol over stdio, making it
// compatible with Claude Desktop and other MCP clients.
//
// Configuration comes from a YAML file and/or environment variables:
//   - SHS_CONFIG_FILE: path to a YAML config with named history servers
//   - SHS_SERVER_URL: URL of the default Spark History Server (e.g. http://localhost:18080)
//   - SHS_TOKEN / SHS_USERNAME / SHS_PASSWORD: optional credentials
//   - ENVIRONMENT: set to "production" for production logging
//
// Example usage:
//
//	export SHS_SERVER_URL="http://localhost:18080"
//	./spark-history-mcp
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/config"
	"github.com/sparkmcp/spark-history-mcp/internal/server"
)

// Build information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
	builtBy = "manual"
)

func main() {
	// Load .env file if it exists (optional, for development)
	_ = godotenv.Load()

	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	defaultName, _ := cfg.DefaultServer()
	logger.Info("Starting Spark History MCP Server",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("built_by", builtBy),
		zap.Int("servers", len(cfg.Servers)),
		zap.String("default_server", defaultName),
	)

	mcpServer, err := server.New(cfg, logger, version)
	if err != nil {
		logger.Fatal("Failed to create MCP server", zap.Error(err))
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- mcpServer.Start(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
		cancel()
		return
	}

	logger.Info("Initiating graceful shutdown", zap.Duration("timeout", cfg.ShutdownTimeout))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case <-serverDone:
		logger.Info("Server shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout exceeded, forcing exit",
			zap.Duration("timeout", cfg.ShutdownTimeout))
	}

	// Allow a brief moment for final cleanup
	time.Sleep(100 * time.Millisecond)
}

// initLogger returns a production logger when ENVIRONMENT=production,
// otherwise a development logger with more verbose output.
func initLogger() (*zap.Logger, error) {
	if os.Getenv("ENVIRONMENT") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
