package tools

import (
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// BaseTool provides common functionality shared by all tools: client
// resolution for multi-server setups and response formatting.
type BaseTool struct {
	registry *spark.Registry
	logger   *zap.Logger
}

// NewBaseTool creates a BaseTool with the given client registry and logger.
func NewBaseTool(registry *spark.Registry, logger *zap.Logger) *BaseTool {
	return &BaseTool{
		registry: registry,
		logger:   logger,
	}
}

// DefaultTimeout returns 0 to use the server default timeout.
func (b *BaseTool) DefaultTimeout() time.Duration {
	return 0
}

// ResolveClient picks the history server client for this call. The optional
// "server" argument selects a named server; otherwise the default is used.
func (b *BaseTool) ResolveClient(arguments map[string]interface{}) (*spark.Client, error) {
	name, err := GetStringParam(arguments, "server", false)
	if err != nil {
		return nil, err
	}
	return b.registry.Get(name)
}

// JSONResult renders v as an indented JSON text result.
func (b *BaseTool) JSONResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		b.logger.Error("Failed to marshal tool result", zap.Error(err))
		return NewToolResultError("failed to render result: " + err.Error()), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

// serverProperty is the shared schema fragment for the optional server
// selector every tool accepts.
func serverProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Name of the configured history server to query (defaults to the default server)",
	}
}

// appIDProperty is the shared schema fragment for the application id.
func appIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "The Spark application ID (e.g. spark-1234567890abcdef or application_1234_5678)",
	}
}
