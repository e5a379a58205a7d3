package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// GetEnvironmentTool retrieves the environment snapshot of an application
type GetEnvironmentTool struct {
	*BaseTool
}

// NewGetEnvironmentTool creates a new tool instance
func NewGetEnvironmentTool(registry *spark.Registry, logger *zap.Logger) *GetEnvironmentTool {
	return &GetEnvironmentTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *GetEnvironmentTool) Name() string {
	return "get_environment"
}

// Annotations returns tool hints for LLMs
func (t *GetEnvironmentTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("Get Environment")
}

// Description returns the tool description
func (t *GetEnvironmentTool) Description() string {
	return "Retrieve the environment snapshot of a Spark application: runtime versions, Spark properties, system properties and classpath entries"
}

// InputSchema returns the input schema
func (t *GetEnvironmentTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"server": serverProperty(),
		},
		"required": []string{"app_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *GetEnvironmentTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryEnvironment},
		Keywords:      []string{"environment", "config", "properties", "spark.conf", "classpath"},
		Complexity:    ComplexitySimple,
		UseCases:      []string{"Check an application's effective configuration", "Verify memory/core settings"},
		RelatedTools:  []string{"compare_app_environments", "get_application"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *GetEnvironmentTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	env, err := client.GetEnvironment(ctx, appID)
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	return t.JSONResult(env)
}
