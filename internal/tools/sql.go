package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// ListSQLExecutionsTool lists SQL executions of an application
type ListSQLExecutionsTool struct {
	*BaseTool
}

// NewListSQLExecutionsTool creates a new tool instance
func NewListSQLExecutionsTool(registry *spark.Registry, logger *zap.Logger) *ListSQLExecutionsTool {
	return &ListSQLExecutionsTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *ListSQLExecutionsTool) Name() string {
	return "list_sql_executions"
}

// Annotations returns tool hints for LLMs
func (t *ListSQLExecutionsTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("List SQL Executions")
}

// Description returns the tool description
func (t *ListSQLExecutionsTool) Description() string {
	return "List SQL executions of a Spark application with status, duration and optionally the physical plan description. Supports offset/length paging and fetching a single execution by ID"
}

// InputSchema returns the input schema
func (t *ListSQLExecutionsTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"execution_id": map[string]interface{}{
				"type":        "integer",
				"description": "Fetch one execution by ID instead of listing",
			},
			"attempt_id": map[string]interface{}{
				"type":        "string",
				"description": "Application attempt ID (for applications with multiple attempts)",
			},
			"plan_description": map[string]interface{}{
				"type":        "boolean",
				"description": "Include the physical plan description per execution",
			},
			"offset": map[string]interface{}{
				"type":        "integer",
				"description": "First execution index to return (default 0)",
			},
			"length": map[string]interface{}{
				"type":        "integer",
				"description": "Number of executions to return (default 20)",
			},
			"server": serverProperty(),
		},
		"required": []string{"app_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *ListSQLExecutionsTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategorySQL},
		Keywords:      []string{"sql", "queries", "executions", "plan", "list"},
		Complexity:    ComplexitySimple,
		UseCases:      []string{"Inspect SQL workload of an application", "Find execution IDs for plan comparison"},
		RelatedTools:  []string{"list_slowest_sql_queries", "compare_sql_plans"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *ListSQLExecutionsTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	attemptID, err := GetStringParam(arguments, "attempt_id", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	planDescription, err := GetBoolParam(arguments, "plan_description", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	offset, err := GetIntParam(arguments, "offset", false, 0)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	length, err := GetIntParam(arguments, "length", false, 20)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	executionID, err := GetIntParam(arguments, "execution_id", false, -1)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	// Execution IDs start at 0, so anything non-negative selects one.
	if executionID >= 0 {
		execution, err := client.GetSQLExecution(ctx, appID, executionID, planDescription)
		if err != nil {
			return HandleFetchError(err, "sql execution", appID), nil
		}
		return t.JSONResult(map[string]interface{}{
			"app_id":    appID,
			"execution": execution,
		})
	}

	executions, err := client.ListSQLExecutions(ctx, appID, spark.ListSQLExecutionsParams{
		AttemptID:       attemptID,
		Details:         true,
		PlanDescription: planDescription,
		Offset:          offset,
		Length:          length,
	})
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	return t.JSONResult(map[string]interface{}{
		"app_id":     appID,
		"count":      len(executions),
		"offset":     offset,
		"executions": executions,
	})
}
