package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// ListStagesTool lists stage attempts of an application
type ListStagesTool struct {
	*BaseTool
}

// NewListStagesTool creates a new tool instance
func NewListStagesTool(registry *spark.Registry, logger *zap.Logger) *ListStagesTool {
	return &ListStagesTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *ListStagesTool) Name() string {
	return "list_stages"
}

// Annotations returns tool hints for LLMs
func (t *ListStagesTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("List Stages")
}

// Description returns the tool description
func (t *ListStagesTool) Description() string {
	return "List stage attempts of a Spark application with aggregated task metrics (I/O, shuffle, GC, spill), optionally filtered by status and with task metric distributions"
}

// InputSchema returns the input schema
func (t *ListStagesTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"status": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string", "enum": []string{"ACTIVE", "COMPLETE", "FAILED", "PENDING", "SKIPPED"}},
				"description": "Filter by stage status",
			},
			"with_summaries": map[string]interface{}{
				"type":        "boolean",
				"description": "Include task metric quantile distributions per stage",
			},
			"server": serverProperty(),
		},
		"required": []string{"app_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *ListStagesTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryStage},
		Keywords:      []string{"stages", "list", "shuffle", "metrics", "tasks"},
		Complexity:    ComplexitySimple,
		UseCases:      []string{"Inspect per-stage metrics", "Find failed or skipped stages"},
		RelatedTools:  []string{"get_stage", "list_slowest_stages", "get_stage_task_summary"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *ListStagesTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	statuses, err := GetStringArrayParam(arguments, "status", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	withSummaries, err := GetBoolParam(arguments, "with_summaries", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	stages, err := client.ListStages(ctx, appID, spark.ListStagesParams{
		Statuses:      statuses,
		WithSummaries: withSummaries,
	})
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	return t.JSONResult(map[string]interface{}{
		"app_id": appID,
		"count":  len(stages),
		"stages": stages,
	})
}

// GetStageTool retrieves one stage, either a specific attempt or all attempts
type GetStageTool struct {
	*BaseTool
}

// NewGetStageTool creates a new tool instance
func NewGetStageTool(registry *spark.Registry, logger *zap.Logger) *GetStageTool {
	return &GetStageTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *GetStageTool) Name() string {
	return "get_stage"
}

// Annotations returns tool hints for LLMs
func (t *GetStageTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("Get Stage")
}

// Description returns the tool description
func (t *GetStageTool) Description() string {
	return "Retrieve a specific stage of a Spark application. With attempt_id, returns that attempt; otherwise returns every attempt of the stage"
}

// InputSchema returns the input schema
func (t *GetStageTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"stage_id": map[string]interface{}{
				"type":        "integer",
				"description": "The stage ID",
			},
			"attempt_id": map[string]interface{}{
				"type":        "integer",
				"description": "The stage attempt ID (omit for all attempts)",
			},
			"with_summaries": map[string]interface{}{
				"type":        "boolean",
				"description": "Include task metric quantile distributions",
			},
			"server": serverProperty(),
		},
		"required": []string{"app_id", "stage_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *GetStageTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryStage},
		Keywords:      []string{"stage", "attempt", "get", "retrieve", "metrics"},
		Complexity:    ComplexitySimple,
		UseCases:      []string{"Drill into one stage after a ranking or bottleneck report"},
		RelatedTools:  []string{"list_stages", "get_stage_task_summary", "get_job_bottlenecks"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *GetStageTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	stageID, err := GetIntParam(arguments, "stage_id", true, 0)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	withSummaries, err := GetBoolParam(arguments, "with_summaries", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	entityID := fmt.Sprintf("%s/%d", appID, stageID)

	if _, hasAttempt := arguments["attempt_id"]; hasAttempt {
		attemptID, err := GetIntParam(arguments, "attempt_id", true, 0)
		if err != nil {
			return NewToolResultError(err.Error()), nil
		}
		stage, err := client.GetStageAttempt(ctx, appID, stageID, attemptID, withSummaries)
		if err != nil {
			return HandleFetchError(err, "stage", entityID), nil
		}
		return t.JSONResult(stage)
	}

	attempts, err := client.ListStageAttempts(ctx, appID, stageID, withSummaries)
	if err != nil {
		return HandleFetchError(err, "stage", entityID), nil
	}
	return t.JSONResult(map[string]interface{}{
		"app_id":   appID,
		"stage_id": stageID,
		"attempts": attempts,
	})
}

// GetStageTaskSummaryTool retrieves task metric distributions for a stage attempt
type GetStageTaskSummaryTool struct {
	*BaseTool
}

// NewGetStageTaskSummaryTool creates a new tool instance
func NewGetStageTaskSummaryTool(registry *spark.Registry, logger *zap.Logger) *GetStageTaskSummaryTool {
	return &GetStageTaskSummaryTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *GetStageTaskSummaryTool) Name() string {
	return "get_stage_task_summary"
}

// Annotations returns tool hints for LLMs
func (t *GetStageTaskSummaryTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("Get Stage Task Summary")
}

// Description returns the tool description
func (t *GetStageTaskSummaryTool) Description() string {
	return "Retrieve task metric quantile distributions (duration, GC, scheduler delay, shuffle, spill) for one stage attempt, revealing skew across tasks"
}

// InputSchema returns the input schema
func (t *GetStageTaskSummaryTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"stage_id": map[string]interface{}{
				"type":        "integer",
				"description": "The stage ID",
			},
			"attempt_id": map[string]interface{}{
				"type":        "integer",
				"description": "The stage attempt ID (defaults to 0)",
			},
			"quantiles": map[string]interface{}{
				"type":        "string",
				"description": "Comma-separated quantiles (defaults to 0.05,0.25,0.5,0.75,0.95)",
			},
			"server": serverProperty(),
		},
		"required": []string{"app_id", "stage_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *GetStageTaskSummaryTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryStage, CategoryAnalysis},
		Keywords:      []string{"tasks", "distribution", "quantiles", "skew", "summary"},
		Complexity:    ComplexityIntermediate,
		UseCases:      []string{"Detect task skew within a slow stage", "Inspect percentile task timings"},
		RelatedTools:  []string{"get_stage", "list_slowest_stages", "get_job_bottlenecks"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *GetStageTaskSummaryTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	stageID, err := GetIntParam(arguments, "stage_id", true, 0)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	attemptID, err := GetIntParam(arguments, "attempt_id", false, 0)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	quantiles, err := GetStringParam(arguments, "quantiles", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	entityID := fmt.Sprintf("%s/%d/%d", appID, stageID, attemptID)
	dist, err := client.GetStageTaskSummary(ctx, appID, stageID, attemptID, quantiles)
	if err != nil {
		return HandleFetchError(err, "stage", entityID), nil
	}

	// A stage with zero tasks comes back with empty metric vectors. That is
	// a valid state, flagged rather than treated as a failure.
	if len(dist.Quantiles) == 0 || len(dist.Duration) == 0 {
		return t.JSONResult(map[string]interface{}{
			"app_id":            appID,
			"stage_id":          stageID,
			"attempt_id":        attemptID,
			"insufficient_data": true,
			"note":              "stage reported no task metrics; it may have zero tasks or still be running",
		})
	}

	return t.JSONResult(dist)
}

// ListStageTasksTool lists individual tasks of a stage attempt
type ListStageTasksTool struct {
	*BaseTool
}

// NewListStageTasksTool creates a new tool instance
func NewListStageTasksTool(registry *spark.Registry, logger *zap.Logger) *ListStageTasksTool {
	return &ListStageTasksTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *ListStageTasksTool) Name() string {
	return "list_stage_tasks"
}

// Annotations returns tool hints for LLMs
func (t *ListStageTasksTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("List Stage Tasks")
}

// Description returns the tool description
func (t *ListStageTasksTool) Description() string {
	return "List individual tasks of a stage attempt with launch time, duration, executor, host, locality and per-task metrics. Supports offset/length paging; use after get_stage_task_summary points at a skewed or failing stage"
}

// InputSchema returns the input schema
func (t *ListStageTasksTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"stage_id": map[string]interface{}{
				"type":        "integer",
				"description": "The stage ID",
			},
			"attempt_id": map[string]interface{}{
				"type":        "integer",
				"description": "The stage attempt ID (default 0)",
			},
			"offset": map[string]interface{}{
				"type":        "integer",
				"description": "First task index to return (default 0)",
			},
			"length": map[string]interface{}{
				"type":        "integer",
				"description": "Number of tasks to return (default 20)",
			},
			"server": serverProperty(),
		},
		"required": []string{"app_id", "stage_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *ListStageTasksTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryStage},
		Keywords:      []string{"tasks", "stage", "skew", "locality", "stragglers"},
		Complexity:    ComplexityIntermediate,
		UseCases:      []string{"Inspect individual tasks of a skewed stage", "Find the executor a straggler ran on"},
		RelatedTools:  []string{"get_stage", "get_stage_task_summary", "get_executor"},
		ChainPosition: ChainFinisher,
	}
}

// Execute executes the tool
func (t *ListStageTasksTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	stageID, err := GetIntParam(arguments, "stage_id", true, 0)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	attemptID, err := GetIntParam(arguments, "attempt_id", false, 0)
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

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	entityID := fmt.Sprintf("%s/%d/%d", appID, stageID, attemptID)
	tasks, err := client.ListStageTasks(ctx, appID, stageID, attemptID, offset, length)
	if err != nil {
		return HandleFetchError(err, "stage", entityID), nil
	}

	return t.JSONResult(map[string]interface{}{
		"app_id":     appID,
		"stage_id":   stageID,
		"attempt_id": attemptID,
		"count":      len(tasks),
		"offset":     offset,
		"tasks":      tasks,
	})
}
