package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/analysis"
	"github.com/sparkmcp/spark-history-mcp/internal/errors"
	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

const defaultRankN = 5

// rankNProperty is the shared schema fragment for the top-N argument.
func rankNProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "How many entries to return, slowest first (default 5; 0 returns none)",
	}
}

func includeRunningProperty(entity string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Include in-flight " + entity + " (excluded by default since their durations are still growing)",
	}
}

// ListSlowestJobsTool ranks jobs by duration
type ListSlowestJobsTool struct {
	*BaseTool
}

// NewListSlowestJobsTool creates a new tool instance
func NewListSlowestJobsTool(registry *spark.Registry, logger *zap.Logger) *ListSlowestJobsTool {
	return &ListSlowestJobsTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *ListSlowestJobsTool) Name() string {
	return "list_slowest_jobs"
}

// Annotations returns tool hints for LLMs
func (t *ListSlowestJobsTool) Annotations() *mcp.ToolAnnotations {
	return AnalysisAnnotations("List Slowest Jobs")
}

// Description returns the tool description
func (t *ListSlowestJobsTool) Description() string {
	return "Rank a Spark application's jobs, slowest first. The metric argument selects what to rank by: duration (default), numTasks or numFailedTasks. Running jobs are excluded unless include_running is set; jobs lacking the metric are skipped"
}

// InputSchema returns the input schema
func (t *ListSlowestJobsTool) InputSchema() interface{} {
	metricNames := make([]string, 0, len(analysis.JobMetricKeys))
	for _, k := range analysis.JobMetricKeys {
		metricNames = append(metricNames, string(k))
	}
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"n":      rankNProperty(),
			"metric": map[string]interface{}{
				"type":        "string",
				"enum":        metricNames,
				"description": "Job metric to rank by (default duration)",
			},
			"include_running": includeRunningProperty("jobs"),
			"server":          serverProperty(),
		},
		"required": []string{"app_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *ListSlowestJobsTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryJob, CategoryRanking},
		Keywords:      []string{"slowest", "jobs", "rank", "duration", "top"},
		Complexity:    ComplexitySimple,
		UseCases:      []string{"Find the jobs dominating an application's runtime"},
		RelatedTools:  []string{"list_jobs", "list_slowest_stages", "get_job_bottlenecks"},
		ChainPosition: ChainStarter,
	}
}

// Execute executes the tool
func (t *ListSlowestJobsTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	n, err := GetIntParam(arguments, "n", false, defaultRankN)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	metricName, err := GetStringParam(arguments, "metric", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	includeRunning, err := GetBoolParam(arguments, "include_running", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	metric := analysis.MetricDuration
	if metricName != "" {
		metric = analysis.MetricKey(metricName)
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	jobs, err := client.ListJobs(ctx, appID, nil)
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	exclude := analysis.DefaultExcludedJobStatuses
	if includeRunning {
		exclude = []string{}
	}
	ranked, notes, err := analysis.RankJobs(jobs, metric, n, exclude)
	if err != nil {
		if errors.IsInvalidArgument(err) {
			return NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	result := map[string]interface{}{
		"app_id": appID,
		"metric": metric,
		"count":  len(ranked),
		"jobs":   ranked,
	}
	if len(notes) > 0 {
		result["skipped"] = notes
	}
	return t.JSONResult(result)
}

// ListSlowestStagesTool ranks stages by duration or another metric
type ListSlowestStagesTool struct {
	*BaseTool
}

// NewListSlowestStagesTool creates a new tool instance
func NewListSlowestStagesTool(registry *spark.Registry, logger *zap.Logger) *ListSlowestStagesTool {
	return &ListSlowestStagesTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *ListSlowestStagesTool) Name() string {
	return "list_slowest_stages"
}

// Annotations returns tool hints for LLMs
func (t *ListSlowestStagesTool) Annotations() *mcp.ToolAnnotations {
	return AnalysisAnnotations("List Slowest Stages")
}

// Description returns the tool description
func (t *ListSlowestStagesTool) Description() string {
	return `Rank a Spark application's stage attempts, slowest or costliest first.

The metric argument selects what to rank by: duration (default), executorRunTime, jvmGcTime, inputBytes, outputBytes, shuffleReadBytes, shuffleWriteBytes, memoryBytesSpilled, diskBytesSpilled, numTasks or numFailedTasks. Stages lacking the metric are skipped, never ranked as zero.`
}

// InputSchema returns the input schema
func (t *ListSlowestStagesTool) InputSchema() interface{} {
	metricNames := make([]string, 0, len(analysis.StageMetricKeys))
	for _, k := range analysis.StageMetricKeys {
		metricNames = append(metricNames, string(k))
	}
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"n":      rankNProperty(),
			"metric": map[string]interface{}{
				"type":        "string",
				"enum":        metricNames,
				"description": "Stage metric to rank by (default duration)",
			},
			"include_running": includeRunningProperty("stages"),
			"server":          serverProperty(),
		},
		"required": []string{"app_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *ListSlowestStagesTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryStage, CategoryRanking},
		Keywords:      []string{"slowest", "stages", "rank", "shuffle", "spill", "gc"},
		Complexity:    ComplexityIntermediate,
		UseCases:      []string{"Find the stages dominating runtime", "Rank stages by shuffle volume or spill"},
		RelatedTools:  []string{"list_stages", "get_stage_task_summary", "get_job_bottlenecks"},
		ChainPosition: ChainStarter,
	}
}

// Execute executes the tool
func (t *ListSlowestStagesTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	n, err := GetIntParam(arguments, "n", false, defaultRankN)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	metricName, err := GetStringParam(arguments, "metric", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	includeRunning, err := GetBoolParam(arguments, "include_running", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	metric := analysis.MetricDuration
	if metricName != "" {
		metric = analysis.MetricKey(metricName)
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	stages, err := client.ListStages(ctx, appID, spark.ListStagesParams{})
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	exclude := analysis.DefaultExcludedStageStatuses
	if includeRunning {
		exclude = []string{}
	}
	ranked, notes, err := analysis.RankStages(stages, metric, n, exclude)
	if err != nil {
		if errors.IsInvalidArgument(err) {
			return NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	result := map[string]interface{}{
		"app_id": appID,
		"metric": metric,
		"count":  len(ranked),
		"stages": ranked,
	}
	if len(notes) > 0 {
		result["skipped"] = notes
	}
	return t.JSONResult(result)
}

// ListSlowestSQLQueriesTool ranks SQL executions by duration
type ListSlowestSQLQueriesTool struct {
	*BaseTool
}

// NewListSlowestSQLQueriesTool creates a new tool instance
func NewListSlowestSQLQueriesTool(registry *spark.Registry, logger *zap.Logger) *ListSlowestSQLQueriesTool {
	return &ListSlowestSQLQueriesTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *ListSlowestSQLQueriesTool) Name() string {
	return "list_slowest_sql_queries"
}

// Annotations returns tool hints for LLMs
func (t *ListSlowestSQLQueriesTool) Annotations() *mcp.ToolAnnotations {
	return AnalysisAnnotations("List Slowest SQL Queries")
}

// Description returns the tool description
func (t *ListSlowestSQLQueriesTool) Description() string {
	return "Rank a Spark application's SQL executions by duration, slowest first. Running executions are excluded unless include_running is set"
}

// InputSchema returns the input schema
func (t *ListSlowestSQLQueriesTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id":          appIDProperty(),
			"n":               rankNProperty(),
			"include_running": includeRunningProperty("executions"),
			"plan_description": map[string]interface{}{
				"type":        "boolean",
				"description": "Include the physical plan description per ranked execution",
			},
			"server": serverProperty(),
		},
		"required": []string{"app_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *ListSlowestSQLQueriesTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategorySQL, CategoryRanking},
		Keywords:      []string{"slowest", "sql", "queries", "rank", "duration"},
		Complexity:    ComplexityIntermediate,
		UseCases:      []string{"Find the SQL queries dominating runtime"},
		RelatedTools:  []string{"list_sql_executions", "compare_sql_plans"},
		ChainPosition: ChainStarter,
	}
}

// Execute executes the tool
func (t *ListSlowestSQLQueriesTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	n, err := GetIntParam(arguments, "n", false, defaultRankN)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	includeRunning, err := GetBoolParam(arguments, "include_running", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	planDescription, err := GetBoolParam(arguments, "plan_description", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	executions, err := client.ListAllSQLExecutions(ctx, appID, "", planDescription, 0)
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	exclude := analysis.DefaultExcludedSQLStatuses
	if includeRunning {
		exclude = []string{}
	}
	ranked, _, err := analysis.RankSQLExecutions(executions, n, exclude)
	if err != nil {
		if errors.IsInvalidArgument(err) {
			return NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	return t.JSONResult(map[string]interface{}{
		"app_id":     appID,
		"count":      len(ranked),
		"executions": ranked,
	})
}
