package tools

import (
	"context"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/analysis"
	"github.com/sparkmcp/spark-history-mcp/internal/errors"
	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// ListExecutorsTool lists executors of an application
type ListExecutorsTool struct {
	*BaseTool
}

// NewListExecutorsTool creates a new tool instance
func NewListExecutorsTool(registry *spark.Registry, logger *zap.Logger) *ListExecutorsTool {
	return &ListExecutorsTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *ListExecutorsTool) Name() string {
	return "list_executors"
}

// Annotations returns tool hints for LLMs
func (t *ListExecutorsTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("List Executors")
}

// Description returns the tool description
func (t *ListExecutorsTool) Description() string {
	return "List executors of a Spark application with resource allocation and cumulative task/IO counters. Set include_inactive to also see removed executors; sort_by orders them by a cumulative counter such as totalGCTime or totalShuffleRead, largest first"
}

// InputSchema returns the input schema
func (t *ListExecutorsTool) InputSchema() interface{} {
	metricNames := make([]string, 0, len(analysis.ExecutorMetricKeys))
	for _, k := range analysis.ExecutorMetricKeys {
		metricNames = append(metricNames, string(k))
	}
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"include_inactive": map[string]interface{}{
				"type":        "boolean",
				"description": "Include executors that have been removed",
			},
			"sort_by": map[string]interface{}{
				"type":        "string",
				"enum":        metricNames,
				"description": "Cumulative executor counter to sort by, largest first (default: server order)",
			},
			"server": serverProperty(),
		},
		"required": []string{"app_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *ListExecutorsTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryExecutor},
		Keywords:      []string{"executors", "list", "cores", "memory", "resources"},
		Complexity:    ComplexitySimple,
		UseCases:      []string{"Inspect the executor fleet", "Check for removed executors"},
		RelatedTools:  []string{"get_executor", "get_executor_summary", "get_resource_usage_timeline"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *ListExecutorsTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	includeInactive, err := GetBoolParam(arguments, "include_inactive", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	sortBy, err := GetStringParam(arguments, "sort_by", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	executors, err := client.ListExecutors(ctx, appID, includeInactive)
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	if sortBy != "" {
		if err := sortExecutors(executors, analysis.MetricKey(sortBy)); err != nil {
			return NewToolResultError(err.Error()), nil
		}
	}

	result := map[string]interface{}{
		"app_id":    appID,
		"count":     len(executors),
		"executors": executors,
	}
	if sortBy != "" {
		result["sorted_by"] = sortBy
	}
	return t.JSONResult(result)
}

// sortExecutors orders executors by the given cumulative counter, largest
// first. Executors missing the counter sort last; ties keep server order.
func sortExecutors(executors []spark.ExecutorSummary, key analysis.MetricKey) error {
	if _, err := analysis.ExtractExecutorMetric(spark.ExecutorSummary{ID: "0"}, key); err != nil && errors.IsInvalidArgument(err) {
		return err
	}

	value := func(e spark.ExecutorSummary) (float64, bool) {
		v, err := analysis.ExtractExecutorMetric(e, key)
		if err != nil {
			return 0, false
		}
		return v.Get()
	}

	sort.SliceStable(executors, func(i, j int) bool {
		vi, oki := value(executors[i])
		vj, okj := value(executors[j])
		if oki != okj {
			return oki
		}
		return vi > vj
	})
	return nil
}

// GetExecutorTool retrieves one executor by ID
type GetExecutorTool struct {
	*BaseTool
}

// NewGetExecutorTool creates a new tool instance
func NewGetExecutorTool(registry *spark.Registry, logger *zap.Logger) *GetExecutorTool {
	return &GetExecutorTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *GetExecutorTool) Name() string {
	return "get_executor"
}

// Annotations returns tool hints for LLMs
func (t *GetExecutorTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("Get Executor")
}

// Description returns the tool description
func (t *GetExecutorTool) Description() string {
	return "Retrieve a single executor of a Spark application by executor ID (use \"driver\" for the driver)"
}

// InputSchema returns the input schema
func (t *GetExecutorTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"executor_id": map[string]interface{}{
				"type":        "string",
				"description": "The executor ID",
			},
			"server": serverProperty(),
		},
		"required": []string{"app_id", "executor_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *GetExecutorTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryExecutor},
		Keywords:      []string{"executor", "get", "driver", "counters"},
		Complexity:    ComplexitySimple,
		UseCases:      []string{"Inspect one executor after spotting skew in the summary"},
		RelatedTools:  []string{"list_executors", "get_executor_summary"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *GetExecutorTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	executorID, err := GetStringParam(arguments, "executor_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	executors, err := client.ListExecutors(ctx, appID, true)
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	for _, e := range executors {
		if e.ID == executorID {
			return t.JSONResult(e)
		}
	}
	return NewToolResultErrorWithSuggestion(
		"Executor not found: "+executorID,
		"Use 'list_executors' with include_inactive=true to see all executor IDs.",
	), nil
}

// GetExecutorSummaryTool rolls up executor counters into fleet totals and
// per-executor distributions
type GetExecutorSummaryTool struct {
	*BaseTool
}

// NewGetExecutorSummaryTool creates a new tool instance
func NewGetExecutorSummaryTool(registry *spark.Registry, logger *zap.Logger) *GetExecutorSummaryTool {
	return &GetExecutorSummaryTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *GetExecutorSummaryTool) Name() string {
	return "get_executor_summary"
}

// Annotations returns tool hints for LLMs
func (t *GetExecutorSummaryTool) Annotations() *mcp.ToolAnnotations {
	return AnalysisAnnotations("Get Executor Summary")
}

// Description returns the tool description
func (t *GetExecutorSummaryTool) Description() string {
	return `Aggregate executor counters of a Spark application into fleet-wide totals and per-executor distributions.

**When to use:**
- To judge total resource usage (core count, task time, GC time, shuffle volume)
- To spot skew: a wide gap between p50 and max task duration across executors means unbalanced work

**Related tools:** list_executors, get_job_bottlenecks, compare_app_performance`
}

// InputSchema returns the input schema
func (t *GetExecutorSummaryTool) InputSchema() interface{} {
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
func (t *GetExecutorSummaryTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryExecutor, CategoryAnalysis},
		Keywords:      []string{"executors", "summary", "totals", "distribution", "skew", "gc"},
		Complexity:    ComplexityIntermediate,
		UseCases:      []string{"Measure total resource consumption", "Detect executor-level skew"},
		RelatedTools:  []string{"list_executors", "get_job_bottlenecks"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *GetExecutorSummaryTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	executors, err := client.ListExecutors(ctx, appID, true)
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	result := map[string]interface{}{
		"app_id": appID,
		"totals": analysis.TotalExecutors(executors),
	}
	if len(executors) == 0 {
		result["insufficient_data"] = true
		result["note"] = "application reported no executors"
	} else {
		result["distributions"] = analysis.DistributeExecutors(executors)
	}
	return t.JSONResult(result)
}
