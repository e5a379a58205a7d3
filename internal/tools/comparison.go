package tools

import (
	"context"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/analysis"
	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

func appPairProperties() map[string]interface{} {
	return map[string]interface{}{
		"app_id_a": map[string]interface{}{
			"type":        "string",
			"description": "Application ID of the baseline run (e.g., application_1716204221678_0001)",
		},
		"app_id_b": map[string]interface{}{
			"type":        "string",
			"description": "Application ID of the run to compare against the baseline",
		},
	}
}

// fetchPair runs a fetch for each side of a comparison concurrently and
// returns the first error, noting which application it came from.
func fetchPair(ctx context.Context, appA, appB string, fetch func(ctx context.Context, appID string) error) (string, error) {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	apps := []string{appA, appB}
	for i, appID := range apps {
		wg.Add(1)
		go func(i int, appID string) {
			defer wg.Done()
			errs[i] = fetch(ctx, appID)
		}(i, appID)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return apps[i], err
		}
	}
	return "", nil
}

// CompareAppPerformanceTool compares job-level timings of two runs
type CompareAppPerformanceTool struct {
	*BaseTool
}

// NewCompareAppPerformanceTool creates a new tool instance
func NewCompareAppPerformanceTool(registry *spark.Registry, logger *zap.Logger) *CompareAppPerformanceTool {
	return &CompareAppPerformanceTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *CompareAppPerformanceTool) Name() string {
	return "compare_app_performance"
}

// Annotations returns tool hints for LLMs
func (t *CompareAppPerformanceTool) Annotations() *mcp.ToolAnnotations {
	return AnalysisAnnotations("Compare App Performance")
}

// Description returns the tool description
func (t *CompareAppPerformanceTool) Description() string {
	return `Compare two runs of the same Spark application job by job.

Jobs are aligned ordinally after sorting by job ID, so the first job of run A is paired with the first job of run B. Each pair reports duration and stage-count deltas; jobs without a counterpart are listed as unmatched rather than dropped silently. Executor fleet totals are compared alongside.`
}

// InputSchema returns the input schema
func (t *CompareAppPerformanceTool) InputSchema() interface{} {
	properties := appPairProperties()
	properties["server"] = serverProperty()
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   []string{"app_id_a", "app_id_b"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *CompareAppPerformanceTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryComparison, CategoryJob},
		Keywords:      []string{"compare", "regression", "before", "after", "delta", "runs"},
		Complexity:    ComplexityAdvanced,
		UseCases:      []string{"Find which jobs regressed between two runs", "Validate a tuning change"},
		RelatedTools:  []string{"compare_app_environments", "compare_sql_plans", "get_job_bottlenecks"},
		ChainPosition: ChainFinisher,
	}
}

// Execute executes the tool
func (t *CompareAppPerformanceTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appA, err := GetStringParam(arguments, "app_id_a", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	appB, err := GetStringParam(arguments, "app_id_b", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	type appData struct {
		jobs      []spark.JobData
		executors []spark.ExecutorSummary
	}
	data := map[string]*appData{appA: {}, appB: {}}
	var mu sync.Mutex

	failedApp, err := fetchPair(ctx, appA, appB, func(ctx context.Context, appID string) error {
		jobs, err := client.ListJobs(ctx, appID, nil)
		if err != nil {
			return err
		}
		executors, err := client.ListExecutors(ctx, appID, true)
		if err != nil {
			return err
		}
		mu.Lock()
		data[appID].jobs = jobs
		data[appID].executors = executors
		mu.Unlock()
		return nil
	})
	if err != nil {
		return HandleFetchError(err, "application", failedApp), nil
	}

	result := analysis.ComparePerformance(
		appA, data[appA].jobs, data[appA].executors,
		appB, data[appB].jobs, data[appB].executors,
	)
	return t.JSONResult(result)
}

// CompareAppEnvironmentsTool diffs Spark and system properties of two runs
type CompareAppEnvironmentsTool struct {
	*BaseTool
}

// NewCompareAppEnvironmentsTool creates a new tool instance
func NewCompareAppEnvironmentsTool(registry *spark.Registry, logger *zap.Logger) *CompareAppEnvironmentsTool {
	return &CompareAppEnvironmentsTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *CompareAppEnvironmentsTool) Name() string {
	return "compare_app_environments"
}

// Annotations returns tool hints for LLMs
func (t *CompareAppEnvironmentsTool) Annotations() *mcp.ToolAnnotations {
	return AnalysisAnnotations("Compare App Environments")
}

// Description returns the tool description
func (t *CompareAppEnvironmentsTool) Description() string {
	return "Diff the runtime, Spark properties and system properties of two Spark runs. Reports keys present on only one side and keys whose raw string values differ, so a config drift behind a performance change is easy to spot"
}

// InputSchema returns the input schema
func (t *CompareAppEnvironmentsTool) InputSchema() interface{} {
	properties := appPairProperties()
	properties["server"] = serverProperty()
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   []string{"app_id_a", "app_id_b"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *CompareAppEnvironmentsTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryComparison, CategoryEnvironment},
		Keywords:      []string{"compare", "environment", "config", "properties", "drift"},
		Complexity:    ComplexityIntermediate,
		UseCases:      []string{"Check whether a slow run used different configuration"},
		RelatedTools:  []string{"get_environment", "compare_app_performance"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *CompareAppEnvironmentsTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appA, err := GetStringParam(arguments, "app_id_a", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	appB, err := GetStringParam(arguments, "app_id_b", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	envs := map[string]*spark.ApplicationEnvironmentInfo{}
	var mu sync.Mutex

	failedApp, err := fetchPair(ctx, appA, appB, func(ctx context.Context, appID string) error {
		env, err := client.GetEnvironment(ctx, appID)
		if err != nil {
			return err
		}
		mu.Lock()
		envs[appID] = env
		mu.Unlock()
		return nil
	})
	if err != nil {
		return HandleFetchError(err, "application", failedApp), nil
	}

	result := analysis.CompareEnvironments(appA, envs[appA], appB, envs[appB])
	return t.JSONResult(result)
}

// CompareSQLPlansTool pairs SQL executions across runs and diffs their plans
type CompareSQLPlansTool struct {
	*BaseTool
}

// NewCompareSQLPlansTool creates a new tool instance
func NewCompareSQLPlansTool(registry *spark.Registry, logger *zap.Logger) *CompareSQLPlansTool {
	return &CompareSQLPlansTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *CompareSQLPlansTool) Name() string {
	return "compare_sql_plans"
}

// Annotations returns tool hints for LLMs
func (t *CompareSQLPlansTool) Annotations() *mcp.ToolAnnotations {
	return AnalysisAnnotations("Compare SQL Plans")
}

// Description returns the tool description
func (t *CompareSQLPlansTool) Description() string {
	return `Match SQL executions across two Spark runs by plan-description similarity and diff the matched plans.

Each execution of run A is paired with its most similar unpaired execution of run B above the similarity threshold. Matched pairs report duration deltas and plan lines present on only one side; executions without a counterpart are listed as unmatched.`
}

// InputSchema returns the input schema
func (t *CompareSQLPlansTool) InputSchema() interface{} {
	properties := appPairProperties()
	properties["similarity_threshold"] = map[string]interface{}{
		"type":        "number",
		"description": "Minimum plan similarity, between 0 and 1, for two executions to be considered the same query (default 0.6)",
	}
	properties["server"] = serverProperty()
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   []string{"app_id_a", "app_id_b"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *CompareSQLPlansTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryComparison, CategorySQL},
		Keywords:      []string{"compare", "sql", "plan", "diff", "query", "regression"},
		Complexity:    ComplexityAdvanced,
		UseCases:      []string{"Find which queries changed plan between two runs", "Explain a SQL regression"},
		RelatedTools:  []string{"list_sql_executions", "list_slowest_sql_queries", "compare_app_performance"},
		ChainPosition: ChainFinisher,
	}
}

// Execute executes the tool
func (t *CompareSQLPlansTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appA, err := GetStringParam(arguments, "app_id_a", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	appB, err := GetStringParam(arguments, "app_id_b", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	threshold, err := GetFloatParam(arguments, "similarity_threshold", false, 0)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	if threshold < 0 || threshold > 1 {
		return NewToolResultError("similarity_threshold must be between 0 and 1"), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	execs := map[string][]spark.ExecutionData{}
	var mu sync.Mutex

	failedApp, err := fetchPair(ctx, appA, appB, func(ctx context.Context, appID string) error {
		executions, err := client.ListAllSQLExecutions(ctx, appID, "", true, 0)
		if err != nil {
			return err
		}
		mu.Lock()
		execs[appID] = executions
		mu.Unlock()
		return nil
	})
	if err != nil {
		return HandleFetchError(err, "application", failedApp), nil
	}

	result := analysis.CompareSQLPlans(appA, execs[appA], appB, execs[appB], nil, threshold)
	return t.JSONResult(result)
}
