package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/analysis"
	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// GetJobBottlenecksTool classifies where an application spends its time
type GetJobBottlenecksTool struct {
	*BaseTool
}

// NewGetJobBottlenecksTool creates a new tool instance
func NewGetJobBottlenecksTool(registry *spark.Registry, logger *zap.Logger) *GetJobBottlenecksTool {
	return &GetJobBottlenecksTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *GetJobBottlenecksTool) Name() string {
	return "get_job_bottlenecks"
}

// Annotations returns tool hints for LLMs
func (t *GetJobBottlenecksTool) Annotations() *mcp.ToolAnnotations {
	return AnalysisAnnotations("Get Job Bottlenecks")
}

// Description returns the tool description
func (t *GetJobBottlenecksTool) Description() string {
	return `Identify performance bottlenecks in a Spark application.

Breaks the slowest stages down into time categories (compute, shuffle read/write, GC, scheduler delay, serialization) and flags every category consuming at least the threshold fraction of stage time, with a likely cause and a suggested action per flagged stage. Executor-level signals such as GC pressure, executor churn and disk spill are reported alongside.`
}

// InputSchema returns the input schema
func (t *GetJobBottlenecksTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"threshold": map[string]interface{}{
				"type":        "number",
				"description": "Fraction of stage time a category must consume to be flagged (default 0.3)",
			},
			"top_stages": map[string]interface{}{
				"type":        "integer",
				"description": "How many of the slowest stages to analyze (default 5)",
			},
			"server": serverProperty(),
		},
		"required": []string{"app_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *GetJobBottlenecksTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryAnalysis, CategoryStage, CategoryExecutor},
		Keywords:      []string{"bottleneck", "slow", "diagnose", "shuffle", "gc", "spill", "performance"},
		Complexity:    ComplexityAdvanced,
		UseCases:      []string{"Diagnose why an application is slow", "Decide what to tune first"},
		RelatedTools:  []string{"list_slowest_stages", "get_stage_task_summary", "get_executor_summary"},
		ChainPosition: ChainFinisher,
	}
}

// Execute executes the tool
func (t *GetJobBottlenecksTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	threshold, err := GetFloatParam(arguments, "threshold", false, 0)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	topStages, err := GetIntParam(arguments, "top_stages", false, 0)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	if threshold < 0 || threshold > 1 {
		return NewToolResultError("threshold must be between 0 and 1"), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	stages, err := client.ListStages(ctx, appID, spark.ListStagesParams{WithSummaries: true})
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}
	executors, err := client.ListExecutors(ctx, appID, true)
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	report := analysis.AnalyzeBottlenecks(stages, executors, analysis.AnalyzerOptions{
		Threshold: threshold,
		TopStages: topStages,
	})

	return t.JSONResult(map[string]interface{}{
		"app_id": appID,
		"report": report,
	})
}
