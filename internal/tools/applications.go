package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// GetApplicationTool retrieves a specific application with its attempts
type GetApplicationTool struct {
	*BaseTool
}

// NewGetApplicationTool creates a new tool instance
func NewGetApplicationTool(registry *spark.Registry, logger *zap.Logger) *GetApplicationTool {
	return &GetApplicationTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *GetApplicationTool) Name() string {
	return "get_application"
}

// Annotations returns tool hints for LLMs
func (t *GetApplicationTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("Get Application")
}

// Description returns the tool description
func (t *GetApplicationTool) Description() string {
	return "Retrieve a Spark application by ID, including all of its attempts with start/end times, duration, user and Spark version. The most recent attempt is surfaced separately as current_attempt"
}

// InputSchema returns the input schema
func (t *GetApplicationTool) InputSchema() interface{} {
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
func (t *GetApplicationTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryApplication},
		Keywords:      []string{"application", "app", "attempt", "get", "retrieve"},
		Complexity:    ComplexitySimple,
		UseCases:      []string{"Check an application's attempts and completion status", "Find the current attempt before deeper analysis"},
		RelatedTools:  []string{"list_applications", "list_jobs", "get_job_bottlenecks"},
		ChainPosition: ChainStarter,
	}
}

// Execute executes the tool
func (t *GetApplicationTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	app, err := client.GetApplication(ctx, appID)
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	result := map[string]interface{}{
		"application": app,
	}
	if attempt, ok := app.CurrentAttempt(); ok {
		result["current_attempt"] = attempt
	}
	return t.JSONResult(result)
}

// ListApplicationsTool lists applications known to a history server
type ListApplicationsTool struct {
	*BaseTool
}

// NewListApplicationsTool creates a new tool instance
func NewListApplicationsTool(registry *spark.Registry, logger *zap.Logger) *ListApplicationsTool {
	return &ListApplicationsTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *ListApplicationsTool) Name() string {
	return "list_applications"
}

// Annotations returns tool hints for LLMs
func (t *ListApplicationsTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("List Applications")
}

// Description returns the tool description
func (t *ListApplicationsTool) Description() string {
	return `List Spark applications known to the history server.

**When to use:**
- To discover application IDs before any per-application analysis
- To find recent runs of a recurring job for comparison

**Related tools:** get_application, compare_app_performance`
}

// InputSchema returns the input schema
func (t *ListApplicationsTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"status": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string", "enum": []string{"COMPLETED", "RUNNING"}},
				"description": "Filter by application status",
			},
			"min_date": map[string]interface{}{
				"type":        "string",
				"description": "Earliest start date (yyyy-MM-dd or yyyy-MM-dd'T'HH:mm:ss.SSSz)",
			},
			"max_date": map[string]interface{}{
				"type":        "string",
				"description": "Latest start date",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of applications to return",
			},
			"server": serverProperty(),
		},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *ListApplicationsTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryApplication},
		Keywords:      []string{"applications", "list", "discover", "recent", "history"},
		Complexity:    ComplexitySimple,
		UseCases:      []string{"Discover application IDs", "Find candidate runs for comparison"},
		RelatedTools:  []string{"get_application", "list_jobs"},
		ChainPosition: ChainStarter,
	}
}

// Execute executes the tool
func (t *ListApplicationsTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	statuses, err := GetStringArrayParam(arguments, "status", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	minDate, err := GetStringParam(arguments, "min_date", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	maxDate, err := GetStringParam(arguments, "max_date", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	limit, err := GetIntParam(arguments, "limit", false, 0)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	apps, err := client.ListApplications(ctx, spark.ListApplicationsParams{
		Status:  statuses,
		MinDate: minDate,
		MaxDate: maxDate,
		Limit:   limit,
	})
	if err != nil {
		return HandleFetchError(err, "application", ""), nil
	}

	return t.JSONResult(map[string]interface{}{
		"count":        len(apps),
		"applications": apps,
	})
}

// ListJobsTool lists jobs of an application
type ListJobsTool struct {
	*BaseTool
}

// NewListJobsTool creates a new tool instance
func NewListJobsTool(registry *spark.Registry, logger *zap.Logger) *ListJobsTool {
	return &ListJobsTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *ListJobsTool) Name() string {
	return "list_jobs"
}

// Annotations returns tool hints for LLMs
func (t *ListJobsTool) Annotations() *mcp.ToolAnnotations {
	return ReadOnlyAnnotations("List Jobs")
}

// Description returns the tool description
func (t *ListJobsTool) Description() string {
	return "List jobs of a Spark application with status, timestamps and task/stage counts, optionally filtered by status"
}

// InputSchema returns the input schema
func (t *ListJobsTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_id": appIDProperty(),
			"status": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string", "enum": []string{"RUNNING", "SUCCEEDED", "FAILED", "UNKNOWN"}},
				"description": "Filter by job status",
			},
			"server": serverProperty(),
		},
		"required": []string{"app_id"},
	}
}

// Metadata returns semantic metadata for AI-driven discovery
func (t *ListJobsTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryJob},
		Keywords:      []string{"jobs", "list", "status", "duration"},
		Complexity:    ComplexitySimple,
		UseCases:      []string{"Inspect the jobs of an application", "Find failed jobs"},
		RelatedTools:  []string{"list_slowest_jobs", "list_stages", "get_job_bottlenecks"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *ListJobsTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	appID, err := GetStringParam(arguments, "app_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	statuses, err := GetStringArrayParam(arguments, "status", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	client, err := t.ResolveClient(arguments)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	jobs, err := client.ListJobs(ctx, appID, statuses)
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	return t.JSONResult(map[string]interface{}{
		"app_id": appID,
		"count":  len(jobs),
		"jobs":   jobs,
	})
}
