package tools

import (
	"context"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// timelineEvent is a single executor or stage lifecycle event with the
// resource totals in effect after it.
type timelineEvent struct {
	Time          time.Time `json:"time"`
	Event         string    `json:"event"`
	ExecutorID    string    `json:"executor_id,omitempty"`
	StageID       *int      `json:"stage_id,omitempty"`
	StageName     string    `json:"stage_name,omitempty"`
	ActiveCores   int       `json:"active_cores"`
	ActiveStages  int       `json:"active_stages"`
	ExecutorCount int       `json:"executor_count"`
}

const (
	eventExecutorAdded   = "executor_added"
	eventExecutorRemoved = "executor_removed"
	eventStageStarted    = "stage_started"
	eventStageCompleted  = "stage_completed"
)

// GetResourceUsageTimelineTool reconstructs the resource timeline of a run
type GetResourceUsageTimelineTool struct {
	*BaseTool
}

// NewGetResourceUsageTimelineTool creates a new tool instance
func NewGetResourceUsageTimelineTool(registry *spark.Registry, logger *zap.Logger) *GetResourceUsageTimelineTool {
	return &GetResourceUsageTimelineTool{BaseTool: NewBaseTool(registry, logger)}
}

// Name returns the tool name
func (t *GetResourceUsageTimelineTool) Name() string {
	return "get_resource_usage_timeline"
}

// Annotations returns tool hints for LLMs
func (t *GetResourceUsageTimelineTool) Annotations() *mcp.ToolAnnotations {
	return AnalysisAnnotations("Get Resource Usage Timeline")
}

// Description returns the tool description
func (t *GetResourceUsageTimelineTool) Description() string {
	return "Reconstruct a chronological timeline of executor additions and removals interleaved with stage starts and completions, with running totals of active cores, executors and stages after each event. Useful for spotting idle fleets, slow ramp-up under dynamic allocation and stages that ran with too few executors"
}

// InputSchema returns the input schema
func (t *GetResourceUsageTimelineTool) InputSchema() interface{} {
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
func (t *GetResourceUsageTimelineTool) Metadata() *ToolMetadata {
	return &ToolMetadata{
		Categories:    []ToolCategory{CategoryAnalysis, CategoryExecutor, CategoryStage},
		Keywords:      []string{"timeline", "resources", "cores", "dynamic allocation", "utilization"},
		Complexity:    ComplexityAdvanced,
		UseCases:      []string{"See how executor count evolved over a run", "Spot stages that waited for resources"},
		RelatedTools:  []string{"list_executors", "list_stages", "get_executor_summary"},
		ChainPosition: ChainMiddle,
	}
}

// Execute executes the tool
func (t *GetResourceUsageTimelineTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
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
	stages, err := client.ListStages(ctx, appID, spark.ListStagesParams{})
	if err != nil {
		return HandleFetchError(err, "application", appID), nil
	}

	events := buildTimeline(executors, stages)

	peakCores := 0
	for _, ev := range events {
		if ev.ActiveCores > peakCores {
			peakCores = ev.ActiveCores
		}
	}

	return t.JSONResult(map[string]interface{}{
		"app_id":     appID,
		"events":     events,
		"peak_cores": peakCores,
	})
}

// buildTimeline merges executor and stage lifecycle events into one
// chronological sequence and annotates each with running totals. The
// synthetic driver executor and records without timestamps are skipped.
func buildTimeline(executors []spark.ExecutorSummary, stages []spark.StageData) []timelineEvent {
	events := []timelineEvent{}

	cores := func(e spark.ExecutorSummary) int {
		if e.TotalCores == nil {
			return 0
		}
		return *e.TotalCores
	}

	for _, e := range executors {
		if e.ID == "driver" {
			continue
		}
		if e.AddTime != nil {
			events = append(events, timelineEvent{
				Time:       e.AddTime.Time,
				Event:      eventExecutorAdded,
				ExecutorID: e.ID,
				// running totals filled in after sorting
				ActiveCores: cores(e),
			})
		}
		if e.RemoveTime != nil {
			events = append(events, timelineEvent{
				Time:        e.RemoveTime.Time,
				Event:       eventExecutorRemoved,
				ExecutorID:  e.ID,
				ActiveCores: cores(e),
			})
		}
	}

	for i := range stages {
		s := &stages[i]
		if s.StageID == nil {
			continue
		}
		start := s.FirstTaskLaunched
		if start == nil {
			start = s.SubmissionTime
		}
		if start != nil {
			events = append(events, timelineEvent{
				Time:      start.Time,
				Event:     eventStageStarted,
				StageID:   s.StageID,
				StageName: s.Name,
			})
		}
		if s.CompletionTime != nil {
			events = append(events, timelineEvent{
				Time:      s.CompletionTime.Time,
				Event:     eventStageCompleted,
				StageID:   s.StageID,
				StageName: s.Name,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})

	activeCores, activeStages, executorCount := 0, 0, 0
	for i := range events {
		switch events[i].Event {
		case eventExecutorAdded:
			activeCores += events[i].ActiveCores
			executorCount++
		case eventExecutorRemoved:
			activeCores -= events[i].ActiveCores
			if activeCores < 0 {
				activeCores = 0
			}
			executorCount--
			if executorCount < 0 {
				executorCount = 0
			}
		case eventStageStarted:
			activeStages++
		case eventStageCompleted:
			activeStages--
			if activeStages < 0 {
				activeStages = 0
			}
		}
		events[i].ActiveCores = activeCores
		events[i].ActiveStages = activeStages
		events[i].ExecutorCount = executorCount
	}

	return events
}
