package tools

import (
	"net/http"
	"testing"

	"go.uber.org/zap"
)

// allTools constructs every registered tool against a stub registry.
func allTools(t *testing.T) []Tool {
	t.Helper()

	registry := newTestRegistry(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	logger := zap.NewNop()

	return []Tool{
		NewListApplicationsTool(registry, logger),
		NewGetApplicationTool(registry, logger),
		NewListJobsTool(registry, logger),
		NewListStagesTool(registry, logger),
		NewGetStageTool(registry, logger),
		NewGetStageTaskSummaryTool(registry, logger),
		NewListStageTasksTool(registry, logger),
		NewListExecutorsTool(registry, logger),
		NewGetExecutorTool(registry, logger),
		NewGetExecutorSummaryTool(registry, logger),
		NewGetEnvironmentTool(registry, logger),
		NewListSQLExecutionsTool(registry, logger),
		NewListSlowestJobsTool(registry, logger),
		NewListSlowestStagesTool(registry, logger),
		NewListSlowestSQLQueriesTool(registry, logger),
		NewGetJobBottlenecksTool(registry, logger),
		NewGetResourceUsageTimelineTool(registry, logger),
		NewCompareAppPerformanceTool(registry, logger),
		NewCompareAppEnvironmentsTool(registry, logger),
		NewCompareSQLPlansTool(registry, logger),
	}
}

// TestToolMetadataComplete verifies every tool carries discovery metadata
// with all fields populated.
func TestToolMetadataComplete(t *testing.T) {
	validComplexities := map[string]bool{
		ComplexitySimple:       true,
		ComplexityIntermediate: true,
		ComplexityAdvanced:     true,
	}
	validPositions := map[string]bool{
		ChainStarter:  true,
		ChainMiddle:   true,
		ChainFinisher: true,
	}

	for _, tool := range allTools(t) {
		name := tool.Name()

		enhanced, ok := tool.(EnhancedTool)
		if !ok {
			t.Errorf("tool %q does not expose metadata", name)
			continue
		}

		md := enhanced.Metadata()
		if md == nil {
			t.Errorf("tool %q returned nil metadata", name)
			continue
		}

		if len(md.Categories) == 0 {
			t.Errorf("tool %q has no categories", name)
		}
		if len(md.Keywords) == 0 {
			t.Errorf("tool %q has no keywords", name)
		}
		if len(md.UseCases) == 0 {
			t.Errorf("tool %q has no use cases", name)
		}
		if !validComplexities[md.Complexity] {
			t.Errorf("tool %q has invalid complexity %q", name, md.Complexity)
		}
		if !validPositions[md.ChainPosition] {
			t.Errorf("tool %q has invalid chain position %q", name, md.ChainPosition)
		}
	}
}

// TestToolMetadataRelatedTools verifies cross-references between tools
// point at tools that actually exist.
func TestToolMetadataRelatedTools(t *testing.T) {
	tools := allTools(t)

	names := make(map[string]bool, len(tools))
	for _, tool := range tools {
		names[tool.Name()] = true
	}

	for _, tool := range tools {
		enhanced, ok := tool.(EnhancedTool)
		if !ok {
			continue
		}
		md := enhanced.Metadata()
		if md == nil {
			continue
		}
		for _, related := range md.RelatedTools {
			if !names[related] {
				t.Errorf("tool %q references unknown related tool %q", tool.Name(), related)
			}
			if related == tool.Name() {
				t.Errorf("tool %q references itself as related", tool.Name())
			}
		}
	}
}
