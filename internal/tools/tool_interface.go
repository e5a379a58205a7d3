// Package tools provides the MCP tool implementations for the Spark History
// Server analysis suite.
package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool defines the interface that all MCP tools must implement.
// This provides a standard contract for tool registration and execution.
type Tool interface {
	// Name returns the unique identifier for this tool
	Name() string

	// Description returns a human-readable description of what this tool does
	Description() string

	// InputSchema returns the JSON Schema for the tool's input parameters
	InputSchema() interface{}

	// Execute runs the tool with the given arguments and returns the result
	Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error)

	// Annotations returns optional hints about tool behavior for LLMs.
	// Returns nil if no annotations are needed (defaults will be used).
	Annotations() *mcp.ToolAnnotations

	// DefaultTimeout returns the recommended timeout for this tool type.
	// Returns 0 to use the client/server default timeout.
	DefaultTimeout() time.Duration
}

// EnhancedTool extends Tool with semantic discovery capabilities.
type EnhancedTool interface {
	Tool

	// Metadata returns semantic metadata for tool discovery
	Metadata() *ToolMetadata
}

// ToolMetadata provides semantic information for intelligent tool discovery
type ToolMetadata struct {
	// Categories this tool belongs to (e.g., ["stage", "analysis"])
	Categories []ToolCategory `json:"categories"`

	// Keywords for semantic matching (e.g., ["slow", "bottleneck", "shuffle"])
	Keywords []string `json:"keywords"`

	// Complexity level: "simple", "intermediate", "advanced"
	Complexity string `json:"complexity"`

	// UseCases describes when to use this tool
	UseCases []string `json:"use_cases"`

	// RelatedTools lists tools commonly used together
	RelatedTools []string `json:"related_tools"`

	// ChainPosition indicates where this tool fits in workflows
	// "starter" - good for beginning investigations
	// "middle" - used after initial discovery
	// "finisher" - concluding analysis
	ChainPosition string `json:"chain_position"`
}

// ToolCategory represents the functional category of a tool
type ToolCategory string

// Tool categories for functional grouping
const (
	CategoryApplication ToolCategory = "application"
	CategoryJob         ToolCategory = "job"
	CategoryStage       ToolCategory = "stage"
	CategoryExecutor    ToolCategory = "executor"
	CategorySQL         ToolCategory = "sql"
	CategoryEnvironment ToolCategory = "environment"
	CategoryRanking     ToolCategory = "ranking"
	CategoryAnalysis    ToolCategory = "analysis"
	CategoryComparison  ToolCategory = "comparison"
)

// ToolComplexity levels
const (
	ComplexitySimple       = "simple"
	ComplexityIntermediate = "intermediate"
	ComplexityAdvanced     = "advanced"
)

// ChainPosition values
const (
	ChainStarter  = "starter"
	ChainMiddle   = "middle"
	ChainFinisher = "finisher"
)
