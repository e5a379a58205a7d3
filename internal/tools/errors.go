package tools

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sparkmcp/spark-history-mcp/internal/errors"
)

var titleCaser = cases.Title(language.English)

// NewToolResultError creates a new tool result with an error message
func NewToolResultError(message string) *mcp.CallToolResult {
	if message == "" {
		message = "An unknown error occurred"
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: message,
			},
		},
		IsError: true,
	}
}

// NewToolResultErrorWithSuggestion creates a tool result with an error and recovery guidance
func NewToolResultErrorWithSuggestion(message, suggestion string) *mcp.CallToolResult {
	fullMessage := fmt.Sprintf("%s\n\n💡 **Suggestion:** %s", message, suggestion)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fullMessage,
			},
		},
		IsError: true,
	}
}

// HandleFetchError converts a history-server fetch error into a tool result
// with an actionable suggestion based on the error kind.
func HandleFetchError(err error, entityType, id string) *mcp.CallToolResult {
	switch {
	case errors.IsNotFound(err):
		return NewToolResultErrorWithSuggestion(
			fmt.Sprintf("%s not found: %s", titleCaser.String(entityType), id),
			fmt.Sprintf("Check the %s ID, or use a list tool to discover valid IDs. Completed applications may have been evicted from the history server.", entityType),
		)
	case errors.IsUnavailable(err):
		return NewToolResultErrorWithSuggestion(
			err.Error(),
			"The history server is unreachable or overloaded. Verify the server URL and try again.",
		)
	case errors.IsMalformedRecord(err):
		return NewToolResultErrorWithSuggestion(
			err.Error(),
			"The history server returned an unexpected response shape. Check that the URL points at a Spark History Server REST API.",
		)
	default:
		return NewToolResultError(err.Error())
	}
}
