// Package errors defines the structured error taxonomy shared by the data
// provider client, the analysis core, and the tool layer.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCategory classifies the type of error
type ErrorCategory string

const (
	// ClientError indicates the error was caused by the caller
	ClientError ErrorCategory = "CLIENT_ERROR"
	// DataError indicates a fetched record could not be used
	DataError ErrorCategory = "DATA_ERROR"
	// ExternalError indicates the history server failed or was unreachable
	ExternalError ErrorCategory = "EXTERNAL_ERROR"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeUnavailable     ErrorCode = "UNAVAILABLE"
	CodeMalformedRecord ErrorCode = "MALFORMED_RECORD"
	CodeTimeout         ErrorCode = "TIMEOUT"
	CodeInternalError   ErrorCode = "INTERNAL_ERROR"
)

// StructuredError carries a code, category, message and optional recovery
// suggestion. It is the only error type crossing package boundaries.
type StructuredError struct {
	Code       ErrorCode     `json:"code"`
	Category   ErrorCategory `json:"category"`
	Message    string        `json:"message"`
	Details    interface{}   `json:"details,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Category, e.Message)
}

// ToJSON converts the error to a JSON string
func (e *StructuredError) ToJSON() string {
	bytes, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"code":"%s","category":"%s","message":"%s"}`, e.Code, e.Category, e.Message)
	}
	return string(bytes)
}

// New creates a new structured error
func New(code ErrorCode, category ErrorCategory, message string) *StructuredError {
	return &StructuredError{
		Code:     code,
		Category: category,
		Message:  message,
	}
}

// WithDetails adds details to the error
func (e *StructuredError) WithDetails(details interface{}) *StructuredError {
	e.Details = details
	return e
}

// WithSuggestion adds a recovery suggestion to the error
func (e *StructuredError) WithSuggestion(suggestion string) *StructuredError {
	e.Suggestion = suggestion
	return e
}

// NewInvalidArgument reports a caller-supplied parameter violating a
// constraint. Never retried.
func NewInvalidArgument(message string) *StructuredError {
	return New(CodeInvalidArgument, ClientError, message).
		WithSuggestion("Check the input parameters and try again")
}

// NewMissingParameter reports a required parameter that was not supplied.
func NewMissingParameter(param string) *StructuredError {
	return New(CodeInvalidArgument, ClientError, fmt.Sprintf("Required parameter '%s' is missing", param)).
		WithSuggestion(fmt.Sprintf("Provide the '%s' parameter", param))
}

// NewNotFound reports an application or entity unknown to the history server.
func NewNotFound(entityType, id string) *StructuredError {
	return New(CodeNotFound, ClientError, fmt.Sprintf("%s with ID '%s' not found", entityType, id)).
		WithDetails(map[string]interface{}{"entity_type": entityType, "entity_id": id}).
		WithSuggestion("Verify the ID against the history server's application list")
}

// NewUnavailable reports a transient provider failure; the caller may retry.
func NewUnavailable(message string) *StructuredError {
	return New(CodeUnavailable, ExternalError, message).
		WithSuggestion("Check that the Spark History Server is reachable and try again")
}

// NewMalformedRecord reports a fetched record that could not be normalized.
// The entity id identifies the offending record.
func NewMalformedRecord(entityType, id, cause string) *StructuredError {
	return New(CodeMalformedRecord, DataError, fmt.Sprintf("%s record '%s' could not be parsed: %s", entityType, id, cause)).
		WithDetails(map[string]interface{}{"entity_type": entityType, "entity_id": id})
}

// NewTimeout reports an operation exceeding its deadline.
func NewTimeout(operation string) *StructuredError {
	return New(CodeTimeout, ExternalError, fmt.Sprintf("Operation '%s' timed out", operation)).
		WithSuggestion("Try again or raise SHS_TIMEOUT")
}

// NewInternalError reports an unexpected failure inside the server.
func NewInternalError(message string) *StructuredError {
	return New(CodeInternalError, ExternalError, message).
		WithSuggestion("Try again later; if the issue persists, check server logs")
}

// FromHTTPStatus maps a history-server HTTP status to a structured error.
func FromHTTPStatus(statusCode int, responseBody string) *StructuredError {
	switch {
	case statusCode == 400:
		return NewInvalidArgument(responseBody)
	case statusCode == 404:
		return New(CodeNotFound, ClientError, "Resource not found").
			WithSuggestion("Verify the application, stage, or executor ID")
	case statusCode >= 500 && statusCode < 600:
		return NewUnavailable(fmt.Sprintf("history server error (HTTP %d): %s", statusCode, responseBody))
	default:
		return NewInternalError(fmt.Sprintf("unexpected HTTP status %d: %s", statusCode, responseBody))
	}
}

// IsNotFound reports whether err is a NotFound structured error.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsUnavailable reports whether err is an Unavailable structured error.
func IsUnavailable(err error) bool {
	return hasCode(err, CodeUnavailable)
}

// IsInvalidArgument reports whether err is an InvalidArgument structured error.
func IsInvalidArgument(err error) bool {
	return hasCode(err, CodeInvalidArgument)
}

// IsMalformedRecord reports whether err is a MalformedRecord structured error.
func IsMalformedRecord(err error) bool {
	return hasCode(err, CodeMalformedRecord)
}

func hasCode(err error, code ErrorCode) bool {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code == code
	}
	return false
}
