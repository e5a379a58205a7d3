package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestStructuredError(t *testing.T) {
	tests := []struct {
		name     string
		error    *StructuredError
		wantCode ErrorCode
		wantCat  ErrorCategory
	}{
		{
			name:     "invalid argument error",
			error:    NewInvalidArgument("n must be non-negative"),
			wantCode: CodeInvalidArgument,
			wantCat:  ClientError,
		},
		{
			name:     "missing parameter error",
			error:    NewMissingParameter("app_id"),
			wantCode: CodeInvalidArgument,
			wantCat:  ClientError,
		},
		{
			name:     "not found error",
			error:    NewNotFound("application", "app-123"),
			wantCode: CodeNotFound,
			wantCat:  ClientError,
		},
		{
			name:     "unavailable error",
			error:    NewUnavailable("connection refused"),
			wantCode: CodeUnavailable,
			wantCat:  ExternalError,
		},
		{
			name:     "malformed record error",
			error:    NewMalformedRecord("job", "7", "missing jobId"),
			wantCode: CodeMalformedRecord,
			wantCat:  DataError,
		},
		{
			name:     "timeout error",
			error:    NewTimeout("list stages"),
			wantCode: CodeTimeout,
			wantCat:  ExternalError,
		},
		{
			name:     "internal error",
			error:    NewInternalError("something went wrong"),
			wantCode: CodeInternalError,
			wantCat:  ExternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.error.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", tt.error.Code, tt.wantCode)
			}
			if tt.error.Category != tt.wantCat {
				t.Errorf("Category = %v, want %v", tt.error.Category, tt.wantCat)
			}
			if tt.error.Error() == "" {
				t.Error("Error() returned empty string")
			}
		})
	}
}

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status   int
		wantCode ErrorCode
	}{
		{400, CodeInvalidArgument},
		{404, CodeNotFound},
		{500, CodeUnavailable},
		{502, CodeUnavailable},
		{503, CodeUnavailable},
		{418, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := FromHTTPStatus(tt.status, "body")
			if err.Code != tt.wantCode {
				t.Errorf("FromHTTPStatus(%d) code = %v, want %v", tt.status, err.Code, tt.wantCode)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(NewNotFound("application", "x")) {
		t.Error("IsNotFound should match NotFound error")
	}
	if !IsUnavailable(NewUnavailable("down")) {
		t.Error("IsUnavailable should match Unavailable error")
	}
	if !IsInvalidArgument(NewInvalidArgument("bad")) {
		t.Error("IsInvalidArgument should match InvalidArgument error")
	}
	if !IsMalformedRecord(NewMalformedRecord("stage", "1", "no id")) {
		t.Error("IsMalformedRecord should match MalformedRecord error")
	}
	if IsNotFound(NewUnavailable("down")) {
		t.Error("IsNotFound should not match Unavailable error")
	}
	if IsNotFound(fmt.Errorf("plain error")) {
		t.Error("IsNotFound should not match plain error")
	}
}

func TestPredicatesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("fetching jobs: %w", NewNotFound("application", "app-1"))
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should unwrap wrapped errors")
	}
}

func TestToJSON(t *testing.T) {
	err := NewNotFound("application", "app-1")
	j := err.ToJSON()
	if !strings.Contains(j, `"code":"NOT_FOUND"`) {
		t.Errorf("ToJSON missing code: %s", j)
	}
	if !strings.Contains(j, "app-1") {
		t.Errorf("ToJSON missing entity id: %s", j)
	}
}
