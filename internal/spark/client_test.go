package spark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/config"
	"github.com/sparkmcp/spark-history-mcp/internal/errors"
)

// newTestClient creates a client pointing at an httptest server
func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	cfg := &config.Config{
		Timeout:         5 * time.Second,
		MaxRetries:      2,
		RetryWaitMin:    10 * time.Millisecond,
		RetryWaitMax:    50 * time.Millisecond,
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Second,
		EnableRateLimit: false,
	}
	sc := config.ServerConfig{URL: serverURL}

	c, err := NewClient(cfg, "test", sc, zap.NewNop(), "test")
	require.NoError(t, err)
	return c
}

func TestGetApplication(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/applications/app-1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"id": "app-1",
			"name": "ETL nightly",
			"attempts": [
				{"attemptId": "1", "duration": 120000, "completed": true, "sparkUser": "etl"}
			]
		}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	app, err := c.GetApplication(context.Background(), "app-1")
	require.NoError(t, err)

	assert.Equal(t, "app-1", app.ID)
	assert.Equal(t, "ETL nightly", app.Name)
	require.Len(t, app.Attempts, 1)
	assert.True(t, app.Attempts[0].Completed)
}

func TestGetApplicationNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`unknown app`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetApplication(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestListJobsStatusFilter(t *testing.T) {
	var capturedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[{"jobId": 3, "status": "SUCCEEDED"}]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	jobs, err := c.ListJobs(context.Background(), "app-1", []string{"SUCCEEDED", "FAILED"})
	require.NoError(t, err)

	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].JobID)
	assert.Equal(t, 3, *jobs[0].JobID)
	assert.Contains(t, capturedQuery, "status=SUCCEEDED")
	assert.Contains(t, capturedQuery, "status=FAILED")
}

func TestListExecutorsEndpointSelection(t *testing.T) {
	tests := []struct {
		name            string
		includeInactive bool
		expectedPath    string
	}{
		{
			name:            "active only",
			includeInactive: false,
			expectedPath:    "/api/v1/applications/app-1/executors",
		},
		{
			name:            "include inactive",
			includeInactive: true,
			expectedPath:    "/api/v1/applications/app-1/allexecutors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedPath = r.URL.Path
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`[]`))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL)
			_, err := c.ListExecutors(context.Background(), "app-1", tt.includeInactive)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPath, capturedPath)
		})
	}
}

func TestGetStageTaskSummaryDefaultQuantiles(t *testing.T) {
	var capturedQuantiles string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuantiles = r.URL.Query().Get("quantiles")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"quantiles": [0.05, 0.25, 0.5, 0.75, 0.95]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetStageTaskSummary(context.Background(), "app-1", 2, 0, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultQuantiles, capturedQuantiles)
}

func TestRetryOnServerError(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requestCount++
		if requestCount == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"spark": "3.5.1"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	v, err := c.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.5.1", v.Spark)
	assert.Equal(t, 2, requestCount)
}

func TestNoRetryOnBadRequest(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`bad request`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetVersion(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, requestCount)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestMalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetVersion(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsMalformedRecord(err))
}

func TestAuthHeaders(t *testing.T) {
	tests := []struct {
		name         string
		auth         config.AuthConfig
		expectedAuth string
	}{
		{
			name:         "bearer token",
			auth:         config.AuthConfig{Token: "secret-token"},
			expectedAuth: "Bearer secret-token",
		},
		{
			name:         "token wins over basic",
			auth:         config.AuthConfig{Token: "secret-token", Username: "u", Password: "p"},
			expectedAuth: "Bearer secret-token",
		},
		{
			name:         "no auth",
			auth:         config.AuthConfig{},
			expectedAuth: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedAuth = r.Header.Get("Authorization")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"spark": "3.5.1"}`))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL)
			c.auth = tt.auth

			_, err := c.GetVersion(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expectedAuth, capturedAuth)
		})
	}
}

func TestBasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "spark", user)
		assert.Equal(t, "hunter2", pass)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"spark": "3.5.1"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.auth = config.AuthConfig{Username: "spark", Password: "hunter2"}

	_, err := c.GetVersion(context.Background())
	require.NoError(t, err)
}

func TestListAllSQLExecutionsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		w.WriteHeader(http.StatusOK)
		switch offset {
		case 0:
			_, _ = w.Write([]byte(`[{"id": 0}, {"id": 1}]`))
		case 2:
			_, _ = w.Write([]byte(`[{"id": 2}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	executions, err := c.ListAllSQLExecutions(context.Background(), "app-1", "", false, 2)
	require.NoError(t, err)

	require.Len(t, executions, 3)
	assert.Equal(t, 0, executions[0].ID)
	assert.Equal(t, 2, executions[2].ID)
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetVersion(ctx)
	require.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "context canceled", err: context.Canceled, expected: false},
		{name: "context deadline exceeded", err: context.DeadlineExceeded, expected: false},
		{name: "connection reset message", err: &mockError{msg: "connection reset by peer"}, expected: true},
		{name: "connection refused message", err: &mockError{msg: "connection refused"}, expected: true},
		{name: "i/o timeout message", err: &mockError{msg: "i/o timeout"}, expected: true},
		{name: "EOF", err: &mockError{msg: "EOF"}, expected: true},
		{name: "unknown error", err: &mockError{msg: "some random error"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryable(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   bool
	}{
		{name: "429 Too Many Requests", statusCode: http.StatusTooManyRequests, expected: true},
		{name: "500 Internal Server Error", statusCode: http.StatusInternalServerError, expected: true},
		{name: "503 Service Unavailable", statusCode: http.StatusServiceUnavailable, expected: true},
		{name: "200 OK", statusCode: http.StatusOK, expected: false},
		{name: "400 Bad Request", statusCode: http.StatusBadRequest, expected: false},
		{name: "404 Not Found", statusCode: http.StatusNotFound, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldRetry(tt.statusCode))
		})
	}
}

type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}
