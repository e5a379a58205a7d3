//go:build integration
// +build integration

// Package integration provides integration tests against a live Spark
// History Server. These tests make real API calls and are skipped unless
// a server is configured.
//
// To run integration tests:
//
//	export SHS_SERVER_URL=http://localhost:18080
//	go test -v -tags=integration ./tests/integration/...
//
// Optionally pin a known application with SHS_APP_ID; otherwise the
// tests use the first completed application the server reports.
package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/config"
	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// TestContext holds shared test resources.
type TestContext struct {
	Registry *spark.Registry
	Client   *spark.Client
	Logger   *zap.Logger
	T        *testing.T
}

// NewTestContext builds a registry pointed at the configured history server.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	serverURL := os.Getenv("SHS_SERVER_URL")
	require.NotEmpty(t, serverURL, "SHS_SERVER_URL environment variable must be set")

	logger, err := zap.NewDevelopment()
	require.NoError(t, err, "Failed to create logger")

	cfg := &config.Config{
		Servers: map[string]config.ServerConfig{
			"integration": {URL: serverURL, Default: true},
		},
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    1 * time.Second,
		RetryWaitMax:    5 * time.Second,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
		EnableRateLimit: true,
		RateLimit:       10,
		RateLimitBurst:  20,
	}

	registry, err := spark.NewRegistry(cfg, logger, "integration-test")
	require.NoError(t, err, "Failed to create registry")

	return &TestContext{
		Registry: registry,
		Client:   registry.Default(),
		Logger:   logger,
		T:        t,
	}
}

// Cleanup releases test resources.
func (tc *TestContext) Cleanup() {
	if tc.Registry != nil {
		_ = tc.Registry.Close()
	}
}

// FirstApplicationID returns SHS_APP_ID when set, otherwise the ID of
// the first completed application on the server. Skips the test when
// the server has no applications.
func (tc *TestContext) FirstApplicationID(ctx context.Context) string {
	tc.T.Helper()

	if appID := os.Getenv("SHS_APP_ID"); appID != "" {
		return appID
	}

	apps, err := tc.Client.ListApplications(ctx, spark.ListApplicationsParams{
		Status: []string{"COMPLETED"},
		Limit:  1,
	})
	require.NoError(tc.T, err, "Failed to list applications")
	if len(apps) == 0 {
		tc.T.Skip("History server has no completed applications")
	}
	return apps[0].ID
}

func skipIfShort(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping in short mode")
	}
}

// TestMain validates the test environment.
func TestMain(m *testing.M) {
	// The .env file is optional; environment variables set directly
	// work the same way.
	_ = godotenv.Load("../../.env")

	if os.Getenv("SHS_SERVER_URL") == "" {
		fmt.Println("Skipping integration tests: SHS_SERVER_URL not set")
		fmt.Println("To run integration tests, point SHS_SERVER_URL at a Spark History Server:")
		fmt.Println("  export SHS_SERVER_URL=http://localhost:18080")
		fmt.Println("  Or create a .env file in the project root")
		os.Exit(0)
	}

	os.Exit(m.Run())
}
