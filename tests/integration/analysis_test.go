//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkmcp/spark-history-mcp/internal/analysis"
	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// TestServerVersion verifies the history server is reachable and
// reports a Spark version.
func TestServerVersion(t *testing.T) {
	tc := NewTestContext(t)
	defer tc.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	version, err := tc.Client.GetVersion(ctx)
	require.NoError(t, err, "Failed to get server version")
	assert.NotEmpty(t, version.Spark, "Server should report a Spark version")
}

// TestApplicationListing exercises the application listing and lookup
// round trip against real data.
func TestApplicationListing(t *testing.T) {
	skipIfShort(t)
	tc := NewTestContext(t)
	defer tc.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	appID := tc.FirstApplicationID(ctx)

	app, err := tc.Client.GetApplication(ctx, appID)
	require.NoError(t, err, "Failed to get application %s", appID)
	assert.Equal(t, appID, app.ID)
	assert.NotEmpty(t, app.Attempts, "Application should have at least one attempt")
}

// TestJobRanking ranks real jobs by duration and checks the ordering
// invariant holds on live data.
func TestJobRanking(t *testing.T) {
	skipIfShort(t)
	tc := NewTestContext(t)
	defer tc.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	appID := tc.FirstApplicationID(ctx)

	jobs, err := tc.Client.ListJobs(ctx, appID, nil)
	require.NoError(t, err, "Failed to list jobs")
	if len(jobs) == 0 {
		t.Skip("Application has no jobs")
	}

	ranked, _, err := analysis.RankJobs(jobs, analysis.MetricDuration, 5, nil)
	require.NoError(t, err, "Failed to rank jobs")

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Value, ranked[i].Value,
			"Ranked jobs must be ordered by descending duration")
	}
}

// TestBottleneckReport runs the bottleneck analyzer over real stage
// metrics and sanity checks the report shape.
func TestBottleneckReport(t *testing.T) {
	skipIfShort(t)
	tc := NewTestContext(t)
	defer tc.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	appID := tc.FirstApplicationID(ctx)

	stages, err := tc.Client.ListStages(ctx, appID, spark.ListStagesParams{WithSummaries: true})
	require.NoError(t, err, "Failed to list stages")
	if len(stages) == 0 {
		t.Skip("Application has no stages")
	}

	executors, err := tc.Client.ListExecutors(ctx, appID, true)
	require.NoError(t, err, "Failed to list executors")

	report := analysis.AnalyzeBottlenecks(stages, executors, analysis.AnalyzerOptions{})
	assert.NotEmpty(t, report.Summary, "Report should carry a summary")
	for _, s := range report.Stages {
		for category, fraction := range s.CategoryFractions {
			assert.GreaterOrEqual(t, fraction, 0.0, "category %s", category)
			assert.LessOrEqual(t, fraction, 1.0, "category %s", category)
		}
	}
}

// TestEnvironmentFetch pulls the Spark properties of a real application.
func TestEnvironmentFetch(t *testing.T) {
	skipIfShort(t)
	tc := NewTestContext(t)
	defer tc.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	appID := tc.FirstApplicationID(ctx)

	env, err := tc.Client.GetEnvironment(ctx, appID)
	require.NoError(t, err, "Failed to get environment")
	assert.NotEmpty(t, env.SparkProperties, "Environment should include Spark properties")
}
