package analysis

import (
	"testing"
	"time"

	"github.com/sparkmcp/spark-history-mcp/internal/errors"
	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

func TestJobDurationAbsentVsZero(t *testing.T) {
	// Missing completion timestamp: duration is absent, not zero.
	incomplete := makeJob(0, spark.JobStatusFailed, -1)
	if JobDuration(incomplete).Present() {
		t.Error("job without timestamps reported a duration")
	}

	// Instantaneous job: zero is a real measured value.
	instant := makeJob(1, spark.JobStatusSucceeded, 0)
	v, ok := JobDuration(instant).Get()
	if !ok {
		t.Fatal("zero-duration job reported absent")
	}
	if v != 0 {
		t.Errorf("duration = %v, want 0", v)
	}
}

func TestStageDurationPrefersFirstTaskLaunch(t *testing.T) {
	s := makeStage(0, spark.StageStatusComplete, 5000)
	// submission well before first task launch
	s.SubmissionTime = spark.NewTime(baseTime.Add(-10 * time.Second))

	v, ok := StageDuration(s).Get()
	if !ok || v != 5000 {
		t.Errorf("duration = %v (present=%v), want 5000 from first task launch", v, ok)
	}
}

func TestExtractStageMetricMissingID(t *testing.T) {
	s := spark.StageData{Name: "orphan", Status: spark.StageStatusComplete}
	_, err := ExtractStageMetric(s, MetricDuration)
	if !errors.IsMalformedRecord(err) {
		t.Errorf("expected MalformedRecord, got %v", err)
	}
}

func TestExtractExecutorMetric(t *testing.T) {
	e := spark.ExecutorSummary{ID: "3", TotalGCTime: i64(250)}

	v, err := ExtractExecutorMetric(e, MetricTotalGCTime)
	if err != nil {
		t.Fatal(err)
	}
	if f, ok := v.Get(); !ok || f != 250 {
		t.Errorf("gc time = %v (present=%v), want 250", f, ok)
	}

	v, err = ExtractExecutorMetric(e, MetricTotalShuffleRead)
	if err != nil {
		t.Fatal(err)
	}
	if v.Present() {
		t.Error("unreported counter should be absent")
	}

	_, err = ExtractExecutorMetric(spark.ExecutorSummary{}, MetricTotalGCTime)
	if !errors.IsMalformedRecord(err) {
		t.Errorf("expected MalformedRecord for missing id, got %v", err)
	}
}
