// Package analysis implements the comparative performance-analysis core:
// metric extraction, ranking, aggregation, bottleneck detection and
// cross-application comparison over Spark History Server records.
package analysis

import (
	"fmt"

	"github.com/sparkmcp/spark-history-mcp/internal/errors"
	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// Value is an optional numeric metric. A zero measurement and a missing
// measurement are different things, so absence is tracked explicitly
// instead of defaulting to zero.
type Value struct {
	val     float64
	present bool
}

// Some wraps a measured value.
func Some(v float64) Value { return Value{val: v, present: true} }

// None is the absent value.
var None = Value{}

// Present reports whether the value was actually measured.
func (v Value) Present() bool { return v.present }

// Get returns the value and whether it is present.
func (v Value) Get() (float64, bool) { return v.val, v.present }

func someInt64(p *int64) Value {
	if p == nil {
		return None
	}
	return Some(float64(*p))
}

func someInt(p *int) Value {
	if p == nil {
		return None
	}
	return Some(float64(*p))
}

// MetricKey names a numeric feature extractable from an entity record.
type MetricKey string

const (
	MetricDuration          MetricKey = "duration"
	MetricExecutorRunTime   MetricKey = "executorRunTime"
	MetricExecutorCPUTime   MetricKey = "executorCpuTime"
	MetricJVMGCTime         MetricKey = "jvmGcTime"
	MetricInputBytes        MetricKey = "inputBytes"
	MetricOutputBytes       MetricKey = "outputBytes"
	MetricShuffleReadBytes  MetricKey = "shuffleReadBytes"
	MetricShuffleWriteBytes MetricKey = "shuffleWriteBytes"
	MetricMemorySpilled     MetricKey = "memoryBytesSpilled"
	MetricDiskSpilled       MetricKey = "diskBytesSpilled"
	MetricNumTasks          MetricKey = "numTasks"
	MetricFailedTasks       MetricKey = "numFailedTasks"

	MetricTotalDuration     MetricKey = "totalDuration"
	MetricTotalGCTime       MetricKey = "totalGCTime"
	MetricTotalInputBytes   MetricKey = "totalInputBytes"
	MetricTotalShuffleRead  MetricKey = "totalShuffleRead"
	MetricTotalShuffleWrite MetricKey = "totalShuffleWrite"
	MetricCompletedTasks    MetricKey = "completedTasks"
	MetricMemoryUsed        MetricKey = "memoryUsed"
)

// JobMetricKeys lists keys supported by ExtractJobMetric.
var JobMetricKeys = []MetricKey{MetricDuration, MetricNumTasks, MetricFailedTasks}

// StageMetricKeys lists keys supported by ExtractStageMetric.
var StageMetricKeys = []MetricKey{
	MetricDuration, MetricExecutorRunTime, MetricExecutorCPUTime, MetricJVMGCTime,
	MetricInputBytes, MetricOutputBytes, MetricShuffleReadBytes, MetricShuffleWriteBytes,
	MetricMemorySpilled, MetricDiskSpilled, MetricNumTasks, MetricFailedTasks,
}

// ExecutorMetricKeys lists keys supported by ExtractExecutorMetric.
var ExecutorMetricKeys = []MetricKey{
	MetricTotalDuration, MetricTotalGCTime, MetricTotalInputBytes,
	MetricTotalShuffleRead, MetricTotalShuffleWrite, MetricCompletedTasks,
	MetricFailedTasks, MetricMemoryUsed,
}

// JobDuration returns the job's wall-clock duration in milliseconds, absent
// when either timestamp is missing.
func JobDuration(j spark.JobData) Value {
	if j.SubmissionTime == nil || j.CompletionTime == nil {
		return None
	}
	return Some(float64(j.CompletionTime.Sub(j.SubmissionTime.Time).Milliseconds()))
}

// StageDuration returns the stage attempt's wall-clock duration in
// milliseconds. The first task launch is preferred over submission time as
// the start marker since it excludes scheduler queueing.
func StageDuration(s spark.StageData) Value {
	if s.CompletionTime == nil {
		return None
	}
	start := s.FirstTaskLaunched
	if start == nil {
		start = s.SubmissionTime
	}
	if start == nil {
		return None
	}
	return Some(float64(s.CompletionTime.Sub(start.Time).Milliseconds()))
}

// SQLDuration returns the SQL execution's duration in milliseconds.
func SQLDuration(e spark.ExecutionData) Value {
	return someInt64(e.Duration)
}

// ExtractJobMetric extracts one feature from a job record. A job with no
// index is structurally unusable and reported as malformed.
func ExtractJobMetric(j spark.JobData, key MetricKey) (Value, error) {
	if j.JobID == nil {
		return None, errors.NewMalformedRecord("job", j.Name, "missing jobId")
	}
	switch key {
	case MetricDuration:
		return JobDuration(j), nil
	case MetricNumTasks:
		return someInt(j.NumTasks), nil
	case MetricFailedTasks:
		return someInt(j.NumFailedTasks), nil
	default:
		return None, errors.NewInvalidArgument(fmt.Sprintf("unsupported job metric %q", key))
	}
}

// ExtractStageMetric extracts one feature from a stage record.
func ExtractStageMetric(s spark.StageData, key MetricKey) (Value, error) {
	if s.StageID == nil {
		return None, errors.NewMalformedRecord("stage", s.Name, "missing stageId")
	}
	switch key {
	case MetricDuration:
		return StageDuration(s), nil
	case MetricExecutorRunTime:
		return someInt64(s.ExecutorRunTime), nil
	case MetricExecutorCPUTime:
		return someInt64(s.ExecutorCPUTime), nil
	case MetricJVMGCTime:
		return someInt64(s.JVMGCTime), nil
	case MetricInputBytes:
		return someInt64(s.InputBytes), nil
	case MetricOutputBytes:
		return someInt64(s.OutputBytes), nil
	case MetricShuffleReadBytes:
		return someInt64(s.ShuffleReadBytes), nil
	case MetricShuffleWriteBytes:
		return someInt64(s.ShuffleWriteBytes), nil
	case MetricMemorySpilled:
		return someInt64(s.MemoryBytesSpilled), nil
	case MetricDiskSpilled:
		return someInt64(s.DiskBytesSpilled), nil
	case MetricNumTasks:
		return someInt(s.NumTasks), nil
	case MetricFailedTasks:
		return someInt(s.NumFailedTasks), nil
	default:
		return None, errors.NewInvalidArgument(fmt.Sprintf("unsupported stage metric %q", key))
	}
}

// ExtractExecutorMetric extracts one feature from an executor record.
func ExtractExecutorMetric(e spark.ExecutorSummary, key MetricKey) (Value, error) {
	if e.ID == "" {
		return None, errors.NewMalformedRecord("executor", e.HostPort, "missing executor id")
	}
	switch key {
	case MetricTotalDuration:
		return someInt64(e.TotalDuration), nil
	case MetricTotalGCTime:
		return someInt64(e.TotalGCTime), nil
	case MetricTotalInputBytes:
		return someInt64(e.TotalInputBytes), nil
	case MetricTotalShuffleRead:
		return someInt64(e.TotalShuffleRead), nil
	case MetricTotalShuffleWrite:
		return someInt64(e.TotalShuffleWrite), nil
	case MetricCompletedTasks:
		return someInt(e.CompletedTasks), nil
	case MetricFailedTasks:
		return someInt(e.FailedTasks), nil
	case MetricMemoryUsed:
		return someInt64(e.MemoryUsed), nil
	default:
		return None, errors.NewInvalidArgument(fmt.Sprintf("unsupported executor metric %q", key))
	}
}
