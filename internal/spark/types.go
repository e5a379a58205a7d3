// Package spark provides a read-only client and data model for the Spark
// History Server REST API (api/v1).
package spark

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// sparkTimeLayout is the timestamp format the history server emits. It is
// not RFC 3339: the zone is a literal "GMT" suffix.
const sparkTimeLayout = "2006-01-02T15:04:05.000GMT"

// Time wraps time.Time to parse the history server's timestamp format.
// RFC 3339 input is accepted too; output is RFC 3339.
type Time struct {
	time.Time
}

// NewTime wraps a time.Time value.
func NewTime(t time.Time) *Time {
	return &Time{Time: t}
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if parsed, err := time.Parse(sparkTimeLayout, s); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}

// Job, stage, task and SQL execution statuses as reported by the API.
const (
	JobStatusRunning   = "RUNNING"
	JobStatusSucceeded = "SUCCEEDED"
	JobStatusFailed    = "FAILED"
	JobStatusUnknown   = "UNKNOWN"

	StageStatusActive   = "ACTIVE"
	StageStatusComplete = "COMPLETE"
	StageStatusFailed   = "FAILED"
	StageStatusPending  = "PENDING"
	StageStatusSkipped  = "SKIPPED"

	TaskStatusRunning = "RUNNING"
	TaskStatusSuccess = "SUCCESS"
	TaskStatusFailed  = "FAILED"
	TaskStatusKilled  = "KILLED"

	SQLStatusRunning   = "RUNNING"
	SQLStatusCompleted = "COMPLETED"
	SQLStatusFailed    = "FAILED"
)

// ApplicationInfo describes a Spark application and its attempts.
type ApplicationInfo struct {
	ID                  string                   `json:"id"`
	Name                string                   `json:"name"`
	CoresGranted        *int                     `json:"coresGranted,omitempty"`
	MaxCores            *int                     `json:"maxCores,omitempty"`
	CoresPerExecutor    *int                     `json:"coresPerExecutor,omitempty"`
	MemoryPerExecutorMB *int                     `json:"memoryPerExecutorMB,omitempty"`
	Attempts            []ApplicationAttemptInfo `json:"attempts"`
}

// CurrentAttempt returns the most recent attempt, which the history server
// lists first. The bool is false when the application has no attempts.
func (a ApplicationInfo) CurrentAttempt() (ApplicationAttemptInfo, bool) {
	if len(a.Attempts) == 0 {
		return ApplicationAttemptInfo{}, false
	}
	return a.Attempts[0], true
}

// ApplicationAttemptInfo describes one execution run of an application.
type ApplicationAttemptInfo struct {
	AttemptID       string `json:"attemptId,omitempty"`
	StartTime       *Time  `json:"startTime,omitempty"`
	EndTime         *Time  `json:"endTime,omitempty"`
	LastUpdated     *Time  `json:"lastUpdated,omitempty"`
	Duration        int64  `json:"duration"`
	SparkUser       string `json:"sparkUser,omitempty"`
	AppSparkVersion string `json:"appSparkVersion,omitempty"`
	Completed       bool   `json:"completed"`
}

// JobData describes a job within an application attempt.
type JobData struct {
	JobID              *int   `json:"jobId,omitempty"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	SubmissionTime     *Time  `json:"submissionTime,omitempty"`
	CompletionTime     *Time  `json:"completionTime,omitempty"`
	StageIDs           []int  `json:"stageIds,omitempty"`
	Status             string `json:"status"`
	NumTasks           *int   `json:"numTasks,omitempty"`
	NumActiveTasks     *int   `json:"numActiveTasks,omitempty"`
	NumCompletedTasks  *int   `json:"numCompletedTasks,omitempty"`
	NumSkippedTasks    *int   `json:"numSkippedTasks,omitempty"`
	NumFailedTasks     *int   `json:"numFailedTasks,omitempty"`
	NumKilledTasks     *int   `json:"numKilledTasks,omitempty"`
	NumActiveStages    *int   `json:"numActiveStages,omitempty"`
	NumCompletedStages *int   `json:"numCompletedStages,omitempty"`
	NumSkippedStages   *int   `json:"numSkippedStages,omitempty"`
	NumFailedStages    *int   `json:"numFailedStages,omitempty"`
}

// StageData describes a stage attempt, including aggregated task metrics.
type StageData struct {
	Status            string `json:"status"`
	StageID           *int   `json:"stageId,omitempty"`
	AttemptID         *int   `json:"attemptId,omitempty"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	NumTasks          *int   `json:"numTasks,omitempty"`
	NumActiveTasks    *int   `json:"numActiveTasks,omitempty"`
	NumCompleteTasks  *int   `json:"numCompleteTasks,omitempty"`
	NumFailedTasks    *int   `json:"numFailedTasks,omitempty"`
	NumKilledTasks    *int   `json:"numKilledTasks,omitempty"`
	SubmissionTime    *Time  `json:"submissionTime,omitempty"`
	FirstTaskLaunched *Time  `json:"firstTaskLaunchedTime,omitempty"`
	CompletionTime    *Time  `json:"completionTime,omitempty"`
	FailureReason     string `json:"failureReason,omitempty"`

	// Aggregated task timing metrics, all milliseconds except where noted.
	ExecutorDeserializeTime *int64 `json:"executorDeserializeTime,omitempty"`
	ExecutorRunTime         *int64 `json:"executorRunTime,omitempty"`
	ExecutorCPUTime         *int64 `json:"executorCpuTime,omitempty"` // nanoseconds
	JVMGCTime               *int64 `json:"jvmGcTime,omitempty"`
	ResultSerializationTime *int64 `json:"resultSerializationTime,omitempty"`
	ShuffleFetchWaitTime    *int64 `json:"shuffleFetchWaitTime,omitempty"`
	ShuffleWriteTime        *int64 `json:"shuffleWriteTime,omitempty"` // nanoseconds

	// Memory and spill
	MemoryBytesSpilled  *int64 `json:"memoryBytesSpilled,omitempty"`
	DiskBytesSpilled    *int64 `json:"diskBytesSpilled,omitempty"`
	PeakExecutionMemory *int64 `json:"peakExecutionMemory,omitempty"`

	// I/O
	InputBytes          *int64 `json:"inputBytes,omitempty"`
	InputRecords        *int64 `json:"inputRecords,omitempty"`
	OutputBytes         *int64 `json:"outputBytes,omitempty"`
	OutputRecords       *int64 `json:"outputRecords,omitempty"`
	ShuffleReadBytes    *int64 `json:"shuffleReadBytes,omitempty"`
	ShuffleReadRecords  *int64 `json:"shuffleReadRecords,omitempty"`
	ShuffleWriteBytes   *int64 `json:"shuffleWriteBytes,omitempty"`
	ShuffleWriteRecords *int64 `json:"shuffleWriteRecords,omitempty"`

	SchedulingPool string `json:"schedulingPool,omitempty"`

	TaskMetricsDistributions *TaskMetricDistributions `json:"taskMetricsDistributions,omitempty"`
}

// TaskData describes a single task within a stage attempt.
type TaskData struct {
	TaskID       *int64       `json:"taskId,omitempty"`
	Index        *int         `json:"index,omitempty"`
	Attempt      *int         `json:"attempt,omitempty"`
	LaunchTime   *Time        `json:"launchTime,omitempty"`
	Duration     *int64       `json:"duration,omitempty"`
	ExecutorID   string       `json:"executorId,omitempty"`
	Host         string       `json:"host,omitempty"`
	Status       string       `json:"status,omitempty"`
	TaskLocality string       `json:"taskLocality,omitempty"`
	Speculative  bool         `json:"speculative,omitempty"`
	TaskMetrics  *TaskMetrics `json:"taskMetrics,omitempty"`
}

// TaskMetrics carries the per-task timing fields used by the analyzer.
type TaskMetrics struct {
	ExecutorDeserializeTime *int64 `json:"executorDeserializeTime,omitempty"`
	ExecutorRunTime         *int64 `json:"executorRunTime,omitempty"`
	JVMGCTime               *int64 `json:"jvmGcTime,omitempty"`
	ResultSerializationTime *int64 `json:"resultSerializationTime,omitempty"`
	MemoryBytesSpilled      *int64 `json:"memoryBytesSpilled,omitempty"`
	DiskBytesSpilled        *int64 `json:"diskBytesSpilled,omitempty"`
	PeakExecutionMemory     *int64 `json:"peakExecutionMemory,omitempty"`
}

// TaskMetricDistributions holds quantile vectors for task metrics of a
// stage attempt. Each metric slice is parallel to Quantiles.
type TaskMetricDistributions struct {
	Quantiles []float64 `json:"quantiles"`

	Duration                []float64 `json:"duration,omitempty"`
	ExecutorDeserializeTime []float64 `json:"executorDeserializeTime,omitempty"`
	ExecutorRunTime         []float64 `json:"executorRunTime,omitempty"`
	ExecutorCPUTime         []float64 `json:"executorCpuTime,omitempty"`
	ResultSize              []float64 `json:"resultSize,omitempty"`
	JVMGCTime               []float64 `json:"jvmGcTime,omitempty"`
	ResultSerializationTime []float64 `json:"resultSerializationTime,omitempty"`
	GettingResultTime       []float64 `json:"gettingResultTime,omitempty"`
	SchedulerDelay          []float64 `json:"schedulerDelay,omitempty"`
	PeakExecutionMemory     []float64 `json:"peakExecutionMemory,omitempty"`
	MemoryBytesSpilled      []float64 `json:"memoryBytesSpilled,omitempty"`
	DiskBytesSpilled        []float64 `json:"diskBytesSpilled,omitempty"`

	InputMetrics        *InputMetricDistributions        `json:"inputMetrics,omitempty"`
	OutputMetrics       *OutputMetricDistributions       `json:"outputMetrics,omitempty"`
	ShuffleReadMetrics  *ShuffleReadMetricDistributions  `json:"shuffleReadMetrics,omitempty"`
	ShuffleWriteMetrics *ShuffleWriteMetricDistributions `json:"shuffleWriteMetrics,omitempty"`
}

// InputMetricDistributions holds input I/O quantiles.
type InputMetricDistributions struct {
	BytesRead   []float64 `json:"bytesRead,omitempty"`
	RecordsRead []float64 `json:"recordsRead,omitempty"`
}

// OutputMetricDistributions holds output I/O quantiles.
type OutputMetricDistributions struct {
	BytesWritten   []float64 `json:"bytesWritten,omitempty"`
	RecordsWritten []float64 `json:"recordsWritten,omitempty"`
}

// ShuffleReadMetricDistributions holds shuffle-read quantiles.
type ShuffleReadMetricDistributions struct {
	ReadBytes     []float64 `json:"readBytes,omitempty"`
	ReadRecords   []float64 `json:"readRecords,omitempty"`
	FetchWaitTime []float64 `json:"fetchWaitTime,omitempty"`
}

// ShuffleWriteMetricDistributions holds shuffle-write quantiles.
type ShuffleWriteMetricDistributions struct {
	WriteBytes   []float64 `json:"writeBytes,omitempty"`
	WriteRecords []float64 `json:"writeRecords,omitempty"`
	WriteTime    []float64 `json:"writeTime,omitempty"`
}

// MemoryMetrics carries executor storage-memory usage.
type MemoryMetrics struct {
	UsedOnHeapStorageMemory   *int64 `json:"usedOnHeapStorageMemory,omitempty"`
	UsedOffHeapStorageMemory  *int64 `json:"usedOffHeapStorageMemory,omitempty"`
	TotalOnHeapStorageMemory  *int64 `json:"totalOnHeapStorageMemory,omitempty"`
	TotalOffHeapStorageMemory *int64 `json:"totalOffHeapStorageMemory,omitempty"`
}

// ExecutorSummary describes an executor's allocation and cumulative counters.
type ExecutorSummary struct {
	ID                string            `json:"id"`
	HostPort          string            `json:"hostPort,omitempty"`
	IsActive          bool              `json:"isActive"`
	RDDBlocks         *int              `json:"rddBlocks,omitempty"`
	MemoryUsed        *int64            `json:"memoryUsed,omitempty"`
	DiskUsed          *int64            `json:"diskUsed,omitempty"`
	TotalCores        *int              `json:"totalCores,omitempty"`
	MaxTasks          *int              `json:"maxTasks,omitempty"`
	ActiveTasks       *int              `json:"activeTasks,omitempty"`
	FailedTasks       *int              `json:"failedTasks,omitempty"`
	CompletedTasks    *int              `json:"completedTasks,omitempty"`
	TotalTasks        *int              `json:"totalTasks,omitempty"`
	TotalDuration     *int64            `json:"totalDuration,omitempty"`
	TotalGCTime       *int64            `json:"totalGCTime,omitempty"`
	TotalInputBytes   *int64            `json:"totalInputBytes,omitempty"`
	TotalShuffleRead  *int64            `json:"totalShuffleRead,omitempty"`
	TotalShuffleWrite *int64            `json:"totalShuffleWrite,omitempty"`
	MaxMemory         *int64            `json:"maxMemory,omitempty"`
	AddTime           *Time             `json:"addTime,omitempty"`
	RemoveTime        *Time             `json:"removeTime,omitempty"`
	RemoveReason      string            `json:"removeReason,omitempty"`
	MemoryMetrics     *MemoryMetrics    `json:"memoryMetrics,omitempty"`
	ExecutorLogs      map[string]string `json:"executorLogs,omitempty"`
	ResourceProfileID *int              `json:"resourceProfileId,omitempty"`
}

// RuntimeInfo carries JVM/Scala runtime versions.
type RuntimeInfo struct {
	JavaVersion  string `json:"javaVersion,omitempty"`
	JavaHome     string `json:"javaHome,omitempty"`
	ScalaVersion string `json:"scalaVersion,omitempty"`
}

// PropertyPair is a single (key, value) configuration entry. The history
// server encodes these as two-element JSON arrays.
type PropertyPair [2]string

// Key returns the configuration key.
func (p PropertyPair) Key() string { return p[0] }

// Value returns the configuration value.
func (p PropertyPair) Value() string { return p[1] }

// ApplicationEnvironmentInfo is the environment snapshot for an attempt.
type ApplicationEnvironmentInfo struct {
	Runtime          RuntimeInfo    `json:"runtime"`
	SparkProperties  []PropertyPair `json:"sparkProperties,omitempty"`
	HadoopProperties []PropertyPair `json:"hadoopProperties,omitempty"`
	SystemProperties []PropertyPair `json:"systemProperties,omitempty"`
	ClasspathEntries []PropertyPair `json:"classpathEntries,omitempty"`
}

// SQLMetric is a named metric on a SQL plan node.
type SQLMetric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SQLNode is a node in a SQL execution plan graph.
type SQLNode struct {
	NodeID              int         `json:"nodeId"`
	NodeName            string      `json:"nodeName"`
	WholeStageCodegenID *int        `json:"wholeStageCodegenId,omitempty"`
	Metrics             []SQLMetric `json:"metrics,omitempty"`
}

// SQLEdge is an edge in a SQL execution plan graph.
type SQLEdge struct {
	FromID int `json:"fromId"`
	ToID   int `json:"toId"`
}

// ExecutionData describes a SQL execution, including its plan.
type ExecutionData struct {
	ID              int       `json:"id"`
	Status          string    `json:"status"`
	Description     string    `json:"description,omitempty"`
	PlanDescription string    `json:"planDescription,omitempty"`
	SubmissionTime  *Time     `json:"submissionTime,omitempty"`
	Duration        *int64    `json:"durationMilliSeconds,omitempty"`
	RunningJobIDs   []int     `json:"runningJobIds,omitempty"`
	SuccessJobIDs   []int     `json:"successJobIds,omitempty"`
	FailedJobIDs    []int     `json:"failedJobIds,omitempty"`
	Nodes           []SQLNode `json:"nodes,omitempty"`
	Edges           []SQLEdge `json:"edges,omitempty"`
}

// VersionInfo is the history server's Spark version.
type VersionInfo struct {
	Spark string `json:"spark"`
}
