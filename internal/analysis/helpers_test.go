package analysis

import (
	"time"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func now() time.Time { return baseTime }

// makeJob builds a completed job with the given index and wall-clock
// duration. A negative duration leaves both timestamps unset.
func makeJob(id int, status string, durationMillis int64) spark.JobData {
	j := spark.JobData{
		JobID:  &id,
		Name:   "job",
		Status: status,
	}
	if durationMillis >= 0 {
		j.SubmissionTime = spark.NewTime(baseTime)
		j.CompletionTime = spark.NewTime(baseTime.Add(time.Duration(durationMillis) * time.Millisecond))
	}
	return j
}

// makeStage builds a completed stage with the given wall-clock duration.
func makeStage(id int, status string, durationMillis int64) spark.StageData {
	s := spark.StageData{
		StageID: &id,
		Name:    "stage",
		Status:  status,
	}
	if durationMillis >= 0 {
		s.FirstTaskLaunched = spark.NewTime(baseTime)
		s.CompletionTime = spark.NewTime(baseTime.Add(time.Duration(durationMillis) * time.Millisecond))
	}
	return s
}

func i64(v int64) *int64 { return &v }
func iptr(v int) *int    { return &v }
