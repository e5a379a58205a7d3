package analysis

import (
	"math"
	"sort"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// Summary holds roll-up statistics for a sequence of measurements. All
// fields except Count are nil when the input was empty; callers must check
// Count before consuming the statistics.
type Summary struct {
	Count int      `json:"count"`
	Sum   *float64 `json:"sum,omitempty"`
	Mean  *float64 `json:"mean,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	P50   *float64 `json:"p50,omitempty"`
	P95   *float64 `json:"p95,omitempty"`
	P99   *float64 `json:"p99,omitempty"`
}

// Aggregate computes summary statistics over values. Percentiles use the
// nearest-rank method on a stably sorted copy.
func Aggregate(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{Count: 0}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	return Summary{
		Count: n,
		Sum:   ptr(sum),
		Mean:  ptr(mean),
		Min:   ptr(sorted[0]),
		Max:   ptr(sorted[n-1]),
		P50:   ptr(nearestRank(sorted, 0.50)),
		P95:   ptr(nearestRank(sorted, 0.95)),
		P99:   ptr(nearestRank(sorted, 0.99)),
	}
}

// AggregateValues aggregates optional values, counting only present ones.
func AggregateValues(values []Value) Summary {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Get(); ok {
			present = append(present, f)
		}
	}
	return Aggregate(present)
}

// nearestRank returns the p-th percentile of a sorted slice using the
// nearest-rank definition: the value at rank ceil(p*n), 1-based.
func nearestRank(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func ptr(v float64) *float64 { return &v }

// ExecutorTotals is the application-level roll-up of executor counters.
type ExecutorTotals struct {
	Count             int   `json:"count"`
	ActiveCount       int   `json:"active_count"`
	RemovedCount      int   `json:"removed_count"`
	TotalCores        int   `json:"total_cores"`
	TotalDuration     int64 `json:"total_duration_ms"`
	TotalGCTime       int64 `json:"total_gc_time_ms"`
	TotalInputBytes   int64 `json:"total_input_bytes"`
	TotalShuffleRead  int64 `json:"total_shuffle_read_bytes"`
	TotalShuffleWrite int64 `json:"total_shuffle_write_bytes"`
	CompletedTasks    int   `json:"completed_tasks"`
	FailedTasks       int   `json:"failed_tasks"`
	MemoryUsed        int64 `json:"memory_used_bytes"`
	DiskUsed          int64 `json:"disk_used_bytes"`
	MaxMemory         int64 `json:"max_memory_bytes"`
}

// TotalExecutors sums counters across executors. Absent fields contribute
// nothing to their totals.
func TotalExecutors(executors []spark.ExecutorSummary) ExecutorTotals {
	var t ExecutorTotals
	for _, e := range executors {
		t.Count++
		if e.IsActive {
			t.ActiveCount++
		}
		if e.RemoveTime != nil {
			t.RemovedCount++
		}
		if e.TotalCores != nil {
			t.TotalCores += *e.TotalCores
		}
		if e.TotalDuration != nil {
			t.TotalDuration += *e.TotalDuration
		}
		if e.TotalGCTime != nil {
			t.TotalGCTime += *e.TotalGCTime
		}
		if e.TotalInputBytes != nil {
			t.TotalInputBytes += *e.TotalInputBytes
		}
		if e.TotalShuffleRead != nil {
			t.TotalShuffleRead += *e.TotalShuffleRead
		}
		if e.TotalShuffleWrite != nil {
			t.TotalShuffleWrite += *e.TotalShuffleWrite
		}
		if e.CompletedTasks != nil {
			t.CompletedTasks += *e.CompletedTasks
		}
		if e.FailedTasks != nil {
			t.FailedTasks += *e.FailedTasks
		}
		if e.MemoryUsed != nil {
			t.MemoryUsed += *e.MemoryUsed
		}
		if e.DiskUsed != nil {
			t.DiskUsed += *e.DiskUsed
		}
		if e.MaxMemory != nil {
			t.MaxMemory += *e.MaxMemory
		}
	}
	return t
}

// ExecutorDistributions summarizes per-executor counters as distributions,
// used to spot skew across the fleet.
type ExecutorDistributions struct {
	TaskDuration   Summary `json:"task_duration_ms"`
	GCTime         Summary `json:"gc_time_ms"`
	InputBytes     Summary `json:"input_bytes"`
	ShuffleRead    Summary `json:"shuffle_read_bytes"`
	ShuffleWrite   Summary `json:"shuffle_write_bytes"`
	CompletedTasks Summary `json:"completed_tasks"`
}

// DistributeExecutors builds per-metric distributions across executors.
func DistributeExecutors(executors []spark.ExecutorSummary) ExecutorDistributions {
	var duration, gc, input, shuffleRead, shuffleWrite, completed []Value
	for _, e := range executors {
		duration = append(duration, someInt64(e.TotalDuration))
		gc = append(gc, someInt64(e.TotalGCTime))
		input = append(input, someInt64(e.TotalInputBytes))
		shuffleRead = append(shuffleRead, someInt64(e.TotalShuffleRead))
		shuffleWrite = append(shuffleWrite, someInt64(e.TotalShuffleWrite))
		completed = append(completed, someInt(e.CompletedTasks))
	}
	return ExecutorDistributions{
		TaskDuration:   AggregateValues(duration),
		GCTime:         AggregateValues(gc),
		InputBytes:     AggregateValues(input),
		ShuffleRead:    AggregateValues(shuffleRead),
		ShuffleWrite:   AggregateValues(shuffleWrite),
		CompletedTasks: AggregateValues(completed),
	}
}
