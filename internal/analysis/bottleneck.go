package analysis

import (
	"fmt"
	"sort"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// DefaultBottleneckThreshold is the fraction of a stage's task time a
// single timing category must exceed to be flagged as a bottleneck driver.
// It is a tunable heuristic, not a hard rule.
const DefaultBottleneckThreshold = 0.30

// DefaultTopStages bounds the analysis to the stages that dominate
// wall-clock time; short stages produce statistically noisy fractions.
const DefaultTopStages = 5

// Timing categories for stage time attribution.
const (
	CategorySchedulerDelay = "scheduler_delay"
	CategoryDeserialize    = "deserialization"
	CategoryCompute        = "compute"
	CategoryShuffleRead    = "shuffle_read"
	CategoryShuffleWrite   = "shuffle_write"
	CategorySerialize      = "serialization"
	CategoryGC             = "gc"
)

// categoryCauses maps a dominant timing category to its likely root cause.
var categoryCauses = map[string]string{
	CategorySchedulerDelay: "scheduling overhead",
	CategoryDeserialize:    "task deserialization overhead",
	CategoryCompute:        "compute-bound",
	CategoryShuffleRead:    "shuffle-bound",
	CategoryShuffleWrite:   "shuffle-bound",
	CategorySerialize:      "result serialization overhead",
	CategoryGC:             "GC pressure",
}

// categoryActions maps a dominant timing category to a suggested remedy.
var categoryActions = map[string]string{
	CategorySchedulerDelay: "Reduce task count per stage or increase scheduler throughput; consider larger partitions",
	CategoryDeserialize:    "Reduce closure/broadcast size shipped to tasks; check serializer configuration",
	CategoryCompute:        "Profile the stage's operators; consider more cores or optimizing the computation",
	CategoryShuffleRead:    "Reduce shuffled data volume (pre-aggregate, filter earlier) or increase shuffle parallelism",
	CategoryShuffleWrite:   "Reduce shuffle output (map-side combine, fewer wide transformations)",
	CategorySerialize:      "Reduce result sizes returned to the driver; avoid collecting large datasets",
	CategoryGC:             "Increase executor memory or reduce object churn; review spark.memory.fraction",
}

// AnalyzerOptions tunes bottleneck detection. Zero values select defaults.
type AnalyzerOptions struct {
	// Threshold is the minimum fraction of stage task time a category must
	// account for to be flagged. Defaults to DefaultBottleneckThreshold.
	Threshold float64
	// TopStages is how many of the longest stages to inspect. Defaults to
	// DefaultTopStages.
	TopStages int
}

func (o AnalyzerOptions) threshold() float64 {
	if o.Threshold <= 0 {
		return DefaultBottleneckThreshold
	}
	return o.Threshold
}

func (o AnalyzerOptions) topStages() int {
	if o.TopStages <= 0 {
		return DefaultTopStages
	}
	return o.TopStages
}

// StageBottleneck is one flagged stage with its dominant timing category.
type StageBottleneck struct {
	StageID           int                `json:"stage_id"`
	AttemptID         int                `json:"attempt_id"`
	Name              string             `json:"name,omitempty"`
	DurationMillis    int64              `json:"duration_ms"`
	DominantCategory  string             `json:"dominant_category"`
	SeverityFraction  float64            `json:"severity_fraction"`
	CategoryFractions map[string]float64 `json:"category_fractions"`
	LikelyCause       string             `json:"likely_cause"`
	SuggestedAction   string             `json:"suggested_action"`
}

// ExecutorSignal is a fleet-level indicator correlated with stage findings.
type ExecutorSignal struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

// BottleneckReport is the full analysis output for one application.
type BottleneckReport struct {
	Stages           []StageBottleneck `json:"stages"`
	SkippedStages    []string          `json:"skipped_stages,omitempty"`
	ExecutorSignals  []ExecutorSignal  `json:"executor_signals,omitempty"`
	DominantCategory string            `json:"dominant_category,omitempty"`
	Summary          string            `json:"summary"`
}

// AnalyzeBottlenecks inspects the longest stages of an application and
// attributes their time to timing categories, cross-referencing executor
// signals. Stages with no usable task metrics are skipped with a note, and
// an empty qualifying set produces an empty report rather than an error.
func AnalyzeBottlenecks(stages []spark.StageData, executors []spark.ExecutorSummary, opts AnalyzerOptions) BottleneckReport {
	var report BottleneckReport

	top, notes, err := RankStages(stages, MetricDuration, opts.topStages(), nil)
	if err != nil {
		// Only reachable with a negative TopStages, which opts.topStages
		// never produces.
		report.Summary = err.Error()
		return report
	}
	report.SkippedStages = notes

	threshold := opts.threshold()
	for _, rs := range top {
		s := rs.Stage
		fractions, total := stageTimeFractions(s)
		if total <= 0 {
			report.SkippedStages = append(report.SkippedStages,
				fmt.Sprintf("stage %d: no task metrics reported", *s.StageID))
			continue
		}

		dominant, severity := dominantCategory(fractions)
		if severity < threshold {
			continue
		}

		attemptID := 0
		if s.AttemptID != nil {
			attemptID = *s.AttemptID
		}
		report.Stages = append(report.Stages, StageBottleneck{
			StageID:           *s.StageID,
			AttemptID:         attemptID,
			Name:              s.Name,
			DurationMillis:    int64(rs.Value),
			DominantCategory:  dominant,
			SeverityFraction:  severity,
			CategoryFractions: fractions,
			LikelyCause:       categoryCauses[dominant],
			SuggestedAction:   categoryActions[dominant],
		})
	}

	report.ExecutorSignals = executorSignals(stages, executors)
	report.DominantCategory = mostFrequentCategory(report.Stages)

	switch {
	case len(report.Stages) == 0 && len(report.ExecutorSignals) == 0:
		report.Summary = "no bottlenecks identified"
	case len(report.Stages) == 0:
		report.Summary = fmt.Sprintf("no stage-level bottlenecks identified; %d executor-level signal(s) present", len(report.ExecutorSignals))
	default:
		report.Summary = fmt.Sprintf("%d stage(s) flagged; most frequent driver: %s (%s)",
			len(report.Stages), report.DominantCategory, categoryCauses[report.DominantCategory])
	}
	return report
}

// stageTimeFractions attributes the stage's aggregate task time to timing
// categories and returns per-category fractions and the total in
// milliseconds. Compute time is run time minus the GC and shuffle-fetch
// portions it subsumes, clamped at zero.
func stageTimeFractions(s spark.StageData) (map[string]float64, float64) {
	millis := func(p *int64) float64 {
		if p == nil {
			return 0
		}
		return float64(*p)
	}
	// CPU and shuffle-write timers are reported in nanoseconds.
	nanosToMillis := func(p *int64) float64 {
		if p == nil {
			return 0
		}
		return float64(*p) / 1e6
	}

	gc := millis(s.JVMGCTime)
	fetchWait := millis(s.ShuffleFetchWaitTime)
	runTime := millis(s.ExecutorRunTime)
	compute := runTime - gc - fetchWait
	if compute < 0 {
		compute = 0
	}

	categories := map[string]float64{
		CategoryDeserialize:  millis(s.ExecutorDeserializeTime),
		CategoryCompute:      compute,
		CategoryShuffleRead:  fetchWait,
		CategoryShuffleWrite: nanosToMillis(s.ShuffleWriteTime),
		CategorySerialize:    millis(s.ResultSerializationTime),
		CategoryGC:           gc,
	}

	// Scheduler delay is not part of the aggregated stage record; estimate
	// it from the task summary distribution when present.
	if d := s.TaskMetricsDistributions; d != nil && len(d.SchedulerDelay) > 0 && s.NumTasks != nil {
		categories[CategorySchedulerDelay] = median(d.Quantiles, d.SchedulerDelay) * float64(*s.NumTasks)
	}

	total := 0.0
	for _, v := range categories {
		total += v
	}
	if total <= 0 {
		return nil, 0
	}

	fractions := make(map[string]float64, len(categories))
	for k, v := range categories {
		fractions[k] = v / total
	}
	return fractions, total
}

// median picks the value at quantile 0.5, or the middle entry when the
// quantile vector is missing or misaligned.
func median(quantiles, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(quantiles) == len(values) {
		for i, q := range quantiles {
			if q == 0.5 {
				return values[i]
			}
		}
	}
	return values[len(values)/2]
}

func dominantCategory(fractions map[string]float64) (string, float64) {
	keys := make([]string, 0, len(fractions))
	for k := range fractions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestVal := "", -1.0
	for _, k := range keys {
		if fractions[k] > bestVal {
			best, bestVal = k, fractions[k]
		}
	}
	return best, bestVal
}

func mostFrequentCategory(stages []StageBottleneck) string {
	if len(stages) == 0 {
		return ""
	}
	counts := make(map[string]int)
	for _, s := range stages {
		counts[s.DominantCategory]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

// Executor signal thresholds.
const (
	gcPressureFraction    = 0.10
	executorChurnFraction = 0.25
	spillMinBytes         = 1 << 20
	saturationFraction    = 0.80
)

// executorSignals derives fleet-level indicators from executor counters and
// stage spill metrics.
func executorSignals(stages []spark.StageData, executors []spark.ExecutorSummary) []ExecutorSignal {
	var signals []ExecutorSignal
	totals := TotalExecutors(executors)

	if totals.TotalDuration > 0 {
		gcFrac := float64(totals.TotalGCTime) / float64(totals.TotalDuration)
		if gcFrac > gcPressureFraction {
			signals = append(signals, ExecutorSignal{
				Name: "GC pressure",
				Detail: fmt.Sprintf("executors spent %.1f%% of task time in GC (%dms of %dms); consider more executor memory",
					gcFrac*100, totals.TotalGCTime, totals.TotalDuration),
			})
		}
	}

	if totals.Count > 0 {
		churn := float64(totals.RemovedCount) / float64(totals.Count)
		if totals.RemovedCount > 0 && churn >= executorChurnFraction {
			signals = append(signals, ExecutorSignal{
				Name: "executor churn",
				Detail: fmt.Sprintf("%d of %d executors were removed during the run; check for OOM kills or aggressive dynamic allocation",
					totals.RemovedCount, totals.Count),
			})
		}
	}

	var memSpilled, diskSpilled int64
	for _, s := range stages {
		if s.MemoryBytesSpilled != nil {
			memSpilled += *s.MemoryBytesSpilled
		}
		if s.DiskBytesSpilled != nil {
			diskSpilled += *s.DiskBytesSpilled
		}
	}
	if memSpilled > spillMinBytes || diskSpilled > spillMinBytes {
		signals = append(signals, ExecutorSignal{
			Name: "memory spill",
			Detail: fmt.Sprintf("stages spilled %d bytes to memory and %d bytes to disk; executors are under-provisioned for the working set",
				memSpilled, diskSpilled),
		})
	}

	if totals.TotalCores > 0 && totals.FailedTasks > 0 {
		failFrac := float64(totals.FailedTasks) / float64(totals.FailedTasks+totals.CompletedTasks)
		if failFrac > 0.01 {
			signals = append(signals, ExecutorSignal{
				Name: "task failures",
				Detail: fmt.Sprintf("%d failed tasks (%.1f%% of attempts); retries inflate wall-clock time",
					totals.FailedTasks, failFrac*100),
			})
		}
	}

	// Sustained high occupancy across all cores means the app could use
	// more parallelism.
	var wallClock int64
	for _, s := range stages {
		if v, ok := StageDuration(s).Get(); ok {
			wallClock += int64(v)
		}
	}
	if totals.TotalCores > 0 && wallClock > 0 {
		capacity := float64(totals.TotalCores) * float64(wallClock)
		if float64(totals.TotalDuration)/capacity > saturationFraction {
			signals = append(signals, ExecutorSignal{
				Name: "executor under-provisioning",
				Detail: fmt.Sprintf("task time (%dms) saturates %.0f%% of core capacity across %d cores; adding executors would shorten the critical path",
					totals.TotalDuration, float64(totals.TotalDuration)/capacity*100, totals.TotalCores),
			})
		}
	}

	return signals
}
