package analysis

import (
	"fmt"
	"sort"

	"github.com/sparkmcp/spark-history-mcp/internal/errors"
	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// Default status exclusions keep in-flight entities out of completed-duration
// rankings.
var (
	DefaultExcludedJobStatuses   = []string{spark.JobStatusRunning}
	DefaultExcludedStageStatuses = []string{spark.StageStatusActive, spark.StageStatusPending}
	DefaultExcludedSQLStatuses   = []string{spark.SQLStatusRunning}
)

// RankedJob is one entry of a job ranking.
type RankedJob struct {
	Job   spark.JobData `json:"job"`
	Value float64       `json:"value"`
}

// RankedStage is one entry of a stage ranking.
type RankedStage struct {
	Stage spark.StageData `json:"stage"`
	Value float64         `json:"value"`
}

// RankedExecution is one entry of a SQL execution ranking.
type RankedExecution struct {
	Execution spark.ExecutionData `json:"execution"`
	Value     float64             `json:"value"`
}

type rankItem struct {
	index int // position in the input slice
	id    int64
	value float64
}

// rankItems validates n, sorts descending by value with ascending id
// tie-break, and truncates to n.
func rankItems(items []rankItem, n int) ([]rankItem, error) {
	if n < 0 {
		return nil, errors.NewInvalidArgument(fmt.Sprintf("n must be non-negative, got %d", n))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].value != items[j].value {
			return items[i].value > items[j].value
		}
		return items[i].id < items[j].id
	})
	if len(items) > n {
		items = items[:n]
	}
	return items, nil
}

func excludedSet(statuses []string) map[string]struct{} {
	set := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

// RankJobs returns the top n jobs by metric, slowest first. Jobs whose
// status is excluded or whose metric is absent do not participate. Malformed
// records are skipped; each skip is recorded as a note. If excludeStatuses
// is nil the default exclusions apply; an empty slice excludes nothing.
func RankJobs(jobs []spark.JobData, metric MetricKey, n int, excludeStatuses []string) ([]RankedJob, []string, error) {
	if excludeStatuses == nil {
		excludeStatuses = DefaultExcludedJobStatuses
	}
	excluded := excludedSet(excludeStatuses)

	var notes []string
	items := make([]rankItem, 0, len(jobs))
	for i, j := range jobs {
		if _, skip := excluded[j.Status]; skip {
			continue
		}
		v, err := ExtractJobMetric(j, metric)
		if err != nil {
			if errors.IsMalformedRecord(err) {
				notes = append(notes, err.Error())
				continue
			}
			return nil, nil, err
		}
		f, ok := v.Get()
		if !ok {
			continue
		}
		items = append(items, rankItem{index: i, id: int64(*j.JobID), value: f})
	}

	items, err := rankItems(items, n)
	if err != nil {
		return nil, nil, err
	}

	ranked := make([]RankedJob, 0, len(items))
	for _, it := range items {
		ranked = append(ranked, RankedJob{Job: jobs[it.index], Value: it.value})
	}
	return ranked, notes, nil
}

// RankStages returns the top n stage attempts by metric, slowest first.
// Semantics match RankJobs. Ties between attempts of the same stage break
// on attempt number.
func RankStages(stages []spark.StageData, metric MetricKey, n int, excludeStatuses []string) ([]RankedStage, []string, error) {
	if excludeStatuses == nil {
		excludeStatuses = DefaultExcludedStageStatuses
	}
	excluded := excludedSet(excludeStatuses)

	var notes []string
	items := make([]rankItem, 0, len(stages))
	for i, s := range stages {
		if _, skip := excluded[s.Status]; skip {
			continue
		}
		v, err := ExtractStageMetric(s, metric)
		if err != nil {
			if errors.IsMalformedRecord(err) {
				notes = append(notes, err.Error())
				continue
			}
			return nil, nil, err
		}
		f, ok := v.Get()
		if !ok {
			continue
		}
		id := int64(*s.StageID) << 16
		if s.AttemptID != nil {
			id |= int64(*s.AttemptID)
		}
		items = append(items, rankItem{index: i, id: id, value: f})
	}

	items, err := rankItems(items, n)
	if err != nil {
		return nil, nil, err
	}

	ranked := make([]RankedStage, 0, len(items))
	for _, it := range items {
		ranked = append(ranked, RankedStage{Stage: stages[it.index], Value: it.value})
	}
	return ranked, notes, nil
}

// RankSQLExecutions returns the top n SQL executions by duration, slowest
// first. Executions without a reported duration are excluded.
func RankSQLExecutions(executions []spark.ExecutionData, n int, excludeStatuses []string) ([]RankedExecution, []string, error) {
	if excludeStatuses == nil {
		excludeStatuses = DefaultExcludedSQLStatuses
	}
	excluded := excludedSet(excludeStatuses)

	items := make([]rankItem, 0, len(executions))
	for i, e := range executions {
		if _, skip := excluded[e.Status]; skip {
			continue
		}
		f, ok := SQLDuration(e).Get()
		if !ok {
			continue
		}
		items = append(items, rankItem{index: i, id: int64(e.ID), value: f})
	}

	items, err := rankItems(items, n)
	if err != nil {
		return nil, nil, err
	}

	ranked := make([]RankedExecution, 0, len(items))
	for _, it := range items {
		ranked = append(ranked, RankedExecution{Execution: executions[it.index], Value: it.value})
	}
	return ranked, nil, nil
}
