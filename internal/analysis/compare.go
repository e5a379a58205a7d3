package analysis

import (
	"sort"
	"strings"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// Comparison dimensions.
const (
	DimensionPerformance = "performance"
	DimensionEnvironment = "environment"
	DimensionSQLPlans    = "sql_plans"
)

// JobDelta compares one pair of ordinally aligned jobs.
type JobDelta struct {
	Index                int      `json:"index"`
	NameA                string   `json:"name_a,omitempty"`
	NameB                string   `json:"name_b,omitempty"`
	DurationAMillis      *int64   `json:"duration_a_ms,omitempty"`
	DurationBMillis      *int64   `json:"duration_b_ms,omitempty"`
	DurationDeltaMillis  *int64   `json:"duration_delta_ms,omitempty"`
	DurationDeltaPercent *float64 `json:"duration_delta_percent,omitempty"`
	StageCountA          int      `json:"stage_count_a"`
	StageCountB          int      `json:"stage_count_b"`
	StageCountDelta      int      `json:"stage_count_delta"`
}

// UnmatchedJob describes a job present on only one side.
type UnmatchedJob struct {
	Index          int    `json:"index"`
	Name           string `json:"name,omitempty"`
	Status         string `json:"status"`
	DurationMillis *int64 `json:"duration_ms,omitempty"`
}

// ExecutorDelta compares fleet roll-ups between two applications.
type ExecutorDelta struct {
	A                ExecutorTotals `json:"a"`
	B                ExecutorTotals `json:"b"`
	CoreDelta        int            `json:"core_delta"`
	MemoryDelta      int64          `json:"max_memory_delta_bytes"`
	TaskTimeDeltaMS  int64          `json:"task_time_delta_ms"`
	GCTimeDeltaMS    int64          `json:"gc_time_delta_ms"`
	ExecutorCountDel int            `json:"executor_count_delta"`
}

// PerformanceComparison aligns two applications' jobs by ordinal position
// and reports deltas; jobs without a counterpart appear under unmatched.
type PerformanceComparison struct {
	AppA              string         `json:"app_a"`
	AppB              string         `json:"app_b"`
	Matched           []JobDelta     `json:"matched"`
	UnmatchedA        []UnmatchedJob `json:"unmatched_a,omitempty"`
	UnmatchedB        []UnmatchedJob `json:"unmatched_b,omitempty"`
	Executors         ExecutorDelta  `json:"executors"`
	InsufficientDataA bool           `json:"insufficient_data_a,omitempty"`
	InsufficientDataB bool           `json:"insufficient_data_b,omitempty"`
}

// ComparePerformance aligns jobs of A and B ordinally (first job of A
// against first job of B, ordered by job index) and computes duration and
// stage-count deltas. A side with zero jobs is marked insufficient rather
// than failing.
func ComparePerformance(appA string, jobsA []spark.JobData, execsA []spark.ExecutorSummary,
	appB string, jobsB []spark.JobData, execsB []spark.ExecutorSummary) PerformanceComparison {

	result := PerformanceComparison{
		AppA:              appA,
		AppB:              appB,
		Matched:           []JobDelta{},
		InsufficientDataA: len(jobsA) == 0,
		InsufficientDataB: len(jobsB) == 0,
	}

	sortedA := sortJobsByID(jobsA)
	sortedB := sortJobsByID(jobsB)

	common := len(sortedA)
	if len(sortedB) < common {
		common = len(sortedB)
	}

	for i := 0; i < common; i++ {
		result.Matched = append(result.Matched, jobDelta(i, sortedA[i], sortedB[i]))
	}
	for i := common; i < len(sortedA); i++ {
		result.UnmatchedA = append(result.UnmatchedA, unmatchedJob(i, sortedA[i]))
	}
	for i := common; i < len(sortedB); i++ {
		result.UnmatchedB = append(result.UnmatchedB, unmatchedJob(i, sortedB[i]))
	}

	totalsA := TotalExecutors(execsA)
	totalsB := TotalExecutors(execsB)
	result.Executors = ExecutorDelta{
		A:                totalsA,
		B:                totalsB,
		CoreDelta:        totalsB.TotalCores - totalsA.TotalCores,
		MemoryDelta:      totalsB.MaxMemory - totalsA.MaxMemory,
		TaskTimeDeltaMS:  totalsB.TotalDuration - totalsA.TotalDuration,
		GCTimeDeltaMS:    totalsB.TotalGCTime - totalsA.TotalGCTime,
		ExecutorCountDel: totalsB.Count - totalsA.Count,
	}
	return result
}

func sortJobsByID(jobs []spark.JobData) []spark.JobData {
	sorted := make([]spark.JobData, len(jobs))
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		var a, b int
		if sorted[i].JobID != nil {
			a = *sorted[i].JobID
		}
		if sorted[j].JobID != nil {
			b = *sorted[j].JobID
		}
		return a < b
	})
	return sorted
}

func jobDelta(index int, a, b spark.JobData) JobDelta {
	d := JobDelta{
		Index:       index,
		NameA:       a.Name,
		NameB:       b.Name,
		StageCountA: len(a.StageIDs),
		StageCountB: len(b.StageIDs),
	}
	d.StageCountDelta = d.StageCountB - d.StageCountA

	if v, ok := JobDuration(a).Get(); ok {
		ms := int64(v)
		d.DurationAMillis = &ms
	}
	if v, ok := JobDuration(b).Get(); ok {
		ms := int64(v)
		d.DurationBMillis = &ms
	}
	if d.DurationAMillis != nil && d.DurationBMillis != nil {
		delta := *d.DurationBMillis - *d.DurationAMillis
		d.DurationDeltaMillis = &delta
		if *d.DurationAMillis != 0 {
			pct := float64(delta) / float64(*d.DurationAMillis) * 100
			d.DurationDeltaPercent = &pct
		}
	}
	return d
}

func unmatchedJob(index int, j spark.JobData) UnmatchedJob {
	u := UnmatchedJob{Index: index, Name: j.Name, Status: j.Status}
	if v, ok := JobDuration(j).Get(); ok {
		ms := int64(v)
		u.DurationMillis = &ms
	}
	return u
}

// KeyDiff is a configuration key present on both sides with different
// values. Values are compared as raw strings; "2g" and "2048m" differ.
type KeyDiff struct {
	Key    string `json:"key"`
	ValueA string `json:"value_a"`
	ValueB string `json:"value_b"`
}

// PropertyDiff is the set difference of one configuration category.
type PropertyDiff struct {
	OnlyInA   map[string]string `json:"only_in_a,omitempty"`
	OnlyInB   map[string]string `json:"only_in_b,omitempty"`
	Different []KeyDiff         `json:"different,omitempty"`
	SameCount int               `json:"same_count"`
}

// EnvironmentComparison diffs two environment snapshots by category.
type EnvironmentComparison struct {
	AppA             string       `json:"app_a"`
	AppB             string       `json:"app_b"`
	RuntimeDiffers   []KeyDiff    `json:"runtime_differs,omitempty"`
	SparkProperties  PropertyDiff `json:"spark_properties"`
	SystemProperties PropertyDiff `json:"system_properties"`
}

// CompareEnvironments reports keys present on only one side and keys whose
// raw string values differ, per property category.
func CompareEnvironments(appA string, a *spark.ApplicationEnvironmentInfo,
	appB string, b *spark.ApplicationEnvironmentInfo) EnvironmentComparison {

	result := EnvironmentComparison{
		AppA:             appA,
		AppB:             appB,
		SparkProperties:  diffProperties(a.SparkProperties, b.SparkProperties),
		SystemProperties: diffProperties(a.SystemProperties, b.SystemProperties),
	}

	runtime := []struct{ key, va, vb string }{
		{"javaVersion", a.Runtime.JavaVersion, b.Runtime.JavaVersion},
		{"scalaVersion", a.Runtime.ScalaVersion, b.Runtime.ScalaVersion},
	}
	for _, r := range runtime {
		if r.va != r.vb {
			result.RuntimeDiffers = append(result.RuntimeDiffers, KeyDiff{Key: r.key, ValueA: r.va, ValueB: r.vb})
		}
	}
	return result
}

func diffProperties(a, b []spark.PropertyPair) PropertyDiff {
	mapA := make(map[string]string, len(a))
	for _, p := range a {
		mapA[p.Key()] = p.Value()
	}
	mapB := make(map[string]string, len(b))
	for _, p := range b {
		mapB[p.Key()] = p.Value()
	}

	diff := PropertyDiff{}
	keysA := sortedKeys(mapA)
	for _, k := range keysA {
		vb, ok := mapB[k]
		switch {
		case !ok:
			if diff.OnlyInA == nil {
				diff.OnlyInA = make(map[string]string)
			}
			diff.OnlyInA[k] = mapA[k]
		case vb != mapA[k]:
			diff.Different = append(diff.Different, KeyDiff{Key: k, ValueA: mapA[k], ValueB: vb})
		default:
			diff.SameCount++
		}
	}
	for _, k := range sortedKeys(mapB) {
		if _, ok := mapA[k]; !ok {
			if diff.OnlyInB == nil {
				diff.OnlyInB = make(map[string]string)
			}
			diff.OnlyInB[k] = mapB[k]
		}
	}
	return diff
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PlanMatcher scores how likely two SQL executions are the same logical
// query. Implementations can use string similarity, plan hashing, or
// anything else; scores are in [0, 1].
type PlanMatcher interface {
	Similarity(a, b spark.ExecutionData) float64
}

// DefaultMatchThreshold is the minimum similarity for two executions to be
// treated as the same query.
const DefaultMatchThreshold = 0.6

// DescriptionSimilarity matches executions by token overlap (Jaccard) of
// their query descriptions. No stable cross-application query ID exists,
// so this is best-effort.
type DescriptionSimilarity struct{}

// Similarity implements PlanMatcher.
func (DescriptionSimilarity) Similarity(a, b spark.ExecutionData) float64 {
	tokensA := tokenize(a.Description)
	tokensB := tokenize(b.Description)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	for t := range tokensA {
		if _, ok := tokensB[t]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(s)) {
		t = strings.Trim(t, "()[]{},;\"'`")
		if t != "" {
			tokens[t] = struct{}{}
		}
	}
	return tokens
}

// PlanLineDiff is a plan-text line present on only one side.
type PlanLineDiff struct {
	Side string `json:"side"` // "a" or "b"
	Line string `json:"line"`
}

// SQLMatch pairs two executions judged to be the same query.
type SQLMatch struct {
	ExecutionIDA        int            `json:"execution_id_a"`
	ExecutionIDB        int            `json:"execution_id_b"`
	Description         string         `json:"description,omitempty"`
	Similarity          float64        `json:"similarity"`
	DurationAMillis     *int64         `json:"duration_a_ms,omitempty"`
	DurationBMillis     *int64         `json:"duration_b_ms,omitempty"`
	DurationDeltaMillis *int64         `json:"duration_delta_ms,omitempty"`
	PlanDiff            []PlanLineDiff `json:"plan_diff,omitempty"`
}

// UnmatchedExecution describes a SQL execution with no counterpart.
type UnmatchedExecution struct {
	ExecutionID    int    `json:"execution_id"`
	Description    string `json:"description,omitempty"`
	DurationMillis *int64 `json:"duration_ms,omitempty"`
}

// SQLPlanComparison matches SQL executions across applications and diffs
// their plans.
type SQLPlanComparison struct {
	AppA              string               `json:"app_a"`
	AppB              string               `json:"app_b"`
	Matched           []SQLMatch           `json:"matched"`
	UnmatchedA        []UnmatchedExecution `json:"unmatched_a,omitempty"`
	UnmatchedB        []UnmatchedExecution `json:"unmatched_b,omitempty"`
	InsufficientDataA bool                 `json:"insufficient_data_a,omitempty"`
	InsufficientDataB bool                 `json:"insufficient_data_b,omitempty"`
}

// CompareSQLPlans greedily pairs each execution of A with its most similar
// unpaired execution of B above the threshold, then diffs plan text and
// durations per pair. A zero threshold selects DefaultMatchThreshold.
func CompareSQLPlans(appA string, execsA []spark.ExecutionData,
	appB string, execsB []spark.ExecutionData,
	matcher PlanMatcher, threshold float64) SQLPlanComparison {

	if matcher == nil {
		matcher = DescriptionSimilarity{}
	}
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	result := SQLPlanComparison{
		AppA:              appA,
		AppB:              appB,
		Matched:           []SQLMatch{},
		InsufficientDataA: len(execsA) == 0,
		InsufficientDataB: len(execsB) == 0,
	}

	usedB := make(map[int]bool, len(execsB))
	for _, ea := range execsA {
		bestIdx, bestScore := -1, threshold
		for i, eb := range execsB {
			if usedB[i] {
				continue
			}
			if score := matcher.Similarity(ea, eb); score >= bestScore {
				bestIdx, bestScore = i, score
			}
		}
		if bestIdx < 0 {
			result.UnmatchedA = append(result.UnmatchedA, unmatchedExecution(ea))
			continue
		}
		usedB[bestIdx] = true
		result.Matched = append(result.Matched, sqlMatch(ea, execsB[bestIdx], bestScore))
	}
	for i, eb := range execsB {
		if !usedB[i] {
			result.UnmatchedB = append(result.UnmatchedB, unmatchedExecution(eb))
		}
	}
	return result
}

func sqlMatch(a, b spark.ExecutionData, score float64) SQLMatch {
	m := SQLMatch{
		ExecutionIDA: a.ID,
		ExecutionIDB: b.ID,
		Description:  a.Description,
		Similarity:   score,
		PlanDiff:     diffPlanText(a.PlanDescription, b.PlanDescription),
	}
	if v, ok := SQLDuration(a).Get(); ok {
		ms := int64(v)
		m.DurationAMillis = &ms
	}
	if v, ok := SQLDuration(b).Get(); ok {
		ms := int64(v)
		m.DurationBMillis = &ms
	}
	if m.DurationAMillis != nil && m.DurationBMillis != nil {
		delta := *m.DurationBMillis - *m.DurationAMillis
		m.DurationDeltaMillis = &delta
	}
	return m
}

func unmatchedExecution(e spark.ExecutionData) UnmatchedExecution {
	u := UnmatchedExecution{ExecutionID: e.ID, Description: e.Description}
	if v, ok := SQLDuration(e).Get(); ok {
		ms := int64(v)
		u.DurationMillis = &ms
	}
	return u
}

// diffPlanText reports plan lines present on only one side, keeping each
// side's original line order.
func diffPlanText(planA, planB string) []PlanLineDiff {
	linesA := planLines(planA)
	linesB := planLines(planB)

	setA := make(map[string]int, len(linesA))
	for _, l := range linesA {
		setA[l]++
	}
	setB := make(map[string]int, len(linesB))
	for _, l := range linesB {
		setB[l]++
	}

	var diff []PlanLineDiff
	for _, l := range linesA {
		if setB[l] == 0 {
			diff = append(diff, PlanLineDiff{Side: "a", Line: l})
		}
	}
	for _, l := range linesB {
		if setA[l] == 0 {
			diff = append(diff, PlanLineDiff{Side: "b", Line: l})
		}
	}
	return diff
}

func planLines(plan string) []string {
	var lines []string
	for _, l := range strings.Split(plan, "\n") {
		l = strings.TrimRight(l, " \t")
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
