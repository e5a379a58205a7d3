package analysis

import (
	"strings"
	"testing"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

func TestAnalyzeShuffleBoundStage(t *testing.T) {
	// 90% of the stage's task time waits on shuffle fetch.
	s := makeStage(3, spark.StageStatusComplete, 60000)
	s.ExecutorRunTime = i64(10000)
	s.ShuffleFetchWaitTime = i64(9000)
	s.JVMGCTime = i64(200)

	report := AnalyzeBottlenecks([]spark.StageData{s}, nil, AnalyzerOptions{})
	if len(report.Stages) != 1 {
		t.Fatalf("got %d flagged stages, want 1: %+v", len(report.Stages), report)
	}
	flagged := report.Stages[0]
	if flagged.StageID != 3 {
		t.Errorf("stage id = %d, want 3", flagged.StageID)
	}
	if flagged.DominantCategory != CategoryShuffleRead {
		t.Errorf("dominant = %s, want %s", flagged.DominantCategory, CategoryShuffleRead)
	}
	if flagged.LikelyCause != "shuffle-bound" {
		t.Errorf("cause = %q, want shuffle-bound", flagged.LikelyCause)
	}
	if flagged.SeverityFraction < 0.85 {
		t.Errorf("severity = %v, want close to 0.9", flagged.SeverityFraction)
	}
	if report.DominantCategory != CategoryShuffleRead {
		t.Errorf("app-level dominant = %s, want %s", report.DominantCategory, CategoryShuffleRead)
	}
}

func TestAnalyzeGCPressureStage(t *testing.T) {
	s := makeStage(0, spark.StageStatusComplete, 30000)
	s.ExecutorRunTime = i64(10000)
	s.JVMGCTime = i64(4500)

	report := AnalyzeBottlenecks([]spark.StageData{s}, nil, AnalyzerOptions{})
	if len(report.Stages) != 1 {
		t.Fatalf("got %d flagged stages, want 1", len(report.Stages))
	}
	if report.Stages[0].DominantCategory != CategoryCompute {
		// 5500ms compute vs 4500ms GC, compute still dominates
		t.Errorf("dominant = %s, want %s", report.Stages[0].DominantCategory, CategoryCompute)
	}
	if frac := report.Stages[0].CategoryFractions[CategoryGC]; frac < 0.40 || frac > 0.50 {
		t.Errorf("gc fraction = %v, want 0.45", frac)
	}
}

func TestAnalyzeNoStages(t *testing.T) {
	report := AnalyzeBottlenecks(nil, nil, AnalyzerOptions{})
	if len(report.Stages) != 0 {
		t.Errorf("flagged stages on empty input")
	}
	if report.Summary != "no bottlenecks identified" {
		t.Errorf("summary = %q", report.Summary)
	}
}

func TestAnalyzeStageWithoutMetricsSkipped(t *testing.T) {
	// Stage completed but carries no task metrics at all.
	s := makeStage(2, spark.StageStatusComplete, 5000)

	report := AnalyzeBottlenecks([]spark.StageData{s}, nil, AnalyzerOptions{})
	if len(report.Stages) != 0 {
		t.Errorf("metric-less stage flagged: %+v", report.Stages)
	}
	if len(report.SkippedStages) != 1 {
		t.Fatalf("got %d skip notes, want 1", len(report.SkippedStages))
	}
	if !strings.Contains(report.SkippedStages[0], "stage 2") {
		t.Errorf("skip note missing stage id: %q", report.SkippedStages[0])
	}
}

func TestAnalyzeThresholdTunable(t *testing.T) {
	// Shuffle write is 25% of the stage: below the default threshold,
	// above a 0.2 threshold.
	s := makeStage(0, spark.StageStatusComplete, 10000)
	s.ExecutorRunTime = i64(7500)
	s.ShuffleWriteTime = i64(2500 * 1e6) // nanoseconds

	report := AnalyzeBottlenecks([]spark.StageData{s}, nil, AnalyzerOptions{})
	// 7500 compute dominates at 75%, so the stage is flagged as compute
	if len(report.Stages) != 1 || report.Stages[0].DominantCategory != CategoryCompute {
		t.Fatalf("expected compute-dominant stage: %+v", report.Stages)
	}

	report = AnalyzeBottlenecks([]spark.StageData{s}, nil, AnalyzerOptions{Threshold: 0.9})
	if len(report.Stages) != 0 {
		t.Errorf("0.9 threshold should flag nothing, got %+v", report.Stages)
	}
}

func TestAnalyzeTopStagesBound(t *testing.T) {
	// Ten identical shuffle-bound stages; only the top N are inspected.
	var stages []spark.StageData
	for i := 0; i < 10; i++ {
		s := makeStage(i, spark.StageStatusComplete, int64(1000*(i+1)))
		s.ExecutorRunTime = i64(1000)
		s.ShuffleFetchWaitTime = i64(900)
		stages = append(stages, s)
	}

	report := AnalyzeBottlenecks(stages, nil, AnalyzerOptions{TopStages: 3})
	if len(report.Stages) != 3 {
		t.Errorf("got %d flagged stages, want 3", len(report.Stages))
	}
	// Longest stage first
	if report.Stages[0].StageID != 9 {
		t.Errorf("first flagged stage = %d, want 9", report.Stages[0].StageID)
	}
}

func TestExecutorSignalGCPressure(t *testing.T) {
	executors := []spark.ExecutorSummary{
		{ID: "1", IsActive: true, TotalDuration: i64(10000), TotalGCTime: i64(2000)},
	}
	report := AnalyzeBottlenecks(nil, executors, AnalyzerOptions{})
	if !hasSignal(report.ExecutorSignals, "GC pressure") {
		t.Errorf("expected GC pressure signal, got %+v", report.ExecutorSignals)
	}
}

func TestExecutorSignalChurn(t *testing.T) {
	removed := spark.Time{Time: now()}
	executors := []spark.ExecutorSummary{
		{ID: "1", IsActive: true},
		{ID: "2", RemoveTime: &removed},
	}
	report := AnalyzeBottlenecks(nil, executors, AnalyzerOptions{})
	if !hasSignal(report.ExecutorSignals, "executor churn") {
		t.Errorf("expected churn signal, got %+v", report.ExecutorSignals)
	}
}

func TestExecutorSignalSpill(t *testing.T) {
	s := makeStage(0, spark.StageStatusComplete, 1000)
	s.ExecutorRunTime = i64(1000)
	s.DiskBytesSpilled = i64(64 << 20)

	report := AnalyzeBottlenecks([]spark.StageData{s}, nil, AnalyzerOptions{})
	if !hasSignal(report.ExecutorSignals, "memory spill") {
		t.Errorf("expected spill signal, got %+v", report.ExecutorSignals)
	}
}

func TestExecutorSignalsQuietFleet(t *testing.T) {
	executors := []spark.ExecutorSummary{
		{ID: "1", IsActive: true, TotalDuration: i64(10000), TotalGCTime: i64(100)},
		{ID: "2", IsActive: true, TotalDuration: i64(10000), TotalGCTime: i64(150)},
	}
	report := AnalyzeBottlenecks(nil, executors, AnalyzerOptions{})
	if len(report.ExecutorSignals) != 0 {
		t.Errorf("healthy fleet produced signals: %+v", report.ExecutorSignals)
	}
	if report.Summary != "no bottlenecks identified" {
		t.Errorf("summary = %q", report.Summary)
	}
}

func hasSignal(signals []ExecutorSignal, name string) bool {
	for _, s := range signals {
		if s.Name == name {
			return true
		}
	}
	return false
}
