package analysis

import (
	"testing"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	if s.Count != 0 {
		t.Fatalf("expected count 0, got %d", s.Count)
	}
	if s.Sum != nil || s.Mean != nil || s.Min != nil || s.Max != nil ||
		s.P50 != nil || s.P95 != nil || s.P99 != nil {
		t.Error("expected all statistics absent for empty input")
	}
}

func TestAggregateSingleValue(t *testing.T) {
	s := Aggregate([]float64{5})
	if s.Count != 1 {
		t.Fatalf("expected count 1, got %d", s.Count)
	}
	for name, got := range map[string]*float64{
		"sum": s.Sum, "mean": s.Mean, "min": s.Min, "max": s.Max,
		"p50": s.P50, "p95": s.P95, "p99": s.P99,
	} {
		if got == nil {
			t.Fatalf("%s is absent", name)
		}
		if *got != 5 {
			t.Errorf("%s = %v, want 5", name, *got)
		}
	}
}

func TestAggregateStatistics(t *testing.T) {
	s := Aggregate([]float64{10, 20, 30, 40})
	if s.Count != 4 {
		t.Fatalf("count = %d, want 4", s.Count)
	}
	if *s.Sum != 100 {
		t.Errorf("sum = %v, want 100", *s.Sum)
	}
	if *s.Mean != 25 {
		t.Errorf("mean = %v, want 25", *s.Mean)
	}
	if *s.Min != 10 || *s.Max != 40 {
		t.Errorf("min/max = %v/%v, want 10/40", *s.Min, *s.Max)
	}
	// nearest rank: p50 -> ceil(0.5*4)=2nd value, p95 -> ceil(3.8)=4th
	if *s.P50 != 20 {
		t.Errorf("p50 = %v, want 20", *s.P50)
	}
	if *s.P95 != 40 {
		t.Errorf("p95 = %v, want 40", *s.P95)
	}
	if *s.P99 != 40 {
		t.Errorf("p99 = %v, want 40", *s.P99)
	}
}

func TestAggregateUnsortedInput(t *testing.T) {
	s := Aggregate([]float64{30, 10, 20})
	if *s.Min != 10 || *s.Max != 30 || *s.P50 != 20 {
		t.Errorf("min/max/p50 = %v/%v/%v, want 10/30/20", *s.Min, *s.Max, *s.P50)
	}
}

func TestAggregateValuesSkipsAbsent(t *testing.T) {
	s := AggregateValues([]Value{Some(1), None, Some(3), None})
	if s.Count != 2 {
		t.Fatalf("count = %d, want 2", s.Count)
	}
	if *s.Sum != 4 {
		t.Errorf("sum = %v, want 4", *s.Sum)
	}
}

func TestTotalExecutors(t *testing.T) {
	cores := 4
	duration := int64(1000)
	gc := int64(100)
	removed := spark.Time{Time: now()}

	executors := []spark.ExecutorSummary{
		{ID: "1", IsActive: true, TotalCores: &cores, TotalDuration: &duration, TotalGCTime: &gc},
		{ID: "2", IsActive: false, TotalCores: &cores, TotalDuration: &duration, RemoveTime: &removed},
		{ID: "driver"}, // no counters reported
	}

	totals := TotalExecutors(executors)
	if totals.Count != 3 {
		t.Errorf("count = %d, want 3", totals.Count)
	}
	if totals.ActiveCount != 1 {
		t.Errorf("active = %d, want 1", totals.ActiveCount)
	}
	if totals.RemovedCount != 1 {
		t.Errorf("removed = %d, want 1", totals.RemovedCount)
	}
	if totals.TotalCores != 8 {
		t.Errorf("cores = %d, want 8", totals.TotalCores)
	}
	if totals.TotalDuration != 2000 {
		t.Errorf("duration = %d, want 2000", totals.TotalDuration)
	}
	if totals.TotalGCTime != 100 {
		t.Errorf("gc = %d, want 100", totals.TotalGCTime)
	}
}
