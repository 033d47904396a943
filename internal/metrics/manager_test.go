package metrics_test

import (
	"testing"

	"github.com/myrjola/loadcoach/internal/metrics"
	"github.com/myrjola/loadcoach/internal/training"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestManager(t *testing.T) {
	t.Parallel()
	m, reg := metrics.NewTestManagerAndRegistry()
	var recorder training.Recorder = m

	recorder.RecommendationServed(training.SourceHistory)
	recorder.RecommendationServed(training.SourceHistory)
	recorder.RecommendationServed(training.SourceStaticTable)
	recorder.FatigueUpdated(training.OutcomeConflict)
	recorder.FallbackFatigueServed()
	m.ObserveRequest("GET", 200, 0.01)
	m.ObserveRequest("GET", 200, 0.02)
	m.ObserveRequest("POST", 409, 0.01)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"history", testutil.ToFloat64(m.CounterRecommendations.WithLabelValues("history")), 2},
		{"static", testutil.ToFloat64(m.CounterRecommendations.WithLabelValues("static_table")), 1},
		{"conflict", testutil.ToFloat64(m.CounterFatigueUpdates.WithLabelValues("conflict")), 1},
		{"fallback", testutil.ToFloat64(m.CounterFallbackReads), 1},
		{"GET 200", testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "200")), 2},
		{"POST 409", testutil.ToFloat64(m.CounterRequests.WithLabelValues("POST", "409")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	count, err := testutil.GatherAndCount(reg, "loadcoach_test_request_duration_seconds")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 2 {
		t.Errorf("got %d request duration series, want 2", count)
	}
}

func TestSetupPrometheus(t *testing.T) {
	t.Parallel()
	reg := metrics.SetupPrometheus()
	metrics.NewManager("loadcoach", "web", reg)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected runtime metrics to be registered")
	}
}
