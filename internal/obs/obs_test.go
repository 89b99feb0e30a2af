package obs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// newTestMetrics builds a Metrics value registered against an isolated
// registry rather than the global default, so tests don't collide with
// NewMetrics() being called elsewhere in the same process.
func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	registry := prometheus.NewRegistry()

	runAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_run_attempts_total"}, []string{"status"})
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_run_duration_seconds"}, []string{"provider", "status"})
	toolExecutions := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_tool_executions_total"}, []string{"tool_name", "status"})
	toolDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_tool_execution_duration_seconds"}, []string{"tool_name"})
	providerCycles := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_provider_cycles_total"}, []string{"kind"})

	registry.MustRegister(runAttempts, runDuration, toolExecutions, toolDuration, providerCycles)

	return &Metrics{
		RunAttempts:           runAttempts,
		RunDuration:           runDuration,
		ToolExecutions:        toolExecutions,
		ToolExecutionDuration: toolDuration,
		ProviderCycles:        providerCycles,
	}
}

func TestRecordRunIncrementsCounterAndObservesDuration(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordRun("mock", "finished", 1.5)

	if count := testutil.CollectAndCount(m.RunAttempts); count != 1 {
		t.Fatalf("RunAttempts label combinations = %d, want 1", count)
	}
	if got := testutil.ToFloat64(m.RunAttempts.WithLabelValues("finished")); got != 1 {
		t.Fatalf("RunAttempts[finished] = %v, want 1", got)
	}
}

func TestRecordToolExecutionIncrementsCounter(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordToolExecution("bash", "success", 0.2)
	m.RecordToolExecution("bash", "error", 0.1)

	if got := testutil.ToFloat64(m.ToolExecutions.WithLabelValues("bash", "success")); got != 1 {
		t.Fatalf("ToolExecutions[bash,success] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ToolExecutions.WithLabelValues("bash", "error")); got != 1 {
		t.Fatalf("ToolExecutions[bash,error] = %v, want 1", got)
	}
}

func TestRecordProviderCycleIncrementsCounter(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordProviderCycle("model")
	m.RecordProviderCycle("model")
	m.RecordProviderCycle("thinking")

	if got := testutil.ToFloat64(m.ProviderCycles.WithLabelValues("model")); got != 2 {
		t.Fatalf("ProviderCycles[model] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ProviderCycles.WithLabelValues("thinking")); got != 1 {
		t.Fatalf("ProviderCycles[thinking] = %v, want 1", got)
	}
}
