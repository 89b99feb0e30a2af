// Package obs wires the ambient logging and metrics surface: a JSON
// structured logger built on log/slog, and a small set of Prometheus
// counters/histograms scoped to what this agent actually does (runs, tool
// calls, provider cycling) rather than the teacher's full channel/webhook/
// database surface.
package obs

import (
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewLogger returns a JSON slog.Logger writing to stderr at the given
// level, matching the donor CLI's startup logger construction.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Metrics is the set of counters/histograms this agent emits.
type Metrics struct {
	// RunAttempts counts run outcomes by status (started|finished|failed|cancelled).
	RunAttempts *prometheus.CounterVec

	// RunDuration measures wall-clock run time in seconds, labeled by
	// provider and outcome.
	RunDuration *prometheus.HistogramVec

	// ToolExecutions counts tool invocations by tool name and outcome
	// (success|error).
	ToolExecutions *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution latency in seconds.
	ToolExecutionDuration *prometheus.HistogramVec

	// ProviderCycles counts /model and /thinking cycling invocations.
	ProviderCycles *prometheus.CounterVec
}

// NewMetrics registers and returns the agent's metrics. Call once at
// startup.
func NewMetrics() *Metrics {
	return &Metrics{
		RunAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codex_tui_run_attempts_total",
				Help: "Total number of provider runs by terminal status",
			},
			[]string{"status"},
		),
		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codex_tui_run_duration_seconds",
				Help:    "Duration of provider runs in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider", "status"},
		),
		ToolExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codex_tui_tool_executions_total",
				Help: "Total number of sandboxed tool executions by tool name and outcome",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codex_tui_tool_execution_duration_seconds",
				Help:    "Duration of sandboxed tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"tool_name"},
		),
		ProviderCycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codex_tui_provider_cycles_total",
				Help: "Total number of /model and /thinking cycling invocations",
			},
			[]string{"kind"},
		),
	}
}

// RecordRun records a completed run's terminal status and duration.
func (m *Metrics) RecordRun(provider, status string, durationSeconds float64) {
	m.RunAttempts.WithLabelValues(status).Inc()
	m.RunDuration.WithLabelValues(provider, status).Observe(durationSeconds)
}

// RecordToolExecution records one tool call's outcome and duration.
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutions.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordProviderCycle records a /model or /thinking invocation.
func (m *Metrics) RecordProviderCycle(kind string) {
	m.ProviderCycles.WithLabelValues(kind).Inc()
}
