package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting swarm orchestration
// metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - Swarm and mass-swarm run outcomes and durations
//   - Per-sub-agent attempt outcomes (success, error, timeout, skipped)
//   - Retry volume consumed by the single-agent executor
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	metrics.RecordSwarmRun("parallel", "success", time.Since(start).Seconds())
type Metrics struct {
	// SwarmRuns counts completed execute_swarm invocations.
	// Labels: strategy (parallel|sequential), outcome (success|failure)
	SwarmRuns *prometheus.CounterVec

	// SwarmDuration measures execute_swarm wall time in seconds.
	// Labels: strategy
	// Buckets: 0.01s, 0.05s, 0.1s, 0.5s, 1s, 5s, 10s, 30s, 60s
	SwarmDuration *prometheus.HistogramVec

	// MassSwarmRuns counts completed execute_mass_swarm invocations.
	// Labels: outcome (success|failure)
	MassSwarmRuns *prometheus.CounterVec

	// MassSwarmDuration measures execute_mass_swarm wall time in seconds.
	// Buckets: 0.1s, 0.5s, 1s, 5s, 10s, 30s, 60s, 120s
	MassSwarmDuration prometheus.Histogram

	// SubAgentAttempts counts individual sub-agent attempts by final outcome.
	// Labels: outcome (success|error|timeout|skipped)
	SubAgentAttempts *prometheus.CounterVec

	// SubAgentDuration measures time spent in the single-agent executor,
	// across all attempts of one sub-agent run.
	// Buckets: 0.001s, 0.01s, 0.1s, 0.5s, 1s, 5s, 10s, 30s
	SubAgentDuration prometheus.Histogram

	// RetriesUsed counts retry attempts consumed beyond the first per sub-agent run.
	RetriesUsed prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics for the swarm engine.
// This should be called once at application startup.
//
// All metrics are automatically registered with Prometheus's default registry
// and will be available at the /metrics endpoint when using the serve subcommand.
func NewMetrics() *Metrics {
	return &Metrics{
		SwarmRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarmforge_swarm_runs_total",
				Help: "Total number of execute_swarm invocations by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),

		SwarmDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swarmforge_swarm_duration_seconds",
				Help:    "Duration of execute_swarm invocations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"strategy"},
		),

		MassSwarmRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarmforge_mass_swarm_runs_total",
				Help: "Total number of execute_mass_swarm invocations by outcome",
			},
			[]string{"outcome"},
		),

		MassSwarmDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "swarmforge_mass_swarm_duration_seconds",
				Help:    "Duration of execute_mass_swarm invocations in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
		),

		SubAgentAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarmforge_subagent_attempts_total",
				Help: "Total number of sub-agent attempts by final outcome",
			},
			[]string{"outcome"},
		),

		SubAgentDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "swarmforge_subagent_duration_seconds",
				Help:    "Time spent executing one sub-agent, all attempts combined",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
			},
		),

		RetriesUsed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "swarmforge_subagent_retries_total",
				Help: "Total number of retry attempts consumed across all sub-agents",
			},
		),
	}
}

// RecordSwarmRun records the outcome and duration of a completed execute_swarm call.
//
// Example:
//
//	start := time.Now()
//	// ... run swarm ...
//	metrics.RecordSwarmRun("parallel", "success", time.Since(start).Seconds())
func (m *Metrics) RecordSwarmRun(strategy, outcome string, durationSeconds float64) {
	m.SwarmRuns.WithLabelValues(strategy, outcome).Inc()
	m.SwarmDuration.WithLabelValues(strategy).Observe(durationSeconds)
}

// RecordMassSwarmRun records the outcome and duration of a completed execute_mass_swarm call.
func (m *Metrics) RecordMassSwarmRun(outcome string, durationSeconds float64) {
	m.MassSwarmRuns.WithLabelValues(outcome).Inc()
	m.MassSwarmDuration.Observe(durationSeconds)
}

// RecordSubAgentAttempt records the final outcome of one sub-agent's run in the executor.
//
// Example:
//
//	metrics.RecordSubAgentAttempt("timeout")
func (m *Metrics) RecordSubAgentAttempt(outcome string) {
	m.SubAgentAttempts.WithLabelValues(outcome).Inc()
}

// RecordSubAgentDuration records wall time spent in the single-agent executor.
func (m *Metrics) RecordSubAgentDuration(durationSeconds float64) {
	m.SubAgentDuration.Observe(durationSeconds)
}

// RecordRetries adds the number of retry attempts consumed by one sub-agent run.
// A sub-agent that succeeds on its first attempt contributes zero.
func (m *Metrics) RecordRetries(n int) {
	if n <= 0 {
		return
	}
	m.RetriesUsed.Add(float64(n))
}
