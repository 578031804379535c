package swarm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swarmforge/swarmforge/internal/observability"
)

// Orchestrator is the swarm orchestration engine: it holds a registry of
// named sub-agents (component A) plus construction defaults, and exposes
// execute_swarm / execute_mass_swarm (component E, driving the strategy
// engine in component D). An Orchestrator itself satisfies Agent, so it
// can be registered as a sub-agent of another Orchestrator (§4.6).
type Orchestrator struct {
	name     string
	registry *Registry
	config   Config
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewOrchestrator creates an orchestrator named name with the given
// construction defaults. logger and metrics may be nil; when nil, the
// corresponding observability output is simply skipped.
func NewOrchestrator(name string, config Config, logger *observability.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		name:     name,
		registry: NewRegistry(name),
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
}

func (o *Orchestrator) Name() string { return o.name }

func (o *Orchestrator) AddSubAgent(agent Agent) error     { return o.registry.Add(agent) }
func (o *Orchestrator) AddSubAgents(agents []Agent) error { return o.registry.AddMany(agents) }
func (o *Orchestrator) RemoveSubAgent(name string) bool   { return o.registry.Remove(name) }
func (o *Orchestrator) ListSubAgents() []string           { return o.registry.List() }

func normalizeStrategy(s string) Strategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential":
		return StrategySequential
	default:
		return StrategyParallel
	}
}

// resolveTargets applies §4.4's target-resolution rule: an explicit filter
// is used as-is (order preserved, unknown names rejected up front);
// otherwise the registry's registration order is used.
func (o *Orchestrator) resolveTargets(targetAgents []string) ([]string, error) {
	if len(targetAgents) == 0 {
		return o.registry.List(), nil
	}
	targets := make([]string, 0, len(targetAgents))
	for _, name := range targetAgents {
		if _, ok := o.registry.Lookup(name); !ok {
			return nil, NewError(KindUnknownAgent, fmt.Sprintf("unknown target agent %q", name))
		}
		targets = append(targets, name)
	}
	return targets, nil
}

// effectiveConfig merges per-call overrides onto the construction defaults
// and validates the two concurrency caps, per the invalid-configuration
// error case in §6/§7.
func effectiveConfig(base Config, opts ExecuteOptions) (Config, error) {
	eff := base

	if opts.Strategy != "" {
		eff.Strategy = opts.Strategy
	}
	eff.Strategy = normalizeStrategy(string(eff.Strategy))

	if opts.MaxConcurrency != nil {
		eff.MaxConcurrency = *opts.MaxConcurrency
	}
	if eff.MaxConcurrency < 1 {
		return Config{}, NewError(KindInvalidConfig, "max_concurrency must be a positive integer")
	}

	if opts.Timeout != nil {
		eff.SubAgentTimeout = *opts.Timeout
	}

	if opts.Retries != nil {
		eff.SubAgentRetries = *opts.Retries
	}
	if eff.SubAgentRetries < 0 {
		eff.SubAgentRetries = 0
	}

	if opts.FailFast != nil {
		eff.FailFast = *opts.FailFast
	}
	if opts.IsolateContext != nil {
		eff.IsolateContext = *opts.IsolateContext
	}

	if opts.MaxTaskConcurrency != nil {
		eff.MaxTaskConcurrency = *opts.MaxTaskConcurrency
	}
	if eff.MaxTaskConcurrency < 1 {
		return Config{}, NewError(KindInvalidConfig, "max_task_concurrency must be a positive integer")
	}

	return eff, nil
}

// ExecuteSwarm fans a single task out across the resolved targets and
// returns the aggregated report (§4.5).
func (o *Orchestrator) ExecuteSwarm(ctx context.Context, task string, parentCtx *Context, opts ExecuteOptions) (*Report, error) {
	return o.executeSwarm(ctx, task, parentCtx, opts, uuid.NewString())
}

// executeSwarm is ExecuteSwarm's implementation, parameterized on the
// correlation id so that execute_mass_swarm can keep one correlation id
// stable across its aggregate and every inner swarm (per the operation id /
// correlation id glossary entry).
func (o *Orchestrator) executeSwarm(ctx context.Context, task string, parentCtx *Context, opts ExecuteOptions, correlationID string) (*Report, error) {
	eff, err := effectiveConfig(o.config, opts)
	if err != nil {
		return nil, err
	}

	targets, err := o.resolveTargets(opts.TargetAgents)
	if err != nil {
		return nil, err
	}

	operationID := uuid.NewString()
	startedAt := time.Now().UTC()
	clockStart := time.Now()

	ctx = observability.AddRequestID(ctx, operationID)
	ctx = observability.AddSessionID(ctx, correlationID)
	if parentCtx != nil && parentCtx.UserID != "" {
		ctx = observability.AddUserID(ctx, parentCtx.UserID)
	}

	if o.logger != nil {
		o.logger.Info(ctx, "swarm started",
			"operation_id", operationID, "correlation_id", correlationID,
			"strategy", string(eff.Strategy), "target_count", len(targets))
	}

	var results []SubAgentResult
	if eff.Strategy == StrategySequential {
		results, err = o.runSequential(ctx, targets, task, opts.SubTasks, parentCtx, eff)
	} else {
		results, err = o.runParallel(ctx, targets, task, opts.SubTasks, parentCtx, eff)
	}
	if err != nil {
		return nil, err
	}

	finishedAt := time.Now().UTC()
	durationMS := float64(time.Since(clockStart).Microseconds()) / 1000.0

	report := buildReport(eff.Strategy, results, startedAt, finishedAt, durationMS, operationID, correlationID)

	appendHistory(parentCtx, HistoryEntry{
		OperationID: operationID,
		Kind:        "swarm",
		Task:        task,
		Success:     report.Success,
		StartedAt:   startedAt,
		DurationMS:  durationMS,
		Successful:  report.SuccessfulAgents,
		Failed:      report.FailedAgents,
	})

	outcome := "success"
	if !report.Success {
		outcome = "failure"
	}
	if o.metrics != nil {
		o.metrics.RecordSwarmRun(string(eff.Strategy), outcome, durationMS/1000.0)
	}
	if o.logger != nil {
		logFn := o.logger.Info
		if !report.Success {
			logFn = o.logger.Warn
		}
		durations := make([]float64, len(results))
		for i, r := range results {
			durations[i] = r.DurationMS
		}
		logFn(ctx, "swarm finished",
			"operation_id", operationID, "correlation_id", correlationID,
			"strategy", string(eff.Strategy), "success", report.Success,
			"successful_agents", report.SuccessfulAgents, "failed_agents", report.FailedAgents,
			"duration_ms", durationMS, "sub_agent_duration_p95_ms", percentile(durations, 0.95))
	}

	return report, nil
}

// ExecuteMassSwarm drives execute_swarm once per input task, aggregating
// per-task reports into operations (input order preserved regardless of
// execution order) with a separate task-level concurrency cap (§4.5).
func (o *Orchestrator) ExecuteMassSwarm(ctx context.Context, tasks []string, parentCtx *Context, opts ExecuteOptions) (*MassReport, error) {
	eff, err := effectiveConfig(o.config, opts)
	if err != nil {
		return nil, err
	}

	operationID := uuid.NewString()
	correlationID := uuid.NewString()
	startedAt := time.Now().UTC()
	clockStart := time.Now()

	ctx = observability.AddRequestID(ctx, operationID)
	ctx = observability.AddSessionID(ctx, correlationID)
	if parentCtx != nil && parentCtx.UserID != "" {
		ctx = observability.AddUserID(ctx, parentCtx.UserID)
	}

	innerOpts := opts
	innerOpts.MaxTaskConcurrency = nil // not meaningful one level down

	operations := make([]*Report, len(tasks))

	runOne := func(i int) error {
		rep, err := o.executeSwarm(ctx, tasks[i], parentCtx, innerOpts, correlationID)
		if err != nil {
			return err
		}
		operations[i] = rep
		return nil
	}

	if opts.ParallelTasks {
		sem := make(chan struct{}, eff.MaxTaskConcurrency)
		var wg sync.WaitGroup
		var mu sync.Mutex
		var firstErr error
		for i := range tasks {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				if err := runOne(i); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if firstErr != nil {
			return nil, firstErr
		}
	} else {
		for i := range tasks {
			if err := runOne(i); err != nil {
				return nil, err
			}
		}
	}

	finishedAt := time.Now().UTC()
	durationMS := float64(time.Since(clockStart).Microseconds()) / 1000.0

	massReport := &MassReport{
		Operations:    make([]Report, len(operations)),
		TotalTasks:    len(operations),
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
		DurationMS:    durationMS,
		OperationID:   operationID,
		CorrelationID: correlationID,
	}

	success := true
	operationDurations := make([]float64, len(operations))
	for i, rep := range operations {
		massReport.Operations[i] = *rep
		operationDurations[i] = rep.DurationMS
		if rep.Success {
			massReport.SuccessfulTasks++
		} else {
			massReport.FailedTasks++
			success = false
		}
	}
	massReport.Success = success

	appendHistory(parentCtx, HistoryEntry{
		OperationID: operationID,
		Kind:        "mass_swarm",
		Tasks:       tasks,
		Success:     massReport.Success,
		StartedAt:   startedAt,
		DurationMS:  durationMS,
		Successful:  massReport.SuccessfulTasks,
		Failed:      massReport.FailedTasks,
	})

	outcome := "success"
	if !massReport.Success {
		outcome = "failure"
	}
	if o.metrics != nil {
		o.metrics.RecordMassSwarmRun(outcome, durationMS/1000.0)
	}
	if o.logger != nil {
		logFn := o.logger.Info
		if !massReport.Success {
			logFn = o.logger.Warn
		}
		logFn(ctx, "mass swarm finished",
			"operation_id", operationID, "correlation_id", correlationID,
			"success", massReport.Success, "total_tasks", massReport.TotalTasks,
			"duration_ms", durationMS, "operation_duration_p95_ms", percentile(operationDurations, 0.95))
	}

	return massReport, nil
}

// Execute satisfies Agent: an Orchestrator can be dispatched to as a
// sub-agent of another Orchestrator (§4.6), delegating to ExecuteSwarm with
// construction defaults. Recursion is not defended against by
// construction; registering an orchestrator under itself produces an
// infinite composition (see DESIGN.md Open Questions).
func (o *Orchestrator) Execute(ctx context.Context, task string, parentCtx *Context) (any, error) {
	return o.ExecuteSwarm(ctx, task, parentCtx, ExecuteOptions{})
}

func (o *Orchestrator) recordSubAgentOutcome(ctx context.Context, result SubAgentResult) {
	if o.metrics != nil {
		o.metrics.RecordSubAgentDuration(result.DurationMS / 1000.0)
		o.metrics.RecordRetries(max(result.Attempts-1, 0))
		o.metrics.RecordSubAgentAttempt(outcomeLabel(result))
	}
	if o.logger != nil && !result.Success {
		errMsg := ""
		if result.Error != nil {
			errMsg = *result.Error
		}
		o.logger.Warn(ctx, "sub-agent failed",
			"agent", result.Agent, "timed_out", result.TimedOut,
			"error", errMsg, "attempts", result.Attempts)
	}
}

func outcomeLabel(r SubAgentResult) string {
	switch {
	case r.Success:
		return "success"
	case r.Attempts == 0:
		return "skipped"
	case r.TimedOut:
		return "timeout"
	default:
		return "error"
	}
}

// buildReport assembles a Report from the dispatched results (component E).
func buildReport(strategy Strategy, results []SubAgentResult, startedAt, finishedAt time.Time, durationMS float64, operationID, correlationID string) *Report {
	report := &Report{
		Strategy:      strategy,
		Results:       results,
		TotalAgents:   len(results),
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
		DurationMS:    durationMS,
		OperationID:   operationID,
		CorrelationID: correlationID,
	}

	success := true
	for _, r := range results {
		if r.Success {
			report.SuccessfulAgents++
		} else {
			report.FailedAgents++
			success = false
		}
	}
	report.Success = success
	return report
}
