package swarm_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/swarmforge/swarmforge/internal/swarm"
	"github.com/swarmforge/swarmforge/pkg/swarmagent"
)

func newOrchestrator(t *testing.T, cfg swarm.Config) *swarm.Orchestrator {
	t.Helper()
	return swarm.NewOrchestrator("test-orchestrator", cfg, nil, nil)
}

// S1 - parallel all succeed.
func TestExecuteSwarm_ParallelAllSucceed(t *testing.T) {
	cfg := swarm.DefaultConfig()
	cfg.MaxConcurrency = 6
	o := newOrchestrator(t, cfg)

	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("worker_%d", i)
		if err := o.AddSubAgent(swarmagent.NewEcho(name, 10*time.Millisecond)); err != nil {
			t.Fatalf("AddSubAgent(%s): %v", name, err)
		}
	}

	parentCtx := swarm.NewContext("parallel")
	report, err := o.ExecuteSwarm(context.Background(), "parallel-task", parentCtx, swarm.ExecuteOptions{})
	if err != nil {
		t.Fatalf("ExecuteSwarm: %v", err)
	}

	if !report.Success {
		t.Fatalf("report.Success = false, want true")
	}
	if report.TotalAgents != 12 {
		t.Fatalf("TotalAgents = %d, want 12", report.TotalAgents)
	}
	if report.SuccessfulAgents != 12 || report.FailedAgents != 0 {
		t.Fatalf("SuccessfulAgents=%d FailedAgents=%d, want 12/0", report.SuccessfulAgents, report.FailedAgents)
	}
	for _, res := range report.Results {
		out, ok := res.Output.(map[string]any)
		if !ok {
			t.Fatalf("result %q output not a map: %#v", res.Agent, res.Output)
		}
		if out["session_id"] != "parallel" {
			t.Fatalf("result %q session_id = %v, want parallel", res.Agent, out["session_id"])
		}
	}
}

// S2 - target filter plus per-agent sub-task.
func TestExecuteSwarm_TargetFilterAndSubTask(t *testing.T) {
	o := newOrchestrator(t, swarm.DefaultConfig())

	if err := o.AddSubAgents([]swarm.Agent{
		swarmagent.NewEcho("worker_a", 10*time.Millisecond),
		swarmagent.NewEcho("worker_b", 10*time.Millisecond),
	}); err != nil {
		t.Fatalf("AddSubAgents: %v", err)
	}

	parentCtx := swarm.NewContext("filtered")
	report, err := o.ExecuteSwarm(context.Background(), "common-task", parentCtx, swarm.ExecuteOptions{
		TargetAgents: []string{"worker_a"},
		SubTasks: map[string]string{
			"worker_a": "custom-task-for-a",
			"worker_b": "custom-task-for-b",
		},
	})
	if err != nil {
		t.Fatalf("ExecuteSwarm: %v", err)
	}

	if report.TotalAgents != 1 {
		t.Fatalf("TotalAgents = %d, want 1", report.TotalAgents)
	}
	res := report.Results[0]
	if res.Agent != "worker_a" {
		t.Fatalf("Results[0].Agent = %q, want worker_a", res.Agent)
	}
	out, ok := res.Output.(map[string]any)
	if !ok {
		t.Fatalf("output not a map: %#v", res.Output)
	}
	if out["task"] != "custom-task-for-a" {
		t.Fatalf("task = %v, want custom-task-for-a", out["task"])
	}
}

// S3 - retry recovers a flaky agent.
func TestExecuteSwarm_RetryRecoversFlaky(t *testing.T) {
	cfg := swarm.DefaultConfig()
	cfg.Strategy = swarm.StrategySequential
	o := newOrchestrator(t, cfg)

	flaky := swarmagent.NewFlakyOnce("flaky")
	if err := o.AddSubAgent(flaky); err != nil {
		t.Fatalf("AddSubAgent: %v", err)
	}

	retries := 1
	parentCtx := swarm.NewContext("retry")
	report, err := o.ExecuteSwarm(context.Background(), "task", parentCtx, swarm.ExecuteOptions{
		Retries: &retries,
	})
	if err != nil {
		t.Fatalf("ExecuteSwarm: %v", err)
	}

	if !report.Success {
		t.Fatalf("report.Success = false, want true")
	}
	if !report.Results[0].Success {
		t.Fatalf("Results[0].Success = false, want true")
	}
	if report.Results[0].Attempts != 2 {
		t.Fatalf("Results[0].Attempts = %d, want 2", report.Results[0].Attempts)
	}
	if flaky.Calls() != 2 {
		t.Fatalf("flaky.Calls() = %d, want 2", flaky.Calls())
	}
}

// S4 - per-attempt timeout marks failure.
func TestExecuteSwarm_TimeoutMarksFailure(t *testing.T) {
	o := newOrchestrator(t, swarm.DefaultConfig())
	if err := o.AddSubAgent(swarmagent.NewEcho("slow_worker", 50*time.Millisecond)); err != nil {
		t.Fatalf("AddSubAgent: %v", err)
	}

	timeout := 10 * time.Millisecond
	retries := 0
	parentCtx := swarm.NewContext("timeout")
	report, err := o.ExecuteSwarm(context.Background(), "task", parentCtx, swarm.ExecuteOptions{
		Timeout: &timeout,
		Retries: &retries,
	})
	if err != nil {
		t.Fatalf("ExecuteSwarm: %v", err)
	}

	if report.Success {
		t.Fatalf("report.Success = true, want false")
	}
	if report.FailedAgents != 1 {
		t.Fatalf("FailedAgents = %d, want 1", report.FailedAgents)
	}
	res := report.Results[0]
	if res.Success {
		t.Fatalf("Results[0].Success = true, want false")
	}
	if !res.TimedOut {
		t.Fatalf("Results[0].TimedOut = false, want true")
	}
	if res.Error == nil || !strings.HasPrefix(*res.Error, "Timed out after ") {
		t.Fatalf("Results[0].Error = %v, want prefix %q", res.Error, "Timed out after ")
	}
}

// S5 - fail-fast sequential skips remaining targets.
func TestExecuteSwarm_FailFastSequentialSkipsRemaining(t *testing.T) {
	cfg := swarm.DefaultConfig()
	cfg.Strategy = swarm.StrategySequential
	o := newOrchestrator(t, cfg)

	if err := o.AddSubAgent(swarmagent.NewAlwaysFail("fail_agent")); err != nil {
		t.Fatalf("AddSubAgent: %v", err)
	}
	if err := o.AddSubAgent(swarmagent.NewEcho("echo_agent", 10*time.Millisecond)); err != nil {
		t.Fatalf("AddSubAgent: %v", err)
	}

	failFast := true
	parentCtx := swarm.NewContext("failfast")
	report, err := o.ExecuteSwarm(context.Background(), "task", parentCtx, swarm.ExecuteOptions{
		FailFast: &failFast,
	})
	if err != nil {
		t.Fatalf("ExecuteSwarm: %v", err)
	}

	if report.TotalAgents != 2 {
		t.Fatalf("TotalAgents = %d, want 2", report.TotalAgents)
	}
	first := report.Results[0]
	if first.Agent != "fail_agent" || first.Success {
		t.Fatalf("Results[0] = %+v, want a failure from fail_agent", first)
	}
	second := report.Results[1]
	if second.Agent != "echo_agent" || second.Success || second.Attempts != 0 {
		t.Fatalf("Results[1] = %+v, want a skip with 0 attempts", second)
	}
	if second.Error == nil || *second.Error != "Skipped due to fail_fast policy" {
		t.Fatalf("Results[1].Error = %v, want \"Skipped due to fail_fast policy\"", second.Error)
	}
}

// S6 - mass swarm over 4 tasks, 3 agents.
func TestExecuteMassSwarm_FourTasksThreeAgents(t *testing.T) {
	cfg := swarm.DefaultConfig()
	cfg.MaxConcurrency = 4
	cfg.MaxTaskConcurrency = 3
	o := newOrchestrator(t, cfg)

	if err := o.AddSubAgents([]swarm.Agent{
		swarmagent.NewEcho("worker_0", 5*time.Millisecond),
		swarmagent.NewEcho("worker_1", 5*time.Millisecond),
		swarmagent.NewEcho("worker_2", 5*time.Millisecond),
	}); err != nil {
		t.Fatalf("AddSubAgents: %v", err)
	}

	parentCtx := swarm.NewContext("mass")
	tasks := []string{"t1", "t2", "t3", "t4"}
	report, err := o.ExecuteMassSwarm(context.Background(), tasks, parentCtx, swarm.ExecuteOptions{
		ParallelTasks: true,
	})
	if err != nil {
		t.Fatalf("ExecuteMassSwarm: %v", err)
	}

	if !report.Success {
		t.Fatalf("report.Success = false, want true")
	}
	if report.TotalTasks != 4 || report.SuccessfulTasks != 4 || report.FailedTasks != 0 {
		t.Fatalf("TotalTasks=%d SuccessfulTasks=%d FailedTasks=%d, want 4/4/0",
			report.TotalTasks, report.SuccessfulTasks, report.FailedTasks)
	}
	if len(report.Operations) != 4 {
		t.Fatalf("len(Operations) = %d, want 4", len(report.Operations))
	}
	for i, op := range report.Operations {
		if op.TotalAgents != 3 {
			t.Fatalf("Operations[%d].TotalAgents = %d, want 3", i, op.TotalAgents)
		}
	}
	wantTasks := []string{"t1", "t2", "t3", "t4"}
	for i, op := range report.Operations {
		if len(op.Results) == 0 {
			t.Fatalf("Operations[%d] has no results", i)
		}
		out, ok := op.Results[0].Output.(map[string]any)
		if !ok {
			t.Fatalf("Operations[%d] result output not a map: %#v", i, op.Results[0].Output)
		}
		if out["task"] != wantTasks[i] {
			t.Fatalf("Operations[%d] task = %v, want %s", i, out["task"], wantTasks[i])
		}
	}

	history, ok := parentCtx.State["swarm_history"].([]swarm.HistoryEntry)
	if !ok {
		t.Fatalf("swarm_history not recorded or wrong type: %#v", parentCtx.State["swarm_history"])
	}
	if len(history) != 5 {
		t.Fatalf("len(swarm_history) = %d, want 5 (4 inner swarm entries + 1 mass entry)", len(history))
	}
	swarmEntries, massEntries := 0, 0
	for _, h := range history {
		switch h.Kind {
		case "swarm":
			swarmEntries++
		case "mass_swarm":
			massEntries++
		}
	}
	if swarmEntries != 4 || massEntries != 1 {
		t.Fatalf("swarmEntries=%d massEntries=%d, want 4/1", swarmEntries, massEntries)
	}
}

func TestExecuteSwarm_UnknownTargetAgentSurfacesError(t *testing.T) {
	o := newOrchestrator(t, swarm.DefaultConfig())
	if err := o.AddSubAgent(swarmagent.NewEcho("only", time.Millisecond)); err != nil {
		t.Fatalf("AddSubAgent: %v", err)
	}

	_, err := o.ExecuteSwarm(context.Background(), "task", swarm.NewContext("s"), swarm.ExecuteOptions{
		TargetAgents: []string{"missing"},
	})
	if err == nil {
		t.Fatalf("expected an error for an unknown target agent")
	}
	if !swarm.IsKind(err, swarm.KindUnknownAgent) {
		t.Fatalf("error %v is not KindUnknownAgent", err)
	}
}

func TestExecuteSwarm_InvalidConfigRejected(t *testing.T) {
	o := newOrchestrator(t, swarm.DefaultConfig())
	zero := 0
	_, err := o.ExecuteSwarm(context.Background(), "task", swarm.NewContext("s"), swarm.ExecuteOptions{
		MaxConcurrency: &zero,
	})
	if err == nil || !swarm.IsKind(err, swarm.KindInvalidConfig) {
		t.Fatalf("error = %v, want KindInvalidConfig", err)
	}
}

func TestOrchestrator_NamingConflictRejected(t *testing.T) {
	o := swarm.NewOrchestrator("self", swarm.DefaultConfig(), nil, nil)
	err := o.AddSubAgent(swarmagent.NewEcho("self", time.Millisecond))
	if err == nil || !swarm.IsKind(err, swarm.KindNamingConflict) {
		t.Fatalf("error = %v, want KindNamingConflict", err)
	}
}

func TestRegistry_ReRegistrationReplacesSilently(t *testing.T) {
	o := newOrchestrator(t, swarm.DefaultConfig())
	if err := o.AddSubAgent(swarmagent.NewEcho("dup", time.Millisecond)); err != nil {
		t.Fatalf("AddSubAgent: %v", err)
	}
	if err := o.AddSubAgent(swarmagent.NewAlwaysFail("dup")); err != nil {
		t.Fatalf("AddSubAgent (replace): %v", err)
	}
	if names := o.ListSubAgents(); len(names) != 1 || names[0] != "dup" {
		t.Fatalf("ListSubAgents() = %v, want exactly one entry \"dup\"", names)
	}

	report, err := o.ExecuteSwarm(context.Background(), "task", swarm.NewContext("s"), swarm.ExecuteOptions{})
	if err != nil {
		t.Fatalf("ExecuteSwarm: %v", err)
	}
	if report.Results[0].Success {
		t.Fatalf("expected the replaced (AlwaysFail) agent to run, got a success")
	}
}
