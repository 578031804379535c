package swarm

import (
	"context"
	"fmt"
	"sync"
)

const (
	skipFailFastSequential = "Skipped due to fail_fast policy"
	skipFailFastParallel   = "Cancelled by fail_fast"
)

func skipResult(agent, reason string) SubAgentResult {
	return SubAgentResult{
		Agent:    agent,
		Success:  false,
		Attempts: 0,
		Error:    errPtr(reason),
	}
}

// runOne derives a sub-context for one target and runs it through the
// single-agent executor, recording observability side effects. The
// returned error is non-nil only for a context-derivation failure, which
// must surface rather than be recovered into a result.
func (o *Orchestrator) runOne(ctx context.Context, name, task string, subTasks map[string]string, parentCtx *Context, eff Config) (SubAgentResult, error) {
	agent, ok := o.registry.Lookup(name)
	if !ok {
		return SubAgentResult{}, NewError(KindUnknownAgent, fmt.Sprintf("unknown agent %q", name))
	}

	agentTask := task
	if override, ok := subTasks[name]; ok {
		agentTask = override
	}

	subCtx, err := Derive(parentCtx, o.name, name, eff.IsolateContext)
	if err != nil {
		return SubAgentResult{}, err
	}

	result := runAgent(ctx, agent, agentTask, subCtx, eff.SubAgentTimeout, eff.SubAgentRetries)
	o.recordSubAgentOutcome(ctx, result)
	return result, nil
}

// runSequential is the sequential strategy (§4.4): targets run one after
// another; a fail_fast trigger turns every remaining target into a skip
// record while preserving original target order.
func (o *Orchestrator) runSequential(ctx context.Context, targets []string, task string, subTasks map[string]string, parentCtx *Context, eff Config) ([]SubAgentResult, error) {
	results := make([]SubAgentResult, 0, len(targets))
	stopped := false

	for _, name := range targets {
		if stopped {
			results = append(results, skipResult(name, skipFailFastSequential))
			continue
		}

		res, err := o.runOne(ctx, name, task, subTasks, parentCtx, eff)
		if err != nil {
			return nil, err
		}

		results = append(results, res)
		if eff.FailFast && !res.Success {
			stopped = true
		}
	}
	return results, nil
}

// runParallel is the parallel strategy (§4.4): a semaphore of capacity
// eff.MaxConcurrency bounds concurrent executor invocations. Once a
// fail_fast trigger fires, no new executor invocation starts; units that
// had not yet entered the executor are recorded as cancelled, and units
// mid-flight are reported by the executor itself as failed. Results are
// re-sorted into original target order before return.
func (o *Orchestrator) runParallel(ctx context.Context, targets []string, task string, subTasks map[string]string, parentCtx *Context, eff Config) ([]SubAgentResult, error) {
	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, eff.MaxConcurrency)

	var (
		mu             sync.Mutex
		results        = make(map[string]SubAgentResult, len(targets))
		failed         bool
		firstDeriveErr error
	)

	var wg sync.WaitGroup
	for _, name := range targets {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-execCtx.Done():
				mu.Lock()
				results[name] = skipResult(name, skipFailFastParallel)
				mu.Unlock()
				return
			}
			defer func() { <-sem }()

			mu.Lock()
			alreadyStopped := failed || firstDeriveErr != nil
			mu.Unlock()
			if alreadyStopped {
				mu.Lock()
				results[name] = skipResult(name, skipFailFastParallel)
				mu.Unlock()
				return
			}

			res, err := o.runOne(execCtx, name, task, subTasks, parentCtx, eff)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstDeriveErr == nil {
					firstDeriveErr = err
					cancel()
				}
				return
			}
			results[name] = res
			if eff.FailFast && !res.Success {
				failed = true
				cancel()
			}
		}()
	}
	wg.Wait()

	if firstDeriveErr != nil {
		return nil, firstDeriveErr
	}

	ordered := make([]SubAgentResult, 0, len(targets))
	for _, name := range targets {
		if res, ok := results[name]; ok {
			ordered = append(ordered, res)
			continue
		}
		// Cancelled before the semaphore/derive-error branches above
		// recorded anything, e.g. an externally cancelled parent context.
		ordered = append(ordered, skipResult(name, skipFailFastParallel))
	}
	return ordered, nil
}

// percentile returns the p-th percentile (0..1) of durations using
// nearest-rank, for the per-operation metrics payload
// (sub_agent_duration_p95_ms / operation_duration_p95_ms).
func percentile(durations []float64, p float64) float64 {
	if len(durations) == 0 {
		return 0
	}
	sorted := append([]float64(nil), durations...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	rank := int(p*float64(len(sorted)-1) + 0.5)
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
