package swarm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/swarmforge/swarmforge/internal/retry"
)

// timeoutError marks a failed attempt that ended by per-attempt timeout
// rather than an agent-reported error. Its message satisfies the timeout
// error marker required by the external interface.
type timeoutError struct {
	seconds float64
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("Timed out after %gs", e.seconds)
}

// runAgent is the single-agent executor (component C): it runs agent under
// a per-attempt timeout, retrying immediately (no backoff, per the
// Non-goal) up to retries+1 total attempts, and classifies the outcome
// into a SubAgentResult.
//
// The retry budget is driven by internal/retry.DoWithValue. Its Config
// would normally apply a 100ms default delay whenever InitialDelay is left
// at its zero value, which would silently reintroduce backoff between
// attempts; this executor instead pins InitialDelay/MaxDelay to one
// nanosecond with Factor 1, which keeps retries effectively immediate
// while still exercising the shared retry primitive rather than
// reimplementing the loop by hand.
func runAgent(ctx context.Context, agent Agent, task string, agentCtx *Context, perAttemptTimeout time.Duration, retries int) SubAgentResult {
	if retries < 0 {
		retries = 0
	}

	cfg := retry.Config{
		MaxAttempts:  retries + 1,
		InitialDelay: time.Nanosecond,
		MaxDelay:     time.Nanosecond,
		Factor:       1,
		Jitter:       false,
	}

	output, res := retry.DoWithValue(ctx, cfg, func() (any, error) {
		attemptCtx := ctx
		cancel := func() {}
		if perAttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, perAttemptTimeout)
		}
		defer cancel()

		out, err := agent.Execute(attemptCtx, task, agentCtx)
		if err != nil {
			if perAttemptTimeout > 0 && errors.Is(err, context.DeadlineExceeded) {
				return nil, &timeoutError{seconds: perAttemptTimeout.Seconds()}
			}
			return nil, err
		}
		return out, nil
	})

	result := SubAgentResult{
		Agent:      agent.Name(),
		Attempts:   res.Attempts,
		DurationMS: float64(res.Duration.Microseconds()) / 1000.0,
	}

	if res.Err == nil {
		result.Success = true
		result.Output = output
		return result
	}

	var timeoutErr *timeoutError
	if errors.As(res.Err, &timeoutErr) {
		result.TimedOut = true
	}
	result.Error = errPtr(res.Err.Error())
	return result
}
