// Package swarmagent provides small reference Agent implementations used by
// demos, the serve subcommand's built-in fleet, and the orchestrator's own
// tests: an agent that always succeeds after a delay, one that fails on its
// first call and then succeeds, and one that always fails.
package swarmagent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/swarmforge/swarmforge/internal/swarm"
)

// Echo sleeps for Delay and then reports success, echoing back the task it
// was given and the session id of the context it ran under.
type Echo struct {
	AgentName string
	Delay     time.Duration
}

// NewEcho builds an Echo agent named name that sleeps delay before
// returning.
func NewEcho(name string, delay time.Duration) *Echo {
	return &Echo{AgentName: name, Delay: delay}
}

func (e *Echo) Name() string { return e.AgentName }

func (e *Echo) Execute(ctx context.Context, task string, agentCtx *swarm.Context) (any, error) {
	if e.Delay > 0 {
		select {
		case <-time.After(e.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	sessionID := ""
	if agentCtx != nil {
		sessionID = agentCtx.SessionID
	}

	return map[string]any{
		"success":    true,
		"agent":      e.AgentName,
		"task":       task,
		"session_id": sessionID,
	}, nil
}

// FlakyOnce fails its first invocation with a transient error and succeeds
// on every call after that, reporting how many times it has been called.
type FlakyOnce struct {
	AgentName string

	mu    sync.Mutex
	calls int
}

// NewFlakyOnce builds a FlakyOnce agent named name.
func NewFlakyOnce(name string) *FlakyOnce {
	return &FlakyOnce{AgentName: name}
}

func (f *FlakyOnce) Name() string { return f.AgentName }

func (f *FlakyOnce) Execute(ctx context.Context, task string, agentCtx *swarm.Context) (any, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if n == 1 {
		return nil, fmt.Errorf("transient failure")
	}

	return map[string]any{
		"success": true,
		"agent":   f.AgentName,
		"task":    task,
		"calls":   n,
	}, nil
}

// Calls reports the number of times Execute has been invoked so far.
func (f *FlakyOnce) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// AlwaysFail fails every invocation with a fixed error.
type AlwaysFail struct {
	AgentName string
}

// NewAlwaysFail builds an AlwaysFail agent named name.
func NewAlwaysFail(name string) *AlwaysFail {
	return &AlwaysFail{AgentName: name}
}

func (a *AlwaysFail) Name() string { return a.AgentName }

func (a *AlwaysFail) Execute(ctx context.Context, task string, agentCtx *swarm.Context) (any, error) {
	return nil, fmt.Errorf("forced failure")
}
