package swarm

import (
	"context"
	"fmt"
	"sync"
)

// Agent is the narrow capability contract every sub-agent, and the
// orchestrator itself, satisfies: a stable name plus an execute call that
// either produces an output or returns an error.
type Agent interface {
	Name() string
	Execute(ctx context.Context, task string, agentCtx *Context) (any, error)
}

// Registry holds named sub-agents keyed by name, preserving registration
// order so default target resolution (§4.4) is deterministic. Reads are
// safe for concurrent use while a swarm is running; writes are expected to
// happen before/after, never concurrently with, a running swarm.
type Registry struct {
	mu        sync.RWMutex
	ownerName string
	agents    map[string]Agent
	order     []string
}

// NewRegistry creates a registry that rejects registrations named ownerName
// (the orchestrator's own name is reserved, per §4.1).
func NewRegistry(ownerName string) *Registry {
	return &Registry{
		ownerName: ownerName,
		agents:    make(map[string]Agent),
	}
}

// Add registers agent under its own name. A prior registration under the
// same name is replaced (last writer wins).
func (r *Registry) Add(agent Agent) error {
	if agent == nil {
		return NewError(KindInvalidConfig, "agent cannot be nil")
	}
	name := agent.Name()
	if name == "" {
		return NewError(KindInvalidConfig, "agent name cannot be empty")
	}
	if name == r.ownerName {
		return NewError(KindNamingConflict, fmt.Sprintf("agent name %q conflicts with the orchestrator's own name", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[name]; !exists {
		r.order = append(r.order, name)
	}
	r.agents[name] = agent
	return nil
}

// AddMany registers each agent in iteration order, stopping at the first error.
func (r *Registry) AddMany(agents []Agent) error {
	for _, a := range agents {
		if err := r.Add(a); err != nil {
			return err
		}
	}
	return nil
}

// Remove removes the agent registered under name. It is idempotent: a
// second call for the same name returns false.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[name]; !ok {
		return false
	}
	delete(r.agents, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns the registered names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the agent registered under name, if any.
func (r *Registry) Lookup(name string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}
