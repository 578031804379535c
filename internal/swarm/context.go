package swarm

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Context represents a per-invocation execution context carried through a
// swarm dispatch. Contexts are owned by the caller; the orchestrator never
// mutates Metadata, and only ever writes State["swarm_history"] on the
// top-level parent context. mu guards that write: a mass swarm running
// with ParallelTasks hands the same top-level *Context to every inner
// execute_swarm goroutine, so appends to State["swarm_history"] must be
// serialized rather than racing on the underlying map.
type Context struct {
	SessionID string
	UserID    string
	Metadata  map[string]any
	State     map[string]any

	mu sync.Mutex
}

// NewContext creates an empty context for the given session.
func NewContext(sessionID string) *Context {
	return &Context{
		SessionID: sessionID,
		Metadata:  make(map[string]any),
		State:     make(map[string]any),
	}
}

// Derive produces the sub-context passed to one sub-agent invocation.
//
// When isolate is false, parent is returned unchanged: sub-agents then
// share parent.State, and the caller is responsible for synchronizing any
// concurrent writes. When isolate is true (the default), a freshly
// allocated context is returned per §3/§4.2: Metadata is a shallow copy of
// parent.Metadata plus swarm_parent/sub_agent, and State is a deep copy so
// that sub-agent mutations never reach the parent.
func Derive(parent *Context, orchestratorName, subAgentName string, isolate bool) (*Context, error) {
	if !isolate {
		return parent, nil
	}

	metadata := make(map[string]any, len(parent.Metadata)+2)
	for k, v := range parent.Metadata {
		metadata[k] = v
	}
	metadata["swarm_parent"] = orchestratorName
	metadata["sub_agent"] = subAgentName

	state, err := deepCopyState(parent.State)
	if err != nil {
		return nil, wrapError(KindContextDerivation, "failed to derive isolated sub-context", err)
	}

	return &Context{
		SessionID: parent.SessionID,
		UserID:    parent.UserID,
		Metadata:  metadata,
		State:     state,
	}, nil
}

// deepCopyState recursively copies a state map. Primitives, slices, and
// nested maps are copied structurally; any other value falls back to a
// JSON round-trip, per the deep-copy guidance for restricting state to a
// JSON-like subset when no general structured clone is available. A value
// that cannot be marshalled is reported as an error rather than aliased.
func deepCopyState(src map[string]any) (map[string]any, error) {
	if src == nil {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		cp, err := deepCopyValue(v)
		if err != nil {
			return nil, fmt.Errorf("state key %q: %w", k, err)
		}
		out[k] = cp
	}
	return out, nil
}

func deepCopyValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool, string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return val, nil
	case map[string]any:
		return deepCopyState(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			cp, err := deepCopyValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = cp
		}
		return out, nil
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("value of type %T is not copyable: %w", val, err)
		}
		var decoded any
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			return nil, fmt.Errorf("value of type %T round-trip failed: %w", val, err)
		}
		return decoded, nil
	}
}
