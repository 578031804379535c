package swarm

import "time"

// Strategy selects how the strategy engine dispatches a swarm's targets.
type Strategy string

const (
	StrategyParallel   Strategy = "parallel"
	StrategySequential Strategy = "sequential"
)

// Config holds construction-time defaults for an Orchestrator. Per-call
// overrides in ExecuteOptions supersede these for a single invocation.
//
// The zero value of Config is not the documented default (IsolateContext
// would be false rather than true); callers should start from
// DefaultConfig() and override individual fields, or build a Config through
// internal/config which applies these same defaults to an external map.
type Config struct {
	Strategy           Strategy
	MaxConcurrency     int
	SubAgentTimeout    time.Duration // <= 0 means no per-attempt timeout
	SubAgentRetries    int
	FailFast           bool
	IsolateContext     bool
	MaxTaskConcurrency int
}

// DefaultConfig returns the construction defaults from the external
// interface's configuration table.
func DefaultConfig() Config {
	return Config{
		Strategy:           StrategyParallel,
		MaxConcurrency:     8,
		SubAgentTimeout:    30 * time.Second,
		SubAgentRetries:    0,
		FailFast:           false,
		IsolateContext:     true,
		MaxTaskConcurrency: 4,
	}
}

// ExecuteOptions carries per-call overrides for execute_swarm and
// execute_mass_swarm. A nil pointer field means "use the construction
// default for this call"; this is distinct from an explicit zero value
// (e.g. Retries pointing at 0 means "no retries for this call", not
// "unset").
type ExecuteOptions struct {
	// TargetAgents restricts the swarm to exactly these agents, in this
	// order. Nil/empty means use the registry's registration order.
	TargetAgents []string

	// SubTasks maps a sub-agent name to a task string that replaces the
	// common task for that agent only.
	SubTasks map[string]string

	Strategy           Strategy
	MaxConcurrency     *int
	Timeout            *time.Duration
	Retries            *int
	FailFast           *bool
	IsolateContext     *bool
	MaxTaskConcurrency *int

	// ParallelTasks controls execute_mass_swarm's task-level dispatch.
	// Ignored by ExecuteSwarm.
	ParallelTasks bool
}

// SubAgentResult is the immutable record emitted by the single-agent
// executor for every attempted sub-agent.
type SubAgentResult struct {
	Agent      string  `json:"agent"`
	Success    bool    `json:"success"`
	Output     any     `json:"output"`
	Error      *string `json:"error"`
	Attempts   int     `json:"attempts"`
	TimedOut   bool    `json:"timed_out"`
	DurationMS float64 `json:"duration_ms"`
}

func errPtr(s string) *string { return &s }

// Report is produced by one execute_swarm call.
type Report struct {
	Success          bool             `json:"success"`
	Strategy         Strategy         `json:"strategy"`
	TotalAgents      int              `json:"total_agents"`
	SuccessfulAgents int              `json:"successful_agents"`
	FailedAgents     int              `json:"failed_agents"`
	Results          []SubAgentResult `json:"results"`
	StartedAt        time.Time        `json:"started_at"`
	FinishedAt       time.Time        `json:"finished_at"`
	DurationMS       float64          `json:"duration_ms"`
	OperationID      string           `json:"operation_id"`
	CorrelationID    string           `json:"correlation_id"`
	Summary          string           `json:"summary,omitempty"`
}

// MassReport is produced by one execute_mass_swarm call.
type MassReport struct {
	Success         bool      `json:"success"`
	TotalTasks      int       `json:"total_tasks"`
	SuccessfulTasks int       `json:"successful_tasks"`
	FailedTasks     int       `json:"failed_tasks"`
	Operations      []Report  `json:"operations"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DurationMS      float64   `json:"duration_ms"`
	OperationID     string    `json:"operation_id"`
	CorrelationID   string    `json:"correlation_id"`
}

// HistoryEntry is appended to context.State["swarm_history"] once per
// top-level execute_swarm or execute_mass_swarm invocation.
type HistoryEntry struct {
	OperationID string    `json:"operation_id"`
	Kind        string    `json:"kind"` // "swarm" | "mass_swarm"
	Task        string    `json:"task,omitempty"`
	Tasks       []string  `json:"tasks,omitempty"`
	Success     bool      `json:"success"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  float64   `json:"duration_ms"`
	Successful  int       `json:"successful"`
	Failed      int       `json:"failed"`
}

const historyKey = "swarm_history"

// appendHistory appends entry to parentCtx.State[historyKey], creating the
// sequence if absent. This is the orchestrator's only write to a caller's
// top-level context.State. A mass swarm running with ParallelTasks calls
// this concurrently from every inner execute_swarm goroutine against the
// same parentCtx, so the read-modify-write is guarded by parentCtx.mu.
func appendHistory(parentCtx *Context, entry HistoryEntry) {
	if parentCtx == nil || parentCtx.State == nil {
		return
	}
	parentCtx.mu.Lock()
	defer parentCtx.mu.Unlock()
	existing, _ := parentCtx.State[historyKey].([]HistoryEntry)
	parentCtx.State[historyKey] = append(existing, entry)
}
