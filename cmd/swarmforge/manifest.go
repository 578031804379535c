package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	swarmcfg "github.com/swarmforge/swarmforge/internal/config"
	"github.com/swarmforge/swarmforge/internal/observability"
	"github.com/swarmforge/swarmforge/internal/swarm"
	"github.com/swarmforge/swarmforge/pkg/swarmagent"
)

// agentSpec describes one fixture sub-agent entry in a manifest file.
type agentSpec struct {
	Name   string  `yaml:"name"`
	Kind   string  `yaml:"kind"` // echo | flaky_once | always_fail
	DelayS float64 `yaml:"delay_s"`
}

// manifest is the YAML shape accepted by the run subcommand: an
// orchestrator name, its construction-time configuration map, a fleet of
// fixture sub-agents, and either a single task or a batch of tasks (the
// presence of Tasks selects execute_mass_swarm over execute_swarm).
type manifest struct {
	Name          string         `yaml:"name"`
	Config        map[string]any `yaml:"config"`
	Agents        []agentSpec    `yaml:"agents"`
	Task          string         `yaml:"task"`
	Tasks         []string       `yaml:"tasks"`
	ParallelTasks bool           `yaml:"parallel_tasks"`
	SessionID     string         `yaml:"session_id"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Name == "" {
		m.Name = "swarmforge"
	}
	if m.SessionID == "" {
		m.SessionID = "cli"
	}
	return &m, nil
}

// buildOrchestrator resolves the manifest's config map into a swarm.Config
// and registers its declared fixture agents.
func buildOrchestrator(m *manifest, logger *observability.Logger, metrics *observability.Metrics) (*swarm.Orchestrator, error) {
	cfg, err := swarmcfg.FromMap(m.Config)
	if err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}

	o := swarm.NewOrchestrator(m.Name, cfg, logger, metrics)
	for _, spec := range m.Agents {
		agent, err := buildAgent(spec)
		if err != nil {
			return nil, err
		}
		if err := o.AddSubAgent(agent); err != nil {
			return nil, fmt.Errorf("register agent %q: %w", spec.Name, err)
		}
	}
	return o, nil
}

func buildAgent(spec agentSpec) (swarm.Agent, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("agent entry missing a name")
	}
	delay := time.Duration(spec.DelayS * float64(time.Second))
	switch spec.Kind {
	case "", "echo":
		return swarmagent.NewEcho(spec.Name, delay), nil
	case "flaky_once":
		return swarmagent.NewFlakyOnce(spec.Name), nil
	case "always_fail":
		return swarmagent.NewAlwaysFail(spec.Name), nil
	default:
		return nil, fmt.Errorf("agent %q: unknown kind %q", spec.Name, spec.Kind)
	}
}
