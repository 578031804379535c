// Package config loads construction-time swarm.Config values from a plain
// map or a YAML file, applying the defaults documented in the external
// interface's configuration table while distinguishing a key that is
// absent (use the default) from a key that is explicitly set to its zero
// value (use that value).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/swarmforge/swarmforge/internal/swarm"
)

// Load reads a YAML file and resolves it into a swarm.Config, starting from
// swarm.DefaultConfig() for any key the file omits.
func Load(path string) (swarm.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return swarm.Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse resolves YAML data into a swarm.Config the same way Load does.
func Parse(data []byte) (swarm.Config, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return swarm.Config{}, fmt.Errorf("parse config YAML: %w", err)
	}
	return FromMap(raw)
}

// FromMap resolves a plain map (e.g. already decoded from JSON or YAML, or
// built by an embedder) into a swarm.Config. Keys absent from raw fall back
// to swarm.DefaultConfig(); a key present with its zero value (0, false,
// "") is honored as an explicit override, not treated as absent.
func FromMap(raw map[string]any) (swarm.Config, error) {
	cfg := swarm.DefaultConfig()

	if v, ok := raw["strategy"]; ok {
		s, ok := v.(string)
		if !ok {
			return swarm.Config{}, fmt.Errorf("strategy: want string, got %T", v)
		}
		cfg.Strategy = swarm.Strategy(s)
	}

	if v, ok := raw["max_concurrency"]; ok {
		n, err := toInt(v)
		if err != nil {
			return swarm.Config{}, fmt.Errorf("max_concurrency: %w", err)
		}
		if n < 1 {
			return swarm.Config{}, swarm.NewError(swarm.KindInvalidConfig, "max_concurrency must be a positive integer")
		}
		cfg.MaxConcurrency = n
	}

	if v, ok := raw["sub_agent_timeout"]; ok {
		seconds, err := toFloat(v)
		if err != nil {
			return swarm.Config{}, fmt.Errorf("sub_agent_timeout: %w", err)
		}
		if seconds <= 0 {
			cfg.SubAgentTimeout = 0
		} else {
			cfg.SubAgentTimeout = time.Duration(seconds * float64(time.Second))
		}
	}

	if v, ok := raw["sub_agent_retries"]; ok {
		n, err := toInt(v)
		if err != nil {
			return swarm.Config{}, fmt.Errorf("sub_agent_retries: %w", err)
		}
		if n < 0 {
			n = 0
		}
		cfg.SubAgentRetries = n
	}

	if v, ok := raw["fail_fast"]; ok {
		b, ok := v.(bool)
		if !ok {
			return swarm.Config{}, fmt.Errorf("fail_fast: want bool, got %T", v)
		}
		cfg.FailFast = b
	}

	if v, ok := raw["isolate_context"]; ok {
		b, ok := v.(bool)
		if !ok {
			return swarm.Config{}, fmt.Errorf("isolate_context: want bool, got %T", v)
		}
		cfg.IsolateContext = b
	}

	if v, ok := raw["max_task_concurrency"]; ok {
		n, err := toInt(v)
		if err != nil {
			return swarm.Config{}, fmt.Errorf("max_task_concurrency: %w", err)
		}
		if n < 1 {
			return swarm.Config{}, swarm.NewError(swarm.KindInvalidConfig, "max_task_concurrency must be a positive integer")
		}
		cfg.MaxTaskConcurrency = n
	}

	return cfg, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("want a number, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("want a number, got %T", v)
	}
}
