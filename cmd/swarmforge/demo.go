package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/swarmforge/swarmforge/internal/observability"
	"github.com/swarmforge/swarmforge/internal/swarm"
	"github.com/swarmforge/swarmforge/pkg/swarmagent"
)

// buildDemoCmd runs a small built-in fleet without requiring a manifest
// file: three Echo workers and one flaky worker, fanned out in parallel.
func buildDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a small built-in swarm demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context())
		},
	}
}

func runDemo(ctx context.Context) error {
	logger := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json", Output: os.Stderr})
	metrics := observability.NewMetrics()

	ctx = observability.AddChannel(ctx, "demo")
	logger = logger.WithContext(ctx)

	o := swarm.NewOrchestrator("demo", swarm.DefaultConfig(), logger, metrics)
	agents := []swarm.Agent{
		swarmagent.NewEcho("worker_1", 50*time.Millisecond),
		swarmagent.NewEcho("worker_2", 75*time.Millisecond),
		swarmagent.NewEcho("worker_3", 25*time.Millisecond),
		swarmagent.NewFlakyOnce("worker_4"),
	}
	if err := o.AddSubAgents(agents); err != nil {
		return err
	}

	report, err := o.ExecuteSwarm(ctx, "demo-task", swarm.NewContext("demo"), swarm.ExecuteOptions{
		Retries: intPtr(1),
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func intPtr(n int) *int { return &n }
