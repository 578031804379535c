package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swarmforge/swarmforge/internal/observability"
	"github.com/swarmforge/swarmforge/internal/swarm"
)

func buildRunCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a swarm or mass swarm from a manifest file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifest(cmd.Context(), manifestPath)
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "path to a swarm manifest YAML file")
	cmd.MarkFlagRequired("manifest")
	return cmd
}

func runManifest(ctx context.Context, path string) error {
	m, err := loadManifest(path)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json", Output: os.Stderr})
	metrics := observability.NewMetrics()

	ctx = observability.AddChannel(ctx, "cli")
	logger = logger.WithContext(ctx)

	o, err := buildOrchestrator(m, logger, metrics)
	if err != nil {
		return err
	}

	parentCtx := swarm.NewContext(m.SessionID)

	var output any
	if len(m.Tasks) > 0 {
		output, err = o.ExecuteMassSwarm(ctx, m.Tasks, parentCtx, swarm.ExecuteOptions{ParallelTasks: m.ParallelTasks})
	} else {
		output, err = o.ExecuteSwarm(ctx, m.Task, parentCtx, swarm.ExecuteOptions{})
	}
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
