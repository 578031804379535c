// Package main provides the CLI entry point for swarmforge, a swarm
// orchestration engine: dispatch a task, or a batch of tasks, across named
// sub-agents with bounded concurrency, per-attempt timeouts, bounded
// retries, and optional fail-fast cancellation.
//
// # Basic Usage
//
// Run a swarm from a manifest:
//
//	swarmforge run --manifest swarm.yaml
//
// Serve Prometheus metrics and a health endpoint:
//
//	swarmforge serve --addr :9090
//
// Run the built-in demo fleet without a manifest:
//
//	swarmforge demo
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
//
// Example build command:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to keep it testable.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "swarmforge",
		Short: "swarmforge - swarm orchestration engine",
		Long: `swarmforge dispatches a task, or a batch of tasks, across named
sub-agents with bounded concurrency, per-attempt timeouts, bounded retries,
context isolation, and optional fail-fast cancellation.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildServeCmd(),
		buildDemoCmd(),
	)

	return rootCmd
}
