// Package observability provides structured logging and Prometheus metrics for
// the swarm orchestration engine.
//
// # Overview
//
// Two pillars are implemented here:
//
//  1. Logging - structured logs with sensitive data redaction, built on slog.
//  2. Metrics - quantitative measurements using Prometheus.
//
// # Metrics
//
//	metrics := observability.NewMetrics()
//	metrics.RecordSwarmRun("parallel", "success", duration.Seconds())
//	metrics.RecordSubAgentAttempt("timeout")
//
// # Logging
//
//	logger := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
//	ctx = observability.AddSessionID(ctx, session.SessionID)
//	logger.Info(ctx, "swarm started", "operation_id", opID, "strategy", "parallel")
package observability
