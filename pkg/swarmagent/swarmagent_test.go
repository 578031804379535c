package swarmagent_test

import (
	"context"
	"testing"
	"time"

	"github.com/swarmforge/swarmforge/internal/swarm"
	"github.com/swarmforge/swarmforge/pkg/swarmagent"
)

func TestEcho_ReturnsTaskAndSessionID(t *testing.T) {
	agent := swarmagent.NewEcho("echo", 0)
	ctx := swarm.NewContext("sess-1")

	out, err := agent.Execute(context.Background(), "do-the-thing", ctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("output not a map: %#v", out)
	}
	if m["success"] != true || m["agent"] != "echo" || m["task"] != "do-the-thing" || m["session_id"] != "sess-1" {
		t.Fatalf("unexpected output: %#v", m)
	}
}

func TestEcho_RespectsCancellation(t *testing.T) {
	agent := swarmagent.NewEcho("echo", time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := agent.Execute(ctx, "task", swarm.NewContext("s"))
	if err == nil {
		t.Fatalf("expected an error from cancellation")
	}
}

func TestFlakyOnce_FailsOnceThenSucceeds(t *testing.T) {
	agent := swarmagent.NewFlakyOnce("flaky")
	ctx := swarm.NewContext("s")

	if _, err := agent.Execute(context.Background(), "task", ctx); err == nil {
		t.Fatalf("expected the first call to fail")
	}
	out, err := agent.Execute(context.Background(), "task", ctx)
	if err != nil {
		t.Fatalf("expected the second call to succeed, got: %v", err)
	}
	m := out.(map[string]any)
	if m["calls"] != 2 {
		t.Fatalf("calls = %v, want 2", m["calls"])
	}
	if agent.Calls() != 2 {
		t.Fatalf("Calls() = %d, want 2", agent.Calls())
	}
}

func TestAlwaysFail_AlwaysFails(t *testing.T) {
	agent := swarmagent.NewAlwaysFail("nope")
	for i := 0; i < 3; i++ {
		if _, err := agent.Execute(context.Background(), "task", swarm.NewContext("s")); err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}
}
