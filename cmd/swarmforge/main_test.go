package main

import (
	"os"
	"testing"
)

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	required := []string{"run", "serve", "demo"}
	for _, name := range required {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestBuildAgent_UnknownKindErrors(t *testing.T) {
	_, err := buildAgent(agentSpec{Name: "x", Kind: "bogus"})
	if err == nil {
		t.Fatalf("expected an error for an unknown agent kind")
	}
}

func TestBuildAgent_DefaultKindIsEcho(t *testing.T) {
	agent, err := buildAgent(agentSpec{Name: "x"})
	if err != nil {
		t.Fatalf("buildAgent: %v", err)
	}
	if agent.Name() != "x" {
		t.Fatalf("agent.Name() = %q, want x", agent.Name())
	}
}

func TestLoadManifest_DefaultsNameAndSessionID(t *testing.T) {
	path := writeTempManifest(t, "agents:\n  - name: a\n")
	m, err := loadManifest(path)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if m.Name != "swarmforge" {
		t.Fatalf("Name = %q, want swarmforge", m.Name)
	}
	if m.SessionID != "cli" {
		t.Fatalf("SessionID = %q, want cli", m.SessionID)
	}
}

func writeTempManifest(t *testing.T, content string) string {
	t.Helper()
	path := t.TempDir() + "/manifest.yaml"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	return path
}
