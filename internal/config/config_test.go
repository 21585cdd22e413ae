package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.RootTable != "Content Initiators" {
		t.Fatalf("expected default root table, got %q", cfg.RootTable)
	}
	if cfg.PersonaKnowledgeField != "Persona XML" {
		t.Fatalf("expected default persona knowledge field, got %q", cfg.PersonaKnowledgeField)
	}
	if cfg.PollQueuedStatus != "Queued" {
		t.Fatalf("expected default queued status, got %q", cfg.PollQueuedStatus)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("RELAY_ROOT_TABLE", "Requests")
	t.Setenv("RELAY_RECORDS_BASE_ID", "appTest123")
	t.Setenv("RELAY_POLL_ENABLED", "true")
	t.Setenv("RELAY_LLM_TIMEOUT_SECONDS", "bogus")

	cfg := FromEnv()
	if cfg.RootTable != "Requests" {
		t.Fatalf("expected override root table, got %q", cfg.RootTable)
	}
	if cfg.RecordsBaseID != "appTest123" {
		t.Fatalf("expected base id override, got %q", cfg.RecordsBaseID)
	}
	if !cfg.PollEnabled {
		t.Fatal("expected poll enabled")
	}
	if cfg.LLMTimeoutSec != 60 {
		t.Fatalf("expected fallback timeout on bad value, got %d", cfg.LLMTimeoutSec)
	}
}

func TestLoadAgentsMissingFile(t *testing.T) {
	defs, err := LoadAgents(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "default" {
		t.Fatalf("expected single default agent, got %+v", defs)
	}
}

func TestLoadAgents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.json")
	payload := `[{"name":"Writer","upstream_url":""},{"name":"editor","upstream_url":"http://editor:8080"}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	defs, err := LoadAgents(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(defs))
	}
	if defs[0].Name != "writer" {
		t.Fatalf("expected lowercased name, got %q", defs[0].Name)
	}
	if defs[1].UpstreamURL != "http://editor:8080" {
		t.Fatalf("unexpected upstream: %q", defs[1].UpstreamURL)
	}
}

func TestLoadAgentsDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.json")
	if err := os.WriteFile(path, []byte(`[{"name":"a"},{"name":"A"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAgents(path); err == nil {
		t.Fatal("expected duplicate agent error")
	}
}
