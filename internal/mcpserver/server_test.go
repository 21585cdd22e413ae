package mcpserver

import (
	"testing"

	"github.com/relaymesh/relay/internal/agent/tools"
)

func TestNewRegistersRegistryTools(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&tools.MockTool{
		NameVal:   "hydrate_context",
		DescVal:   "assemble context",
		SchemaVal: `{"type":"object","properties":{"initiator_id":{"type":"string"}},"required":["initiator_id"]}`,
	})

	server := New(registry, nil)
	if server.server == nil {
		t.Fatal("expected mcp server to be constructed")
	}
}

func TestParseSchema(t *testing.T) {
	parsed := parseSchema(`{"type":"object","properties":{"query":{"type":"string"}}}`)
	if parsed.Type != "object" || parsed.Properties["query"] == nil {
		t.Fatalf("unexpected schema: %+v", parsed)
	}

	fallback := parseSchema("not json")
	if fallback.Type != "object" {
		t.Fatalf("malformed schema must degrade to object, got %+v", fallback)
	}
}
