package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/relaymesh/relay/internal/capability"
	"github.com/relaymesh/relay/internal/records"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&MockTool{NameVal: "hydrate_context"})

	retrieved, ok := reg.Get("hydrate_context")
	if !ok {
		t.Fatal("expected to retrieve tool")
	}
	if retrieved.Name() != "hydrate_context" {
		t.Errorf("unexpected name %q", retrieved.Name())
	}
}

func TestRegistryListSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&MockTool{NameVal: "write_output"})
	reg.Register(&MockTool{NameVal: "hydrate_context"})

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(list))
	}
	if list[0].Name() != "hydrate_context" {
		t.Errorf("expected sorted order, got %s first", list[0].Name())
	}
}

func TestExecuteToolReturnsToolResult(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&MockTool{
		NameVal: "echo",
		ExecFunc: func(ctx context.Context, input json.RawMessage) (string, error) {
			return `{"ok":true,"echo":` + string(input) + `}`, nil
		},
	})

	result := reg.ExecuteTool(context.Background(), "echo", json.RawMessage(`"hello"`))
	if result != `{"ok":true,"echo":"hello"}` {
		t.Errorf("unexpected result: %s", result)
	}
}

func TestExecuteToolUnknownTool(t *testing.T) {
	result := NewRegistry().ExecuteTool(context.Background(), "missing_tool", nil)
	var envelope map[string]any
	if err := json.Unmarshal([]byte(result), &envelope); err != nil {
		t.Fatalf("result must be valid JSON: %v", err)
	}
	if envelope["ok"] != false {
		t.Fatalf("expected ok:false, got %s", result)
	}
	if !strings.Contains(envelope["error"].(string), "missing_tool") {
		t.Fatalf("error should name the tool: %s", result)
	}
}

func TestExecuteToolValidatorRejects(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&MockTool{
		NameVal:      "strict",
		ValidateFunc: func(args json.RawMessage) error { return errors.New("unknown field \"bogus\"") },
		ExecFunc: func(ctx context.Context, input json.RawMessage) (string, error) {
			t.Error("execute must not run when validation fails")
			return "", nil
		},
	})

	result := reg.ExecuteTool(context.Background(), "strict", json.RawMessage(`{"bogus":1}`))
	if !strings.Contains(result, `"ok":false`) || !strings.Contains(result, "bogus") {
		t.Fatalf("unexpected envelope: %s", result)
	}
}

func TestExecuteToolSkippedEnvelope(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&MockTool{
		NameVal: "guarded",
		ExecFunc: func(ctx context.Context, input json.RawMessage) (string, error) {
			return "", &capability.SkippedError{Reason: "RELAY_WEBHOOK_BASE is not configured"}
		},
	})

	result := reg.ExecuteTool(context.Background(), "guarded", nil)
	var envelope map[string]any
	if err := json.Unmarshal([]byte(result), &envelope); err != nil {
		t.Fatalf("result must be valid JSON: %v", err)
	}
	if envelope["skipped"] != true {
		t.Fatalf("expected skipped envelope, got %s", result)
	}
	if reason, _ := envelope["reason"].(string); !strings.Contains(reason, "RELAY_WEBHOOK_BASE") {
		t.Fatalf("reason should name the missing key: %s", result)
	}
}

func TestExecuteToolStoreErrorEnvelope(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&MockTool{
		NameVal: "fetch",
		ExecFunc: func(ctx context.Context, input json.RawMessage) (string, error) {
			return "", &records.StoreError{Status: 429, Body: "rate limited"}
		},
	})

	result := reg.ExecuteTool(context.Background(), "fetch", nil)
	var envelope map[string]any
	if err := json.Unmarshal([]byte(result), &envelope); err != nil {
		t.Fatalf("result must be valid JSON: %v", err)
	}
	if envelope["status"] != float64(429) {
		t.Fatalf("expected status 429 in envelope, got %s", result)
	}
}

func TestExecuteToolRecoversPanic(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&MockTool{
		NameVal: "unstable",
		ExecFunc: func(ctx context.Context, input json.RawMessage) (string, error) {
			panic("boom")
		},
	})

	result := reg.ExecuteTool(context.Background(), "unstable", nil)
	if !strings.Contains(result, `"ok":false`) || !strings.Contains(result, "boom") {
		t.Fatalf("panic must become a structured failure: %s", result)
	}
}

func TestDescribeAll(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&MockTool{
		NameVal:   "web_search",
		DescVal:   "searches the web",
		SchemaVal: `{"type":"object","properties":{"query":{"type":"string"}}}`,
	})

	desc := reg.DescribeAll()
	if !strings.Contains(desc, "web_search: searches the web") {
		t.Errorf("description missing tool details: %s", desc)
	}
	if !strings.Contains(desc, "Schema: {\"type\":\"object\"") {
		t.Errorf("description missing schema: %s", desc)
	}
}

func TestOKEnvelope(t *testing.T) {
	result := OKEnvelope(map[string]any{"recordId": "rec1"})
	var envelope map[string]any
	if err := json.Unmarshal([]byte(result), &envelope); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if envelope["ok"] != true || envelope["recordId"] != "rec1" {
		t.Fatalf("unexpected envelope: %s", result)
	}
}

func TestEnvelopesKeepMarkupUnescaped(t *testing.T) {
	result := OKEnvelope(map[string]any{"text": "<persona>A & B</persona>"})
	if !strings.Contains(result, "<persona>A & B</persona>") {
		t.Fatalf("markup must not be escaped in the wire form: %s", result)
	}
	if strings.Contains(result, "\\u003c") {
		t.Fatalf("found escaped angle bracket: %s", result)
	}

	failure := ErrorEnvelope(errors.New("field <Output> is read-only"))
	if !strings.Contains(failure, "field <Output> is read-only") {
		t.Fatalf("error text must stay verbatim: %s", failure)
	}
}
