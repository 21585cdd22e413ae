package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/relaymesh/relay/internal/agent/tools"
	"github.com/relaymesh/relay/internal/llm"
)

type scriptedResponder struct {
	replies []string
	calls   int
	inputs  []llm.MessageInput
}

func (s *scriptedResponder) Reply(ctx context.Context, input llm.MessageInput) (string, error) {
	s.inputs = append(s.inputs, input)
	if s.calls >= len(s.replies) {
		return "", nil
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func TestExecuteDirectReply(t *testing.T) {
	responder := &scriptedResponder{replies: []string{"Here is your draft."}}
	loop := New(nil, responder, tools.NewRegistry())

	result := loop.Execute(context.Background(), llm.MessageInput{Text: "write something"})
	if result.Reply != "Here is your draft." {
		t.Fatalf("unexpected reply %q", result.Reply)
	}
	if result.Steps != 1 || len(result.ToolCalls) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExecuteToolThenReply(t *testing.T) {
	registry := tools.NewRegistry()
	var gotArgs string
	registry.Register(&tools.MockTool{
		NameVal: "hydrate_context",
		ExecFunc: func(ctx context.Context, args json.RawMessage) (string, error) {
			gotArgs = string(args)
			return `{"ok":true,"xml":"<context></context>"}`, nil
		},
	})
	responder := &scriptedResponder{replies: []string{
		`{"tool":"hydrate_context","args":{"initiator_id":"rec1"}}`,
		`{"final":"Draft based on context."}`,
	}}
	loop := New(nil, responder, registry)

	result := loop.Execute(context.Background(), llm.MessageInput{Text: "generate for rec1"})
	if result.Reply != "Draft based on context." {
		t.Fatalf("unexpected reply %q", result.Reply)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].ToolName != "hydrate_context" {
		t.Fatalf("unexpected tool calls: %+v", result.ToolCalls)
	}
	if !strings.Contains(gotArgs, "rec1") {
		t.Fatalf("args not forwarded: %q", gotArgs)
	}
	// The second model call must see the tool result in the work log.
	if !strings.Contains(responder.inputs[1].Text, "WORK LOG") {
		t.Fatalf("work log missing from loop input:\n%s", responder.inputs[1].Text)
	}
}

func TestExecuteSkippedEnvelopeFlowsBack(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&tools.MockTool{
		NameVal: "trigger_workflow",
		ExecFunc: func(ctx context.Context, args json.RawMessage) (string, error) {
			return `{"ok":false,"skipped":true,"reason":"RELAY_WEBHOOK_BASE is not configured"}`, nil
		},
	})
	responder := &scriptedResponder{replies: []string{
		`{"tool":"trigger_workflow","args":{"scenario":"publish"}}`,
		`{"final":"Workflow automation is not configured, so I did not trigger it."}`,
	}}
	loop := New(nil, responder, registry)

	result := loop.Execute(context.Background(), llm.MessageInput{Text: "publish it"})
	if result.Blocked {
		t.Fatalf("skipped capability must not block the turn: %+v", result)
	}
	if !strings.Contains(responder.inputs[1].Text, "skipped") {
		t.Fatalf("skipped envelope missing from work log:\n%s", responder.inputs[1].Text)
	}
	if !strings.Contains(result.Reply, "not configured") {
		t.Fatalf("unexpected reply %q", result.Reply)
	}
}

func TestExecuteMaxStepsBlocks(t *testing.T) {
	registry := tools.NewRegistry()
	counter := 0
	registry.Register(&tools.MockTool{
		NameVal: "web_search",
		ExecFunc: func(ctx context.Context, args json.RawMessage) (string, error) {
			counter++
			return `{"ok":true,"results":[]}`, nil
		},
	})
	responder := &scriptedResponder{replies: []string{
		`{"tool":"web_search","args":{"query":"a"}}`,
		`{"tool":"web_search","args":{"query":"b"}}`,
		`{"tool":"web_search","args":{"query":"c"}}`,
	}}
	loop := New(nil, responder, registry)
	loop.SetDefaultPolicy(Policy{MaxLoopSteps: 3})

	result := loop.Execute(context.Background(), llm.MessageInput{Text: "research"})
	if !result.Blocked || result.BlockReason != "max loop steps reached" {
		t.Fatalf("expected loop cap, got %+v", result)
	}
	if counter != 3 {
		t.Fatalf("expected 3 tool executions, got %d", counter)
	}
}

func TestExecuteRepeatedCallBlocked(t *testing.T) {
	registry := tools.NewRegistry()
	counter := 0
	registry.Register(&tools.MockTool{
		NameVal: "web_search",
		ExecFunc: func(ctx context.Context, args json.RawMessage) (string, error) {
			counter++
			return `{"ok":true}`, nil
		},
	})
	responder := &scriptedResponder{replies: []string{
		`{"tool":"web_search","args":{"query":"same"}}`,
		`{"tool":"web_search","args":{"query":"same"}}`,
		`{"final":"done"}`,
	}}
	loop := New(nil, responder, registry)

	result := loop.Execute(context.Background(), llm.MessageInput{Text: "research"})
	if counter != 1 {
		t.Fatalf("identical repeat call must not re-execute, got %d executions", counter)
	}
	if result.Reply != "done" {
		t.Fatalf("unexpected reply %q", result.Reply)
	}
}

func TestExecuteDisallowedToolBlocked(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&tools.MockTool{NameVal: "sql_query"})
	responder := &scriptedResponder{replies: []string{
		`{"tool":"sql_query","args":{"query":"SELECT 1"}}`,
	}}
	loop := New(nil, responder, registry)
	loop.SetDefaultPolicy(Policy{AllowedTools: []string{"hydrate_context"}})

	result := loop.Execute(context.Background(), llm.MessageInput{Text: "query db"})
	if !result.Blocked || !strings.Contains(result.BlockReason, "sql_query") {
		t.Fatalf("expected policy block, got %+v", result)
	}
}

func TestParseDecisionPlainText(t *testing.T) {
	decision := parseDecision("Just a plain answer with no JSON.")
	if decision.IsTool || decision.FinalReply != "Just a plain answer with no JSON." {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestParseDecisionEmbeddedJSON(t *testing.T) {
	decision := parseDecision("Sure, let me check.\n{\"tool\":\"web_search\",\"args\":{\"query\":\"golang\"}}")
	if !decision.IsTool || decision.ToolName != "web_search" {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestFindFirstJSONHandlesNestedBraces(t *testing.T) {
	input := `prefix {"tool":"x","args":{"a":{"b":"}"}}} suffix`
	got := findFirstJSON(input)
	if !json.Valid([]byte(got)) || !strings.Contains(got, `"tool":"x"`) {
		t.Fatalf("unexpected extraction %q", got)
	}
}
