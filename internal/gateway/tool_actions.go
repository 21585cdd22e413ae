package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaymesh/relay/internal/actions/executor"
	"github.com/relaymesh/relay/internal/agent/tools"
	"github.com/relaymesh/relay/internal/agenterr"
	"github.com/relaymesh/relay/internal/capability"
	"github.com/relaymesh/relay/internal/config"
)

// ActionExecutor dispatches side-effecting actions to their plugin.
type ActionExecutor interface {
	Execute(ctx context.Context, req executor.Request) (executor.Result, error)
}

// TriggerWorkflowTool fires an external automation scenario. Fire-and-forget:
// any 2xx is success and there is no retry.
type TriggerWorkflowTool struct {
	executor ActionExecutor
	cfg      config.Config
}

func NewTriggerWorkflowTool(exec ActionExecutor, cfg config.Config) *TriggerWorkflowTool {
	return &TriggerWorkflowTool{executor: exec, cfg: cfg}
}

func (t *TriggerWorkflowTool) Name() string               { return "trigger_workflow" }
func (t *TriggerWorkflowTool) ToolClass() tools.ToolClass { return tools.ToolClassAutomation }
func (t *TriggerWorkflowTool) RequiresApproval() bool     { return false }

func (t *TriggerWorkflowTool) Description() string {
	return "Trigger an external workflow automation scenario with a JSON payload."
}

func (t *TriggerWorkflowTool) ParametersSchema() string {
	return `{"type":"object","properties":{"scenario":{"type":"string"},"payload":{"type":"object"}},"required":["scenario"]}`
}

type triggerWorkflowArgs struct {
	Scenario string         `json:"scenario"`
	Payload  map[string]any `json:"payload,omitempty"`
}

func (t *TriggerWorkflowTool) ValidateArgs(raw json.RawMessage) error {
	var args triggerWorkflowArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return err
	}
	if strings.TrimSpace(args.Scenario) == "" {
		return fmt.Errorf("%w: scenario is required", agenterr.ErrToolInvalidArgs)
	}
	return nil
}

func (t *TriggerWorkflowTool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	if skipped := capability.Check(capability.Requirement{Name: "RELAY_WEBHOOK_BASE", Value: t.cfg.WebhookBase}); skipped != nil {
		return "", skipped.Err()
	}
	var args triggerWorkflowArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return "", err
	}

	result, err := t.executor.Execute(ctx, executor.Request{
		Type:    "trigger_workflow",
		Target:  strings.TrimSpace(args.Scenario),
		Payload: args.Payload,
	})
	if err != nil {
		return "", err
	}
	return tools.OKEnvelope(map[string]any{
		"plugin":  result.Plugin,
		"message": result.Message,
	}), nil
}

// SQLQueryTool runs a SQL statement through the HTTP bridge.
type SQLQueryTool struct {
	executor ActionExecutor
	cfg      config.Config
}

func NewSQLQueryTool(exec ActionExecutor, cfg config.Config) *SQLQueryTool {
	return &SQLQueryTool{executor: exec, cfg: cfg}
}

func (t *SQLQueryTool) Name() string               { return "sql_query" }
func (t *SQLQueryTool) ToolClass() tools.ToolClass { return tools.ToolClassAutomation }
func (t *SQLQueryTool) RequiresApproval() bool     { return false }

func (t *SQLQueryTool) Description() string {
	return "Run a read-only SQL query against the operational database via the SQL bridge."
}

func (t *SQLQueryTool) ParametersSchema() string {
	return `{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`
}

type sqlQueryArgs struct {
	Query string `json:"query"`
}

func (t *SQLQueryTool) ValidateArgs(raw json.RawMessage) error {
	var args sqlQueryArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return err
	}
	if strings.TrimSpace(args.Query) == "" {
		return fmt.Errorf("%w: query is required", agenterr.ErrToolInvalidArgs)
	}
	return nil
}

func (t *SQLQueryTool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	if skipped := capability.Check(capability.Requirement{Name: "RELAY_SQL_BRIDGE_URL", Value: t.cfg.SQLBridgeURL}); skipped != nil {
		return "", skipped.Err()
	}
	var args sqlQueryArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return "", err
	}

	result, err := t.executor.Execute(ctx, executor.Request{
		Type:   "sql_query",
		Target: strings.TrimSpace(args.Query),
	})
	if err != nil {
		return "", err
	}
	return tools.OKEnvelope(map[string]any{
		"plugin": result.Plugin,
		"result": json.RawMessage(normalizeJSONPayload(result.Message)),
	}), nil
}

// normalizeJSONPayload keeps bridge responses embeddable: valid JSON passes
// through, anything else is wrapped as a JSON string.
func normalizeJSONPayload(payload string) string {
	trimmed := strings.TrimSpace(payload)
	if json.Valid([]byte(trimmed)) && trimmed != "" {
		return trimmed
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return `""`
	}
	return string(encoded)
}
