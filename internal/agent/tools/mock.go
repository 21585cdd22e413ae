package tools

import (
	"context"
	"encoding/json"
)

// MockTool implements Tool for tests. Exported so other packages' tests
// (gateway, agent loop, MCP server) can share it.
type MockTool struct {
	NameVal      string
	DescVal      string
	SchemaVal    string
	ExecFunc     func(ctx context.Context, args json.RawMessage) (string, error)
	ValidateFunc func(args json.RawMessage) error
}

func (m *MockTool) Name() string {
	if m.NameVal == "" {
		return "mock_tool"
	}
	return m.NameVal
}

func (m *MockTool) Description() string {
	return m.DescVal
}

func (m *MockTool) ParametersSchema() string {
	if m.SchemaVal == "" {
		return `{"type":"object"}`
	}
	return m.SchemaVal
}

func (m *MockTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, args)
	}
	return `{"ok":true}`, nil
}

func (m *MockTool) ValidateArgs(args json.RawMessage) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(args)
	}
	return nil
}
