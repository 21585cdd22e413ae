package executor

import (
	"context"
	"errors"
	"testing"
)

type fakePlugin struct {
	key    string
	types  []string
	result Result
	err    error
}

func (f *fakePlugin) PluginKey() string     { return f.key }
func (f *fakePlugin) ActionTypes() []string { return f.types }

func (f *fakePlugin) Execute(ctx context.Context, req Request) (Result, error) {
	if f.err != nil {
		return Result{}, f.err
	}
	return f.result, nil
}

func TestRegistryExecutesPlugin(t *testing.T) {
	registry := NewRegistry(&fakePlugin{
		key:    "webhook",
		types:  []string{"trigger_workflow"},
		result: Result{Message: "ok"},
	})
	result, err := registry.Execute(context.Background(), Request{Type: "Trigger_Workflow"})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if result.Plugin != "webhook" {
		t.Fatalf("expected plugin webhook, got %s", result.Plugin)
	}
	if result.Message != "ok" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	registry := NewRegistry(&fakePlugin{key: "webhook", types: []string{"trigger_workflow"}})
	_, err := registry.Execute(context.Background(), Request{Type: "send_email"})
	if !errors.Is(err, ErrPluginNotFound) {
		t.Fatalf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestRegistryPropagatesPluginError(t *testing.T) {
	boom := errors.New("boom")
	registry := NewRegistry(&fakePlugin{key: "sql", types: []string{"sql_query"}, err: boom})
	_, err := registry.Execute(context.Background(), Request{Type: "sql_query"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected plugin error, got %v", err)
	}
}
