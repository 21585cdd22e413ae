// Package executor dispatches side-effecting actions (workflow triggers,
// SQL-over-HTTP queries) to the plugin registered for their action type.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrPluginNotFound = errors.New("action plugin not found")

// Request describes one action to perform. Target is plugin-specific: a
// webhook scenario name, a SQL statement, etc.
type Request struct {
	Type    string
	Target  string
	Payload map[string]any
}

type Result struct {
	Plugin  string
	Message string
}

type Plugin interface {
	PluginKey() string
	ActionTypes() []string
	Execute(ctx context.Context, req Request) (Result, error)
}

type Registry struct {
	plugins map[string]Plugin
}

func NewRegistry(plugins ...Plugin) *Registry {
	indexed := map[string]Plugin{}
	for _, plugin := range plugins {
		if plugin == nil {
			continue
		}
		for _, actionType := range plugin.ActionTypes() {
			key := normalizeActionType(actionType)
			if key == "" {
				continue
			}
			indexed[key] = plugin
		}
	}
	return &Registry{plugins: indexed}
}

func (r *Registry) Execute(ctx context.Context, req Request) (Result, error) {
	if r == nil {
		return Result{}, fmt.Errorf("%w: no registry configured", ErrPluginNotFound)
	}
	actionType := normalizeActionType(req.Type)
	if actionType == "" {
		return Result{}, fmt.Errorf("%w: empty action type", ErrPluginNotFound)
	}
	plugin, ok := r.plugins[actionType]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrPluginNotFound, actionType)
	}
	result, err := plugin.Execute(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(result.Plugin) == "" {
		result.Plugin = plugin.PluginKey()
	}
	return result, nil
}

func normalizeActionType(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
