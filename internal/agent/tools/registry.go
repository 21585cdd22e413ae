package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/relaymesh/relay/internal/agenterr"
	"github.com/relaymesh/relay/internal/capability"
	"github.com/relaymesh/relay/internal/records"
)

// Registry holds the tool set exposed to the generation loop. It is the last
// line of defense at the execution boundary: whatever a tool does (return an
// error, panic) the caller receives a well-formed JSON envelope string, so
// the conversational flow is never broken by a propagated failure.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, overwriting any existing tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// ExecuteTool runs the named tool and always returns a JSON envelope.
// Unknown tools, validation failures, tool errors, and panics are all
// converted to `{"ok":false,...}` envelopes rather than surfaced as errors.
func (r *Registry) ExecuteTool(ctx context.Context, name string, args json.RawMessage) string {
	tool, exists := r.Get(name)
	if !exists {
		return errorEnvelope(fmt.Errorf("%w: %s", agenterr.ErrToolNotAllowed, name))
	}
	if validator, ok := tool.(ArgumentValidator); ok {
		if err := validator.ValidateArgs(args); err != nil {
			return errorEnvelope(fmt.Errorf("%w: %v", agenterr.ErrToolInvalidArgs, err))
		}
	}

	result, err := safeExecute(ctx, tool, args)
	if err != nil {
		return errorEnvelope(err)
	}
	return result
}

func safeExecute(ctx context.Context, tool Tool, args json.RawMessage) (result string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("tool %s panicked: %v", tool.Name(), recovered)
		}
	}()
	return tool.Execute(ctx, args)
}

// errorEnvelope maps the error taxonomy onto envelope shapes: a missing
// capability becomes a skipped outcome the model can explain, a store failure
// keeps its status code, and anything else is a plain error.
func errorEnvelope(err error) string {
	var payload map[string]any
	var skipped *capability.SkippedError
	var storeErr *records.StoreError
	switch {
	case errors.As(err, &skipped):
		payload = map[string]any{"ok": false, "skipped": true, "reason": skipped.Reason}
	case errors.As(err, &storeErr):
		payload = map[string]any{"ok": false, "status": storeErr.Status, "error": storeErr.Error()}
	default:
		payload = map[string]any{"ok": false, "error": err.Error()}
	}
	return marshalEnvelope(payload)
}

// ErrorEnvelope is the exported form for tools that build their own envelopes.
func ErrorEnvelope(err error) string {
	return errorEnvelope(err)
}

// OKEnvelope marshals a success payload, forcing "ok":true.
func OKEnvelope(payload map[string]any) string {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["ok"] = true
	return marshalEnvelope(payload)
}

// marshalEnvelope encodes without HTML escaping: envelopes routinely carry
// knowledge markup, and the model should see it as-is, not as < escapes.
func marshalEnvelope(payload map[string]any) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		return `{"ok":false,"error":"internal envelope failure"}`
	}
	return strings.TrimRight(buf.String(), "\n")
}

// DescribeAll renders the catalog for the system prompt, deterministically
// ordered by name.
func (r *Registry) DescribeAll() string {
	var catalog strings.Builder
	for _, tool := range r.List() {
		fmt.Fprintf(&catalog, "- %s: %s\n  Schema: %s\n", tool.Name(), tool.Description(), tool.ParametersSchema())
	}
	return catalog.String()
}
