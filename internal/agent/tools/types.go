// Package tools defines the executable-capability surface the generation
// loop sees: every operation (hydration, write-back, record creation,
// integrations) is registered behind a name, a description, and a JSON input
// schema, and invoked through a single execute entry point.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is one executable capability.
type Tool interface {
	// Name returns the unique identifier, e.g. "hydrate_context".
	Name() string

	// Description explains the tool to the model.
	Description() string

	// ParametersSchema returns the JSON schema of the expected input.
	ParametersSchema() string

	// Execute runs the tool. The returned string is always a well-formed
	// JSON envelope; an error here means the registry boundary itself
	// needs to synthesize one.
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// ArgumentValidator is an optional interface for strict argument validation.
// When a tool implements it, the registry validates before Execute.
type ArgumentValidator interface {
	ValidateArgs(input json.RawMessage) error
}

// ToolClass groups tools for policy decisions.
type ToolClass string

const (
	ToolClassGeneral    ToolClass = "general"
	ToolClassKnowledge  ToolClass = "knowledge"  // hydration and category fetchers
	ToolClassAuthoring  ToolClass = "authoring"  // create request, write output
	ToolClassAutomation ToolClass = "automation" // webhook, SQL bridge
	ToolClassSearch     ToolClass = "search"
)

// MetadataProvider is an optional interface for policy metadata.
type MetadataProvider interface {
	ToolClass() ToolClass
	RequiresApproval() bool
}
