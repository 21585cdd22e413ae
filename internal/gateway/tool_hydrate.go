package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaymesh/relay/internal/agent/tools"
	"github.com/relaymesh/relay/internal/agenterr"
	"github.com/relaymesh/relay/internal/hydrate"
)

// HydrateContextTool resolves a content request into one composite XML
// document in a single call, so the model never has to sequence category
// fetches itself.
type HydrateContextTool struct {
	hydrator Hydrator
}

func NewHydrateContextTool(hydrator Hydrator) *HydrateContextTool {
	return &HydrateContextTool{hydrator: hydrator}
}

func (t *HydrateContextTool) Name() string               { return "hydrate_context" }
func (t *HydrateContextTool) ToolClass() tools.ToolClass { return tools.ToolClassKnowledge }
func (t *HydrateContextTool) RequiresApproval() bool     { return false }

func (t *HydrateContextTool) Description() string {
	return "Fetch a content request and all linked personas, domains, entities and references, assembled into one XML context document."
}

func (t *HydrateContextTool) ParametersSchema() string {
	return `{"type":"object","properties":{"initiator_id":{"type":"string"},"base_id":{"type":"string"},"mode":{"type":"string","enum":["hydrated","assembled"]}},"required":["initiator_id"]}`
}

type hydrateArgs struct {
	InitiatorID string `json:"initiator_id"`
	BaseID      string `json:"base_id,omitempty"`
	Mode        string `json:"mode,omitempty"`
}

func (t *HydrateContextTool) ValidateArgs(raw json.RawMessage) error {
	var args hydrateArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return err
	}
	if strings.TrimSpace(args.InitiatorID) == "" {
		return fmt.Errorf("%w: initiator_id is required", agenterr.ErrToolInvalidArgs)
	}
	switch args.Mode {
	case "", "hydrated", "assembled":
	default:
		return fmt.Errorf("%w: unknown mode %q", agenterr.ErrToolInvalidArgs, args.Mode)
	}
	return nil
}

func (t *HydrateContextTool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	var args hydrateArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return "", err
	}

	var result hydrate.Result
	var err error
	if args.Mode == "assembled" {
		result, err = t.hydrator.HydrateAssembled(ctx, args.InitiatorID, args.BaseID)
	} else {
		result, err = t.hydrator.Hydrate(ctx, args.InitiatorID, args.BaseID)
	}
	if err != nil {
		return "", err
	}

	return tools.OKEnvelope(map[string]any{
		"mode":         string(result.Mode),
		"recordId":     result.RootID,
		"xml":          result.XML,
		"linkedCounts": result.Counts,
	}), nil
}
