package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaymesh/relay/internal/agent/tools"
	"github.com/relaymesh/relay/internal/agenterr"
	"github.com/relaymesh/relay/internal/capability"
	"github.com/relaymesh/relay/internal/config"
	"github.com/relaymesh/relay/internal/records"
)

// CreateRequestTool creates a new content request record. Persona and domain
// slugs are resolved to record ids before the create so the store's relation
// fields link correctly.
type CreateRequestTool struct {
	records Records
	cfg     config.Config
}

func NewCreateRequestTool(client Records, cfg config.Config) *CreateRequestTool {
	return &CreateRequestTool{records: client, cfg: cfg}
}

func (t *CreateRequestTool) Name() string               { return "create_request" }
func (t *CreateRequestTool) ToolClass() tools.ToolClass { return tools.ToolClassAuthoring }
func (t *CreateRequestTool) RequiresApproval() bool     { return false }

func (t *CreateRequestTool) Description() string {
	return "Create a new content request record with a goal, optional content/output types and linked personas and domains by slug."
}

func (t *CreateRequestTool) ParametersSchema() string {
	return `{"type":"object","properties":{"goal":{"type":"string"},"content_type":{"type":"string"},"output_type":{"type":"string"},"persona_slugs":{"type":"array","items":{"type":"string"}},"domain_slugs":{"type":"array","items":{"type":"string"}}},"required":["goal"]}`
}

type createRequestArgs struct {
	Goal         string   `json:"goal"`
	ContentType  string   `json:"content_type,omitempty"`
	OutputType   string   `json:"output_type,omitempty"`
	PersonaSlugs []string `json:"persona_slugs,omitempty"`
	DomainSlugs  []string `json:"domain_slugs,omitempty"`
}

func (t *CreateRequestTool) ValidateArgs(raw json.RawMessage) error {
	var args createRequestArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return err
	}
	if strings.TrimSpace(args.Goal) == "" {
		return fmt.Errorf("%w: goal is required", agenterr.ErrToolInvalidArgs)
	}
	return nil
}

func (t *CreateRequestTool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	var args createRequestArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return "", err
	}
	base, err := requireStore(t.cfg)
	if err != nil {
		return "", err
	}

	fields := map[string]any{t.cfg.RootGoalField: strings.TrimSpace(args.Goal)}
	if value := strings.TrimSpace(args.ContentType); value != "" {
		fields[t.cfg.RootContentTypeField] = value
	}
	if value := strings.TrimSpace(args.OutputType); value != "" {
		fields[t.cfg.RootOutputTypeField] = value
	}
	if ids, err := t.resolveSlugs(ctx, base, t.cfg.PersonaTable, args.PersonaSlugs); err != nil {
		return "", err
	} else if len(ids) > 0 {
		fields[t.cfg.PersonaRelationField] = ids
	}
	if ids, err := t.resolveSlugs(ctx, base, t.cfg.DomainTable, args.DomainSlugs); err != nil {
		return "", err
	} else if len(ids) > 0 {
		fields[t.cfg.DomainRelationField] = ids
	}

	created, err := t.records.CreateRecords(ctx, base, t.cfg.RootTable, []map[string]any{fields})
	if err != nil {
		return "", err
	}
	if len(created) == 0 {
		return "", fmt.Errorf("store returned no created record")
	}
	return tools.OKEnvelope(map[string]any{
		"recordId": created[0].ID,
		"fields":   created[0].Fields,
	}), nil
}

func (t *CreateRequestTool) resolveSlugs(ctx context.Context, base, table string, slugs []string) ([]string, error) {
	ids := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		slug = strings.TrimSpace(slug)
		if slug == "" {
			continue
		}
		record, err := findBySlug(ctx, t.records, t.cfg, base, table, slug)
		if err != nil {
			return nil, err
		}
		ids = append(ids, record.ID)
	}
	return ids, nil
}

// WriteOutputTool persists generated text back onto the request record in a
// single partial update. No read-modify-write: concurrent writers to the
// same record may clobber each other, which the store contract accepts.
type WriteOutputTool struct {
	records Records
	cfg     config.Config
}

func NewWriteOutputTool(client Records, cfg config.Config) *WriteOutputTool {
	return &WriteOutputTool{records: client, cfg: cfg}
}

func (t *WriteOutputTool) Name() string               { return "write_output" }
func (t *WriteOutputTool) ToolClass() tools.ToolClass { return tools.ToolClassAuthoring }
func (t *WriteOutputTool) RequiresApproval() bool     { return false }

func (t *WriteOutputTool) Description() string {
	return "Write generated output text back to a content request record, optionally updating its status."
}

func (t *WriteOutputTool) ParametersSchema() string {
	return `{"type":"object","properties":{"initiator_id":{"type":"string"},"output":{"type":"string"},"status":{"type":"string"},"metadata":{"type":"object"}},"required":["initiator_id","output"]}`
}

type writeOutputArgs struct {
	InitiatorID string         `json:"initiator_id"`
	Output      string         `json:"output"`
	Status      string         `json:"status,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (t *WriteOutputTool) ValidateArgs(raw json.RawMessage) error {
	var args writeOutputArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return err
	}
	if strings.TrimSpace(args.InitiatorID) == "" {
		return fmt.Errorf("%w: initiator_id is required", agenterr.ErrToolInvalidArgs)
	}
	if args.Output == "" {
		return fmt.Errorf("%w: output is required", agenterr.ErrToolInvalidArgs)
	}
	return nil
}

func (t *WriteOutputTool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	var args writeOutputArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return "", err
	}
	base, err := requireStore(t.cfg)
	if err != nil {
		return "", err
	}

	fields := map[string]any{t.cfg.RootOutputField: args.Output}
	if value := strings.TrimSpace(args.Status); value != "" {
		fields[t.cfg.RootStatusField] = value
	}
	for key, value := range args.Metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		fields[key] = value
	}

	updated, err := t.records.UpdateRecords(ctx, base, t.cfg.RootTable, []records.RecordUpdate{
		{ID: strings.TrimSpace(args.InitiatorID), Fields: fields},
	})
	if err != nil {
		return "", err
	}
	if len(updated) == 0 {
		return "", fmt.Errorf("store returned no updated record")
	}
	return tools.OKEnvelope(map[string]any{
		"updated":  len(updated),
		"recordId": updated[0].ID,
		"fields":   updated[0].Fields,
	}), nil
}

func requireStore(cfg config.Config) (string, error) {
	if skipped := capability.Check(
		capability.Requirement{Name: "RELAY_RECORDS_TOKEN", Value: cfg.RecordsToken},
		capability.Requirement{Name: "RELAY_RECORDS_BASE_ID", Value: cfg.RecordsBaseID},
	); skipped != nil {
		return "", skipped.Err()
	}
	return strings.TrimSpace(cfg.RecordsBaseID), nil
}

func findBySlug(ctx context.Context, client Records, cfg config.Config, base, table, slug string) (records.Record, error) {
	formula := fmt.Sprintf("{%s}='%s'", cfg.SlugField, strings.ReplaceAll(slug, "'", "\\'"))
	matches, err := client.ListByFormula(ctx, base, table, formula, records.ListOptions{MaxRecords: 1})
	if err != nil {
		return records.Record{}, err
	}
	if len(matches) == 0 {
		return records.Record{}, fmt.Errorf("no %s record with slug %q", table, slug)
	}
	return matches[0], nil
}
