package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaymesh/relay/internal/agent/tools"
	"github.com/relaymesh/relay/internal/agenterr"
	"github.com/relaymesh/relay/internal/config"
	"github.com/relaymesh/relay/internal/records"
)

// CategoryFetchTool fetches a single knowledge record by slug. Superseded by
// hydrate_context for normal generation, kept for targeted lookups and older
// prompt flows that address one persona or domain at a time.
type CategoryFetchTool struct {
	records        Records
	cfg            config.Config
	name           string
	description    string
	table          string
	knowledgeField string
}

func NewGetPersonaTool(client Records, cfg config.Config) *CategoryFetchTool {
	return &CategoryFetchTool{
		records:        client,
		cfg:            cfg,
		name:           "get_persona",
		description:    "Fetch a single persona's knowledge text by slug.",
		table:          cfg.PersonaTable,
		knowledgeField: cfg.PersonaKnowledgeField,
	}
}

func NewGetDomainTool(client Records, cfg config.Config) *CategoryFetchTool {
	return &CategoryFetchTool{
		records:        client,
		cfg:            cfg,
		name:           "get_domain",
		description:    "Fetch a single domain's knowledge text by slug.",
		table:          cfg.DomainTable,
		knowledgeField: cfg.DomainKnowledgeField,
	}
}

func (t *CategoryFetchTool) Name() string               { return t.name }
func (t *CategoryFetchTool) Description() string        { return t.description }
func (t *CategoryFetchTool) ToolClass() tools.ToolClass { return tools.ToolClassKnowledge }
func (t *CategoryFetchTool) RequiresApproval() bool     { return false }

func (t *CategoryFetchTool) ParametersSchema() string {
	return `{"type":"object","properties":{"slug":{"type":"string"}},"required":["slug"]}`
}

type categoryFetchArgs struct {
	Slug string `json:"slug"`
}

func (t *CategoryFetchTool) ValidateArgs(raw json.RawMessage) error {
	var args categoryFetchArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return err
	}
	if strings.TrimSpace(args.Slug) == "" {
		return fmt.Errorf("%w: slug is required", agenterr.ErrToolInvalidArgs)
	}
	return nil
}

func (t *CategoryFetchTool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	var args categoryFetchArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return "", err
	}
	base, err := requireStore(t.cfg)
	if err != nil {
		return "", err
	}

	record, err := findBySlug(ctx, t.records, t.cfg, base, t.table, strings.TrimSpace(args.Slug))
	if err != nil {
		return "", err
	}
	return tools.OKEnvelope(map[string]any{
		"recordId": record.ID,
		"slug":     records.StringField(record.Fields, t.cfg.SlugField),
		"text":     records.StringField(record.Fields, t.knowledgeField),
	}), nil
}
