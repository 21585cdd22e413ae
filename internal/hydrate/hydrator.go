// Package hydrate assembles a single prompt-ready XML document for a content
// request: the root record's own attributes plus the knowledge text of every
// record it links to, across four fixed categories.
package hydrate

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/relaymesh/relay/internal/capability"
	"github.com/relaymesh/relay/internal/config"
	"github.com/relaymesh/relay/internal/records"
)

// Mode tags which code path produced a result so callers and tests can tell
// a fully hydrated document from the legacy variants.
type Mode string

const (
	ModeFullyHydrated Mode = "hydrated"
	ModeAssembledIDs  Mode = "assembled-ids"
	ModePrebuilt      Mode = "prebuilt"
)

// Category is one knowledge category resolved from configuration: where its
// records live, which field holds their knowledge text, and which relation
// field on the root record links to them. The four categories share one code
// path parameterized by this triple.
type Category struct {
	Name           string // container element, e.g. "personas"
	Element        string // per-item element, e.g. "persona"
	Table          string
	KnowledgeField string
	RelationField  string
}

// Config carries everything the hydrator needs, resolved once at startup.
type Config struct {
	Token       string
	TokenKey    string // config key named in skip reasons
	BaseID      string
	BaseIDKey   string
	RootTable   string
	GoalField   string
	ContentType string
	OutputType  string
	Assembled   string
	Categories  [4]Category
}

// ConfigFrom maps the process configuration onto the hydrator's own config,
// fixing the category order once for the lifetime of the process.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		Token:       cfg.RecordsToken,
		TokenKey:    "RELAY_RECORDS_TOKEN",
		BaseID:      cfg.RecordsBaseID,
		BaseIDKey:   "RELAY_RECORDS_BASE_ID",
		RootTable:   cfg.RootTable,
		GoalField:   cfg.RootGoalField,
		ContentType: cfg.RootContentTypeField,
		OutputType:  cfg.RootOutputTypeField,
		Assembled:   cfg.RootAssembledField,
		Categories: [4]Category{
			{Name: "personas", Element: "persona", Table: cfg.PersonaTable, KnowledgeField: cfg.PersonaKnowledgeField, RelationField: cfg.PersonaRelationField},
			{Name: "domains", Element: "domain", Table: cfg.DomainTable, KnowledgeField: cfg.DomainKnowledgeField, RelationField: cfg.DomainRelationField},
			{Name: "entities", Element: "entity", Table: cfg.EntityTable, KnowledgeField: cfg.EntityKnowledgeField, RelationField: cfg.EntityRelationField},
			{Name: "references", Element: "reference", Table: cfg.ReferenceTable, KnowledgeField: cfg.ReferenceKnowledgeField, RelationField: cfg.ReferenceRelationField},
		},
	}
}

// Counts summarizes how many children resolved to non-empty knowledge text
// per category. It is the caller's only visibility into partial resolution.
type Counts struct {
	Personas   int `json:"personas"`
	Domains    int `json:"domains"`
	Entities   int `json:"entities"`
	References int `json:"references"`
}

// Result is the assembled composite document.
type Result struct {
	Mode   Mode
	RootID string
	XML    string
	Counts Counts
}

// ChildFailure records one child that could not contribute text.
type ChildFailure struct {
	ID  string
	Err error
}

// Outcome is the per-category resolution ledger. Failures degrade the
// document, they never abort it.
type Outcome struct {
	Succeeded []string
	Failed    []ChildFailure
}

// Fetcher is the slice of the record client the hydrator needs.
type Fetcher interface {
	GetByID(ctx context.Context, baseID, table, id string) (records.Record, error)
}

type Hydrator struct {
	client Fetcher
	cfg    Config
	logger *slog.Logger
}

func New(client Fetcher, cfg Config, logger *slog.Logger) *Hydrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hydrator{client: client, cfg: cfg, logger: logger}
}

// Hydrate fetches the root record, resolves all four relation categories,
// and assembles the composite document. Configuration absence surfaces as a
// *capability.SkippedError before any network call; a failed root fetch
// surfaces as the store's own error. Child-level failures only reduce the
// counts.
func (h *Hydrator) Hydrate(ctx context.Context, rootID, baseID string) (Result, error) {
	base, err := h.resolveBase(baseID)
	if err != nil {
		return Result{}, err
	}

	root, err := h.client.GetByID(ctx, base, h.cfg.RootTable, rootID)
	if err != nil {
		return Result{}, err
	}

	outcomes := h.resolveAll(ctx, base, root)

	counts := Counts{
		Personas:   len(outcomes[0].Succeeded),
		Domains:    len(outcomes[1].Succeeded),
		Entities:   len(outcomes[2].Succeeded),
		References: len(outcomes[3].Succeeded),
	}
	for index, outcome := range outcomes {
		for _, failure := range outcome.Failed {
			h.logger.Warn("child record excluded from context",
				"category", h.cfg.Categories[index].Name,
				"record_id", failure.ID,
				"error", failure.Err)
		}
	}

	return Result{
		Mode:   ModeFullyHydrated,
		RootID: root.ID,
		XML:    h.buildDocument(root, outcomes),
		Counts: counts,
	}, nil
}

// resolveAll fans out across the four categories concurrently; within a
// category every child fetch runs concurrently too. Relation sets are small
// (single digits), so fan-out is naturally bounded by their size.
func (h *Hydrator) resolveAll(ctx context.Context, base string, root records.Record) [4]Outcome {
	var outcomes [4]Outcome
	var group sync.WaitGroup
	for index, category := range h.cfg.Categories {
		ids := records.StringSliceField(root.Fields, category.RelationField)
		if len(ids) == 0 {
			continue
		}
		group.Add(1)
		go func(index int, category Category, ids []string) {
			defer group.Done()
			outcomes[index] = h.resolveCategory(ctx, base, category, ids)
		}(index, category, ids)
	}
	group.Wait()
	return outcomes
}

// resolveCategory fetches every child in one category and collects the
// non-empty knowledge texts in relation order. A failing or blank child is
// recorded and excluded; it never blocks its siblings.
func (h *Hydrator) resolveCategory(ctx context.Context, base string, category Category, ids []string) Outcome {
	texts := make([]string, len(ids))
	errs := make([]error, len(ids))

	var group sync.WaitGroup
	for index, id := range ids {
		group.Add(1)
		go func(index int, id string) {
			defer group.Done()
			child, err := h.client.GetByID(ctx, base, category.Table, id)
			if err != nil {
				errs[index] = err
				return
			}
			texts[index] = records.StringField(child.Fields, category.KnowledgeField)
		}(index, id)
	}
	group.Wait()

	outcome := Outcome{}
	for index, id := range ids {
		if errs[index] != nil {
			outcome.Failed = append(outcome.Failed, ChildFailure{ID: id, Err: errs[index]})
			continue
		}
		if strings.TrimSpace(texts[index]) == "" {
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, texts[index])
	}
	return outcome
}

func (h *Hydrator) resolveBase(baseID string) (string, error) {
	if skipped := capability.Check(capability.Requirement{Name: h.cfg.TokenKey, Value: h.cfg.Token}); skipped != nil {
		return "", skipped.Err()
	}
	base := strings.TrimSpace(baseID)
	if base == "" {
		base = strings.TrimSpace(h.cfg.BaseID)
	}
	if skipped := capability.Check(capability.Requirement{Name: h.cfg.BaseIDKey, Value: base}); skipped != nil {
		return "", skipped.Err()
	}
	return base, nil
}
