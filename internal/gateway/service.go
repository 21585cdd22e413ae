// Package gateway is the HTTP front door: it authenticates inbound chat
// requests, routes them to a configured agent (in-process loop or reverse
// proxy to an upstream deployment), and owns the tool surface those agents
// call back into.
package gateway

import (
	"context"
	"log/slog"

	"github.com/relaymesh/relay/internal/agent/tools"
	"github.com/relaymesh/relay/internal/config"
	"github.com/relaymesh/relay/internal/hydrate"
	"github.com/relaymesh/relay/internal/records"
)

// Engine produces a reply for one chat turn. The in-process agent loop
// implements it; tests swap in fakes.
type Engine interface {
	Respond(ctx context.Context, agent config.AgentDef, req ChatRequest) (ChatResponse, error)
}

// Records is the slice of the record client the gateway tools need.
type Records interface {
	GetByID(ctx context.Context, baseID, table, id string) (records.Record, error)
	ListByFormula(ctx context.Context, baseID, table, formula string, opts records.ListOptions) ([]records.Record, error)
	CreateRecords(ctx context.Context, baseID, table string, fields []map[string]any) ([]records.Record, error)
	UpdateRecords(ctx context.Context, baseID, table string, updates []records.RecordUpdate) ([]records.Record, error)
}

// Hydrator assembles composite context documents.
type Hydrator interface {
	Hydrate(ctx context.Context, rootID, baseID string) (hydrate.Result, error)
	HydrateAssembled(ctx context.Context, rootID, baseID string) (hydrate.Result, error)
}

// Auditor persists per-turn telemetry. Best effort: audit failures are
// logged, never surfaced to the caller.
type Auditor interface {
	RecordChatTurn(ctx context.Context, agent, prompt, reply string, toolCalls int) error
}

// ChatRequest is the inbound payload for one chat turn.
type ChatRequest struct {
	Message string `json:"message"`
	Session string `json:"session,omitempty"`
}

// ChatResponse is the reply payload.
type ChatResponse struct {
	Agent     string `json:"agent"`
	Reply     string `json:"reply"`
	ToolCalls int    `json:"toolCalls"`
}

type Service struct {
	cfg      config.Config
	logger   *slog.Logger
	agents   map[string]config.AgentDef
	registry *tools.Registry
	engine   Engine
	audit    Auditor
}

func NewService(cfg config.Config, agents map[string]config.AgentDef, registry *tools.Registry, engine Engine, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		logger:   logger,
		agents:   agents,
		registry: registry,
		engine:   engine,
		audit:    audit,
	}
}

// Registry exposes the tool set, e.g. for the MCP server.
func (s *Service) Registry() *tools.Registry {
	return s.registry
}
