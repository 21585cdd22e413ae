package gateway

import (
	"time"

	"github.com/relaymesh/relay/internal/agent/tools"
	"github.com/relaymesh/relay/internal/config"
)

// BuildRegistry wires the full tool surface. Integration-backed tools are
// registered unconditionally: each one checks its own capability at call
// time and reports skipped when unconfigured, so the model can explain the
// missing capability instead of discovering a hole in the catalog.
func BuildRegistry(cfg config.Config, client Records, hydrator Hydrator, exec ActionExecutor) *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(NewHydrateContextTool(hydrator))
	registry.Register(NewCreateRequestTool(client, cfg))
	registry.Register(NewWriteOutputTool(client, cfg))
	registry.Register(NewGetPersonaTool(client, cfg))
	registry.Register(NewGetDomainTool(client, cfg))
	registry.Register(NewTriggerWorkflowTool(exec, cfg))
	registry.Register(NewSQLQueryTool(exec, cfg))
	registry.Register(NewWebSearchTool(cfg, time.Duration(cfg.WebhookTimeoutSec)*time.Second))
	return registry
}
