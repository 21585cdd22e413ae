// Package app assembles the runtime: configuration, storage, the record
// client, the hydrator, the tool registry, the agent loop, the gateway, the
// background engine, the scheduler, and the prompt watcher.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/relaymesh/relay/internal/actions/executor"
	"github.com/relaymesh/relay/internal/actions/plugins/sqlbridge"
	"github.com/relaymesh/relay/internal/actions/plugins/webhook"
	"github.com/relaymesh/relay/internal/agent"
	"github.com/relaymesh/relay/internal/config"
	"github.com/relaymesh/relay/internal/gateway"
	"github.com/relaymesh/relay/internal/hydrate"
	"github.com/relaymesh/relay/internal/llm/openai"
	"github.com/relaymesh/relay/internal/mcpserver"
	"github.com/relaymesh/relay/internal/orchestrator"
	"github.com/relaymesh/relay/internal/records"
	"github.com/relaymesh/relay/internal/scheduler"
	"github.com/relaymesh/relay/internal/store"
	"github.com/relaymesh/relay/internal/watcher"
)

type Runtime struct {
	Config    config.Config
	Logger    *slog.Logger
	Store     *store.Store
	Records   *records.Client
	Hydrator  *hydrate.Hydrator
	Gateway   *gateway.Service
	Engine    *orchestrator.Engine
	Scheduler *scheduler.Service
	Watcher   *watcher.Service
	Prompts   *watcher.PromptStore
	MCP       *mcpserver.Server

	agents map[string]config.AgentDef
}

func NewRuntime(ctx context.Context, cfg config.Config) (*Runtime, error) {
	logger := newLogger(cfg)

	metaStore, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := metaStore.AutoMigrate(ctx); err != nil {
		metaStore.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	client := records.New(cfg.RecordsAPIBase, cfg.RecordsToken,
		time.Duration(cfg.RecordsTimeoutSec)*time.Second, logger)
	hydrator := hydrate.New(client, hydrate.ConfigFrom(cfg), logger)

	actions := executor.NewRegistry(
		webhook.New(cfg.WebhookBase, cfg.WebhookToken, time.Duration(cfg.WebhookTimeoutSec)*time.Second),
		sqlbridge.New(cfg.SQLBridgeURL, cfg.SQLBridgeToken, time.Duration(cfg.WebhookTimeoutSec)*time.Second),
	)
	registry := gateway.BuildRegistry(cfg, client, hydrator, actions)

	responder := openai.New(openai.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: time.Duration(cfg.LLMTimeoutSec) * time.Second,
	}, logger)
	loop := agent.New(logger, responder, registry)

	prompts := watcher.NewPromptStore()
	promptWatcher := watcher.New(cfg.PromptRoot, prompts, logger)
	if err := promptWatcher.LoadAll(); err != nil {
		metaStore.Close()
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	defs, err := config.LoadAgents(cfg.AgentsConfigPath)
	if err != nil {
		metaStore.Close()
		return nil, err
	}
	agents := map[string]config.AgentDef{}
	for _, def := range defs {
		agents[strings.ToLower(def.Name)] = def
	}

	runtime := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Store:    metaStore,
		Records:  client,
		Hydrator: hydrator,
		Prompts:  prompts,
		Watcher:  promptWatcher,
		agents:   agents,
	}

	engineAdapter := &loopEngine{loop: loop, prompts: prompts}
	runtime.Gateway = gateway.NewService(cfg, agents, registry, engineAdapter, metaStore, logger)
	runtime.Engine = orchestrator.New(cfg.WorkerConcurrency, runtime.generationHandler(responder, actions), logger)

	sched, err := scheduler.New(cfg, client, runtime.Engine, logger)
	if err != nil {
		metaStore.Close()
		return nil, err
	}
	runtime.Scheduler = sched

	if cfg.MCPEnabled {
		runtime.MCP = mcpserver.New(registry, logger)
	}
	return runtime, nil
}

func (r *Runtime) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Environment == "development" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("service", "relay", "env", cfg.Environment)
	slog.SetDefault(logger)
	return logger
}
