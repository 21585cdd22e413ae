package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relaymesh/relay/internal/actions/executor"
	"github.com/relaymesh/relay/internal/actions/plugins/webhook"
	"github.com/relaymesh/relay/internal/config"
	"github.com/relaymesh/relay/internal/hydrate"
	"github.com/relaymesh/relay/internal/llm"
	"github.com/relaymesh/relay/internal/orchestrator"
	"github.com/relaymesh/relay/internal/records"
	"github.com/relaymesh/relay/internal/store"
)

type stubResponder struct {
	reply string
	err   error
	input llm.MessageInput
}

func (s *stubResponder) Reply(ctx context.Context, input llm.MessageInput) (string, error) {
	s.input = input
	return s.reply, s.err
}

func pipelineConfig(apiBase string) config.Config {
	cfg := config.FromEnv()
	cfg.RecordsAPIBase = apiBase
	cfg.RecordsToken = "key"
	cfg.RecordsBaseID = "appBase"
	return cfg
}

func newTestRuntime(t *testing.T, cfg config.Config) *Runtime {
	t.Helper()
	metaStore, err := store.New(filepath.Join(t.TempDir(), "meta.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { metaStore.Close() })
	if err := metaStore.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := records.New(cfg.RecordsAPIBase, cfg.RecordsToken, 0, logger)
	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Store:    metaStore,
		Records:  client,
		Hydrator: hydrate.New(client, hydrate.ConfigFrom(cfg), logger),
	}
}

func TestGenerationHandlerWritesOutputAndRecordsRun(t *testing.T) {
	var patched map[string]any
	storeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/Content Initiators/rec1"):
			json.NewEncoder(w).Encode(map[string]any{
				"id": "rec1",
				"fields": map[string]any{
					"Goal":     "announce launch",
					"Personas": []string{"p1"},
				},
			})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/Personas/p1"):
			json.NewEncoder(w).Encode(map[string]any{
				"id":     "p1",
				"fields": map[string]any{"Persona XML": "<persona>calm</persona>"},
			})
		case r.Method == http.MethodPatch:
			json.NewDecoder(r.Body).Decode(&patched)
			w.Write([]byte(`{"records":[{"id":"rec1","fields":{}}]}`))
		default:
			t.Errorf("unexpected store call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer storeServer.Close()

	webhookHits := 0
	hookServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookHits++
		if r.URL.Path != "/content-generated" {
			t.Errorf("unexpected webhook path %s", r.URL.Path)
		}
	}))
	defer hookServer.Close()

	cfg := pipelineConfig(storeServer.URL)
	cfg.WebhookBase = hookServer.URL
	runtime := newTestRuntime(t, cfg)

	responder := &stubResponder{reply: "Launch day is here."}
	actions := executor.NewRegistry(webhook.New(cfg.WebhookBase, "", 0))
	handler := runtime.generationHandler(responder, actions)

	job := orchestrator.Job{ID: "job1", InitiatorID: "rec1", Goal: "announce launch"}
	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if !strings.Contains(responder.input.Text, "<persona>calm</persona>") {
		t.Fatal("model input must carry the hydrated context")
	}
	recordsList, ok := patched["records"].([]any)
	if !ok || len(recordsList) != 1 {
		t.Fatalf("expected one patched record, got %v", patched)
	}
	fields := recordsList[0].(map[string]any)["fields"].(map[string]any)
	if fields["Output"] != "Launch day is here." || fields["Status"] != "Generated" {
		t.Fatalf("unexpected patch fields: %v", fields)
	}
	if webhookHits != 1 {
		t.Fatalf("expected one webhook call, got %d", webhookHits)
	}

	runs, err := runtime.Store.ListGenerationRuns(context.Background(), "rec1", 5)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "generated" || runs[0].Counts.Personas != 1 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestGenerationHandlerRecordsHydrateFailure(t *testing.T) {
	storeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"NOT_FOUND"}`))
	}))
	defer storeServer.Close()

	runtime := newTestRuntime(t, pipelineConfig(storeServer.URL))
	handler := runtime.generationHandler(&stubResponder{reply: "unused"}, executor.NewRegistry())

	err := handler(context.Background(), orchestrator.Job{InitiatorID: "recMissing"})
	if err == nil {
		t.Fatal("expected hydrate failure to surface")
	}

	runs, listErr := runtime.Store.ListGenerationRuns(context.Background(), "recMissing", 5)
	if listErr != nil {
		t.Fatalf("list runs: %v", listErr)
	}
	if len(runs) != 1 || runs[0].Status != "failed" {
		t.Fatalf("expected one failed run, got %+v", runs)
	}
}

func TestGenerationHandlerEmptyDraftFails(t *testing.T) {
	storeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "rec1", "fields": map[string]any{}})
	}))
	defer storeServer.Close()

	runtime := newTestRuntime(t, pipelineConfig(storeServer.URL))
	handler := runtime.generationHandler(&stubResponder{reply: "   "}, executor.NewRegistry())

	err := handler(context.Background(), orchestrator.Job{InitiatorID: "rec1"})
	if err == nil || !strings.Contains(err.Error(), "empty content") {
		t.Fatalf("expected empty-content error, got %v", err)
	}
}
