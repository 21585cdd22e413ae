package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relaymesh/relay/internal/actions/executor"
)

func TestExecutePostsScenario(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	plugin := New(server.URL, "hook-token", time.Second)
	result, err := plugin.Execute(context.Background(), executor.Request{
		Type:    "trigger_workflow",
		Target:  "publish-post",
		Payload: map[string]any{"recordId": "rec1"},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if gotPath != "/publish-post" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer hook-token" {
		t.Fatalf("unexpected auth %q", gotAuth)
	}
	if gotPayload["recordId"] != "rec1" {
		t.Fatalf("unexpected payload: %+v", gotPayload)
	}
	if result.Plugin != "webhook" {
		t.Fatalf("unexpected plugin %q", result.Plugin)
	}
}

func TestExecuteNon2xxFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scenario disabled", http.StatusForbidden)
	}))
	defer server.Close()

	plugin := New(server.URL, "", time.Second)
	_, err := plugin.Execute(context.Background(), executor.Request{Target: "publish-post"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestExecuteRequiresScenario(t *testing.T) {
	plugin := New("http://example.invalid", "", time.Second)
	if _, err := plugin.Execute(context.Background(), executor.Request{}); err == nil {
		t.Fatal("expected error for missing scenario")
	}
}
