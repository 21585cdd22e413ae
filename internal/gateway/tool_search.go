package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/relaymesh/relay/internal/agent/tools"
	"github.com/relaymesh/relay/internal/agenterr"
	"github.com/relaymesh/relay/internal/capability"
	"github.com/relaymesh/relay/internal/config"
)

// WebSearchTool queries the search API for supporting material. Guarded:
// without an API key it reports skipped and issues no request.
type WebSearchTool struct {
	cfg    config.Config
	client *http.Client
}

func NewWebSearchTool(cfg config.Config, timeout time.Duration) *WebSearchTool {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebSearchTool{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (t *WebSearchTool) Name() string               { return "web_search" }
func (t *WebSearchTool) ToolClass() tools.ToolClass { return tools.ToolClassSearch }
func (t *WebSearchTool) RequiresApproval() bool     { return false }

func (t *WebSearchTool) Description() string {
	return "Search the web for supporting information."
}

func (t *WebSearchTool) ParametersSchema() string {
	return `{"type":"object","properties":{"query":{"type":"string"},"limit":{"type":"integer"}},"required":["query"]}`
}

type webSearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (t *WebSearchTool) ValidateArgs(raw json.RawMessage) error {
	var args webSearchArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return err
	}
	if strings.TrimSpace(args.Query) == "" {
		return fmt.Errorf("%w: query is required", agenterr.ErrToolInvalidArgs)
	}
	return nil
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (t *WebSearchTool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	if skipped := capability.Check(capability.Requirement{Name: "RELAY_SEARCH_API_KEY", Value: t.cfg.SearchAPIKey}); skipped != nil {
		return "", skipped.Err()
	}
	var args webSearchArgs
	if err := strictDecodeArgs(raw, &args); err != nil {
		return "", err
	}
	limit := args.Limit
	if limit < 1 || limit > 10 {
		limit = 5
	}

	payload, err := json.Marshal(map[string]any{
		"api_key":     t.cfg.SearchAPIKey,
		"query":       strings.TrimSpace(args.Query),
		"max_results": limit,
	})
	if err != nil {
		return "", fmt.Errorf("encode search request: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.SearchAPIBase, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(request)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("search failed: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	results := make([]map[string]any, 0, len(decoded.Results))
	for _, item := range decoded.Results {
		results = append(results, map[string]any{
			"title":   item.Title,
			"url":     item.URL,
			"content": item.Content,
		})
	}
	return tools.OKEnvelope(map[string]any{"results": results}), nil
}
