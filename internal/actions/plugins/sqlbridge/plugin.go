// Package sqlbridge runs read-only SQL statements against an HTTP bridge in
// front of an operational database. The bridge owns statement authorization;
// this plugin only ships the query and relays the response body.
package sqlbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/relaymesh/relay/internal/actions/executor"
)

type Plugin struct {
	endpoint string
	token    string
	client   *http.Client
}

func New(endpoint, token string, timeout time.Duration) *Plugin {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Plugin{
		endpoint: strings.TrimSpace(endpoint),
		token:    strings.TrimSpace(token),
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *Plugin) PluginKey() string { return "sqlbridge" }

func (p *Plugin) ActionTypes() []string {
	return []string{"sql_query"}
}

func (p *Plugin) Execute(ctx context.Context, req executor.Request) (executor.Result, error) {
	query := strings.TrimSpace(req.Target)
	if query == "" {
		return executor.Result{}, fmt.Errorf("sql action requires a query")
	}
	if p.endpoint == "" {
		return executor.Result{}, fmt.Errorf("sql bridge url is not set")
	}

	body, err := json.Marshal(map[string]any{"query": query})
	if err != nil {
		return executor.Result{}, fmt.Errorf("encode sql request: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return executor.Result{}, err
	}
	request.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		request.Header.Set("Authorization", "Bearer "+p.token)
	}

	res, err := p.client.Do(request)
	if err != nil {
		return executor.Result{}, err
	}
	defer res.Body.Close()

	responseBody, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return executor.Result{}, fmt.Errorf("sql bridge failed: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(responseBody)))
	}
	return executor.Result{
		Plugin:  p.PluginKey(),
		Message: string(responseBody),
	}, nil
}
