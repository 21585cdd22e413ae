// Package webhook fires workflow-automation scenarios over HTTP. A scenario
// is a path segment under the configured automation base URL; success is any
// 2xx response, no retry.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/relaymesh/relay/internal/actions/executor"
)

type Plugin struct {
	base   string
	token  string
	client *http.Client
}

func New(base, token string, timeout time.Duration) *Plugin {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Plugin{
		base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		token:  strings.TrimSpace(token),
		client: &http.Client{Timeout: timeout},
	}
}

func (p *Plugin) PluginKey() string { return "webhook" }

func (p *Plugin) ActionTypes() []string {
	return []string{"trigger_workflow", "webhook"}
}

func (p *Plugin) Execute(ctx context.Context, req executor.Request) (executor.Result, error) {
	scenario := strings.TrimSpace(req.Target)
	if scenario == "" {
		return executor.Result{}, fmt.Errorf("webhook action requires a scenario name")
	}
	if p.base == "" {
		return executor.Result{}, fmt.Errorf("webhook base url is not set")
	}

	var body []byte
	if len(req.Payload) > 0 {
		encoded, err := json.Marshal(req.Payload)
		if err != nil {
			return executor.Result{}, fmt.Errorf("encode webhook payload: %w", err)
		}
		body = encoded
	}

	endpoint := p.base + "/" + url.PathEscape(scenario)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
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

	responseBody, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return executor.Result{}, fmt.Errorf("webhook request failed: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(responseBody)))
	}
	return executor.Result{
		Plugin:  p.PluginKey(),
		Message: fmt.Sprintf("scenario %s triggered with status %d", scenario, res.StatusCode),
	}, nil
}
