// Package gatewayclient is a small HTTP client for a running relay gateway,
// used by the CLI to talk to a deployed instance.
package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout < time.Second {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
	}
}

type ChatRequest struct {
	Message string `json:"message"`
	Session string `json:"session,omitempty"`
}

type ChatResponse struct {
	Agent     string `json:"agent"`
	Reply     string `json:"reply"`
	ToolCalls int    `json:"toolCalls"`
}

// Chat sends one turn to the named agent.
func (c *Client) Chat(ctx context.Context, agent string, input ChatRequest) (ChatResponse, error) {
	agent = strings.ToLower(strings.TrimSpace(agent))
	if agent == "" {
		return ChatResponse{}, fmt.Errorf("agent name is required")
	}
	input.Message = strings.TrimSpace(input.Message)
	if input.Message == "" {
		return ChatResponse{}, fmt.Errorf("message is required")
	}

	requestBody, err := json.Marshal(input)
	if err != nil {
		return ChatResponse{}, err
	}
	endpoint := c.baseURL + "/v1/agents/" + url.PathEscape(agent) + "/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return ChatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var response ChatResponse
	if err := c.doJSON(req, &response); err != nil {
		return ChatResponse{}, err
	}
	return response, nil
}

// Health reports whether the gateway answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var apiError struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiError)
		if strings.TrimSpace(apiError.Error) == "" {
			apiError.Error = res.Status
		}
		return fmt.Errorf("gateway: %s", apiError.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
