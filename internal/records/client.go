package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StoreError carries the status and raw body of a non-2xx store response so
// callers can make policy decisions instead of guessing from error text.
type StoreError struct {
	Status int
	Body   string
}

func (e *StoreError) Error() string {
	body := strings.Join(strings.Fields(e.Body), " ")
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("store responded %d: %s", e.Status, body)
}

// Client issues authenticated requests against an Airtable-compatible HTTP
// API. It carries no caching or retry logic.
type Client struct {
	apiBase    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(apiBase, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = "https://api.airtable.com/v0"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiBase:    strings.TrimRight(strings.TrimSpace(apiBase), "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GetByID fetches a single record.
func (c *Client) GetByID(ctx context.Context, baseID, table, id string) (Record, error) {
	endpoint := c.tableURL(baseID, table) + "/" + url.PathEscape(strings.TrimSpace(id))
	var record Record
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &record); err != nil {
		return Record{}, err
	}
	return record, nil
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// ListByFormula lists records matching a filterByFormula expression,
// following pagination offsets until done or MaxRecords is reached.
func (c *Client) ListByFormula(ctx context.Context, baseID, table, formula string, opts ListOptions) ([]Record, error) {
	collected := []Record{}
	offset := ""
	for {
		query := url.Values{}
		if strings.TrimSpace(formula) != "" {
			query.Set("filterByFormula", strings.TrimSpace(formula))
		}
		if opts.MaxRecords > 0 {
			query.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
		}
		for _, field := range opts.Fields {
			query.Add("fields[]", field)
		}
		if offset != "" {
			query.Set("offset", offset)
		}
		endpoint := c.tableURL(baseID, table)
		if encoded := query.Encode(); encoded != "" {
			endpoint += "?" + encoded
		}
		var page listResponse
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}
		collected = append(collected, page.Records...)
		if opts.MaxRecords > 0 && len(collected) >= opts.MaxRecords {
			return collected[:opts.MaxRecords], nil
		}
		if page.Offset == "" {
			return collected, nil
		}
		offset = page.Offset
	}
}

type recordsEnvelope struct {
	Records []Record `json:"records"`
}

// CreateRecords creates records in one batch POST.
func (c *Client) CreateRecords(ctx context.Context, baseID, table string, fields []map[string]any) ([]Record, error) {
	payload := struct {
		Records []struct {
			Fields map[string]any `json:"fields"`
		} `json:"records"`
	}{}
	for _, item := range fields {
		payload.Records = append(payload.Records, struct {
			Fields map[string]any `json:"fields"`
		}{Fields: item})
	}
	var out recordsEnvelope
	if err := c.do(ctx, http.MethodPost, c.tableURL(baseID, table), payload, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// UpdateRecords applies a batch PATCH by record id. The store treats it as a
// partial update: fields not named are left untouched.
func (c *Client) UpdateRecords(ctx context.Context, baseID, table string, updates []RecordUpdate) ([]Record, error) {
	payload := struct {
		Records []RecordUpdate `json:"records"`
	}{Records: updates}
	var out recordsEnvelope
	if err := c.do(ctx, http.MethodPatch, c.tableURL(baseID, table), payload, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

func (c *Client) tableURL(baseID, table string) string {
	return c.apiBase + "/" + url.PathEscape(strings.TrimSpace(baseID)) + "/" + url.PathEscape(strings.TrimSpace(table))
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, target any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode store request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build store request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("store request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read store response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logger.Warn("store call failed", "method", method, "status", res.StatusCode)
		return &StoreError{Status: res.StatusCode, Body: string(raw)}
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode store response: %w", err)
	}
	return nil
}
