package api

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

	"github.com/jsokolov/newsdeck/internal/storage"
)

const defaultTimeout = 30 * time.Second

// Client talks to the aggregation backend's REST API.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Sources lists the feeds the backend knows how to ingest from.
func (c *Client) Sources(ctx context.Context) ([]*storage.Source, error) {
	var sources []*storage.Source
	if err := c.getJSON(ctx, "/api/sources", nil, &sources); err != nil {
		return nil, fmt.Errorf("fetching sources: %w", err)
	}
	return sources, nil
}

// Articles fetches one page of the feed. An empty slice means no matches,
// not an error.
func (c *Client) Articles(ctx context.Context, query Query) ([]*storage.Article, error) {
	var articles []*storage.Article
	if err := c.getJSON(ctx, "/api/articles", query.Values(), &articles); err != nil {
		return nil, fmt.Errorf("fetching articles: %w", err)
	}
	return articles, nil
}

// Refresh asks the backend to ingest fresh items. Only the HTTP status
// decides success; the success body is drained and discarded.
func (c *Client) Refresh(ctx context.Context, reqBody RefreshRequest) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("encoding refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/refresh", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("refreshing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("refresh failed: %w", httpError(resp))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// httpError turns a non-2xx response into an error, preferring the
// backend's detail message when the body carries one.
func httpError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, payload.Detail)
	}
	return fmt.Errorf("HTTP error: %d", resp.StatusCode)
}
