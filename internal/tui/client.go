package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Jaylorddeguzman/importer/internal/model"
	"github.com/Jaylorddeguzman/importer/internal/web"
)

// Client reads the monitoring endpoints of a running importer.
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Stats(ctx context.Context) (web.StatsResponse, error) {
	var out web.StatsResponse
	err := c.getJSON(ctx, "/stats", &out)
	return out, err
}

func (c *Client) Recent(ctx context.Context, limit int) ([]model.Record, error) {
	var out web.RecentResponse
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/api/recent?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("recent records: %s", out.Error)
	}
	return out.Records, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
