// Package socrata is a minimal client for the Socrata SODA API: paged JSON
// queries with stable :id ordering, bounded retry with exponential backoff,
// and polite pacing between pages.
package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fleetsight/fleetsight/pkg/reporting"
)

// Defaults for data.transportation.gov.
const (
	DefaultBaseURL   = "https://data.transportation.gov/resource"
	DefaultPageSize  = 50000
	DefaultTimeout   = 120 * time.Second
	DefaultPagePause = 500 * time.Millisecond
	defaultRetries   = 3
)

// Config contains Socrata client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	PageSize  int
	PagePause time.Duration
	Retries   int
}

// Client wraps an HTTP client for one Socrata domain.
type Client struct {
	http   *http.Client
	cfg    Config
	logger *reporting.Logger
}

// Row is one decoded result row. Socrata returns every field as a JSON
// string; callers coerce types themselves.
type Row map[string]interface{}

// Query selects and filters one resource fetch.
type Query struct {
	Select string
	Where  string
}

// New creates a new Socrata client, filling config defaults.
func New(cfg Config, logger *reporting.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PagePause < 0 {
		cfg.PagePause = DefaultPagePause
	}
	if cfg.Retries <= 0 {
		cfg.Retries = defaultRetries
	}
	return &Client{
		http:   &http.Client{},
		cfg:    cfg,
		logger: logger,
	}
}

// FetchPage fetches a single page, retrying transient failures up to the
// configured attempt count with exponential backoff (2s, 4s).
func (c *Client) FetchPage(ctx context.Context, resource string, q Query, offset int) ([]Row, error) {
	params := url.Values{}
	params.Set("$limit", fmt.Sprintf("%d", c.cfg.PageSize))
	params.Set("$offset", fmt.Sprintf("%d", offset))
	params.Set("$order", ":id")
	if q.Where != "" {
		params.Set("$where", q.Where)
	}
	if q.Select != "" {
		params.Set("$select", q.Select)
	}
	endpoint := fmt.Sprintf("%s/%s.json?%s", c.cfg.BaseURL, resource, params.Encode())

	var lastErr error
	for attempt := 0; attempt < c.cfg.Retries; attempt++ {
		rows, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		if attempt < c.cfg.Retries-1 {
			wait := time.Duration(1<<(attempt+1)) * time.Second
			c.logger.Warn("Retrying Socrata fetch",
				"attempt", attempt+1, "max", c.cfg.Retries, "wait", wait.String(), "error", err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("socrata fetch failed after %d attempts: %w", c.cfg.Retries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]Row, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var rows []Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return rows, nil
}

// FetchAll paginates through the full result set, pausing between pages.
// A maxRows of 0 means unbounded; otherwise the result is truncated to
// maxRows and pagination stops early.
func (c *Client) FetchAll(ctx context.Context, resource string, q Query, maxRows int) ([]Row, error) {
	var all []Row
	offset := 0
	for {
		page, err := c.FetchPage(ctx, resource, q, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		c.logger.Info("Fetched rows so far", "resource", resource, "count", len(all))
		if maxRows > 0 && len(all) >= maxRows {
			all = all[:maxRows]
			break
		}
		if len(page) < c.cfg.PageSize {
			break
		}
		offset += c.cfg.PageSize
		select {
		case <-time.After(c.cfg.PagePause):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return all, nil
}
