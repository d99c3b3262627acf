// Package comcat is the HTTP transport adapter for the ANSS Comprehensive
// Earthquake Catalog web API.
package comcat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

// DefaultBaseURL is the production ComCat event service.
const DefaultBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1"

// Client executes search, count, detail, and content requests against one
// ComCat base URL. A 503 response is retried once after a fixed backoff;
// every other failure surfaces immediately as a domain.ConnError.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	retryBackoff time.Duration
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewClient creates a ComCat client. Pass an empty baseURL for the
// production service.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryBackoff: 3 * time.Second,
		logger:       logger,
		metrics:      metrics,
	}
}

// Search executes one search request and returns its summary events in
// the server's ascending-time order. Callers needing more than one
// segment's worth of results go through catalog.Service, which plans
// segments and calls this per segment.
func (c *Client) Search(ctx context.Context, f domain.Filter) ([]domain.SummaryEvent, error) {
	params, err := f.Params()
	if err != nil {
		return nil, err
	}
	fullURL := c.baseURL + "/query?" + params.Encode()

	body, err := c.get(ctx, fullURL, "search")
	if err != nil {
		return nil, err
	}
	events, err := domain.ParseFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode search response from %s: %w", fullURL, err)
	}
	return events, nil
}

// Count returns the number of events matching the filter.
func (c *Client) Count(ctx context.Context, f domain.Filter) (int, error) {
	params, err := f.CountParams()
	if err != nil {
		return 0, err
	}
	fullURL := c.baseURL + "/count?" + params.Encode()

	body, err := c.get(ctx, fullURL, "count")
	if err != nil {
		return 0, err
	}

	var resp struct {
		Count      int `json:"count"`
		MaxAllowed int `json:"maxAllowed"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, &domain.ParseError{URL: fullURL, Err: err}
	}
	if resp.MaxAllowed > 0 && resp.Count > resp.MaxAllowed {
		c.logger.Warn("count exceeds the server's single-query limit",
			"count", resp.Count, "max_allowed", resp.MaxAllowed)
	}
	return resp.Count, nil
}

// Detail fetches the full event document by event id.
func (c *Client) Detail(ctx context.Context, eventID string) (domain.DetailEvent, error) {
	params := url.Values{}
	params.Set("format", "geojson")
	params.Set("eventid", eventID)
	return c.DetailByURL(ctx, c.baseURL+"/query?"+params.Encode())
}

// DetailByURL fetches a detail document through the opaque detail URL
// embedded in a summary event.
func (c *Client) DetailByURL(ctx context.Context, detailURL string) (domain.DetailEvent, error) {
	body, err := c.get(ctx, detailURL, "detail")
	if err != nil {
		return domain.DetailEvent{}, err
	}
	detail, err := domain.ParseDetailFeature(body)
	if err != nil {
		return domain.DetailEvent{}, &domain.ParseError{URL: detailURL, Err: err}
	}
	return detail, nil
}

// DownloadContent resolves the product's content file matching pattern
// (shortest name wins) and writes its bytes verbatim under destDir,
// returning the written path.
func (c *Client) DownloadContent(ctx context.Context, product domain.ResolvedProduct, pattern, destDir string) (string, error) {
	name, content, err := product.ContentMatching(pattern)
	if err != nil {
		return "", err
	}

	body, err := c.get(ctx, content.URL, "content")
	if err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, path.Base(name))
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return "", fmt.Errorf("write content %s: %w", dest, err)
	}
	c.logger.Info("content downloaded",
		"product", product.ID, "content", name, "path", dest, "bytes", len(body))
	return dest, nil
}

// get executes one GET with the 503-retry policy and reads the body.
func (c *Client) get(ctx context.Context, fullURL, endpoint string) ([]byte, error) {
	start := time.Now()
	defer func() {
		c.metrics.APIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	body, status, err := c.doOnce(ctx, fullURL)
	if err == nil && status == http.StatusServiceUnavailable {
		c.metrics.APIRequests.WithLabelValues(endpoint, "retry").Inc()
		c.logger.Warn("server unavailable, retrying once", "url", fullURL, "backoff", c.retryBackoff)
		if !sleepWithContext(ctx, c.retryBackoff) {
			c.metrics.APIRequests.WithLabelValues(endpoint, "error").Inc()
			return nil, &domain.ConnError{URL: fullURL, Err: ctx.Err()}
		}
		body, status, err = c.doOnce(ctx, fullURL)
	}

	if err != nil {
		c.metrics.APIRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, &domain.ConnError{URL: fullURL, Err: err}
	}
	if status < 200 || status > 299 {
		c.metrics.APIRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, &domain.ConnError{URL: fullURL, Err: fmt.Errorf("status %d: %s", status, snippet(body))}
	}

	c.metrics.APIRequests.WithLabelValues(endpoint, "success").Inc()
	return body, nil
}

func (c *Client) doOnce(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// snippet truncates an error body for log and error messages.
func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
