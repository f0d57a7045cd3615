package sheet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Client is a thin HTTP client for published spreadsheet exports. It handles
// automatic retry with exponential backoff on HTTP 429 and transient 5xx
// responses. Sheets are public documents, so no authentication is involved.
type Client struct {
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new sheet client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// FetchRows downloads the TSV export at url and parses it into field-mapped
// rows keyed by the header line.
func (c *Client) FetchRows(ctx context.Context, url string) ([]Row, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	rows, err := ParseTSV(body)
	if err != nil {
		return nil, fmt.Errorf("parsing sheet %s: %w", url, err)
	}
	return rows, nil
}

// get performs the GET request with rate-limit and transient-error retries.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "text/tab-separated-values, text/plain")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching sheet %s: %w", url, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("reading sheet response: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode >= 500 {
			lastErr = fmt.Errorf(
				"sheet fetch got status %d for %s", resp.StatusCode, url,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf(
				"unexpected status %d fetching %s", resp.StatusCode, url,
			)
		}

		return body, nil
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
