// Package fetch retrieves the dashboard's CSV data files over HTTP.
// Each fetch is a single one-shot read: any network or status failure is
// reported to the caller once and converted into a "not loaded" advisory
// upstream, never retried within a cycle.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rewired-gh/gridledger/internal/csvio"
)

// Client fetches and parses remote CSV files.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a CSV fetch client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchCSV retrieves url and parses the body as a CSV table.
func (c *Client) FetchCSV(ctx context.Context, url string) (csvio.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return csvio.Table{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return csvio.Table{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return csvio.Table{}, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return csvio.Table{}, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	return csvio.Parse(string(body)), nil
}
