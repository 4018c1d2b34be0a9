// Package wiki looks up short encyclopedia summaries for drug and class names.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/giygas/fdadrugs-api/drugparser/entities"
	"github.com/giygas/fdadrugs-api/interfaces"
	"github.com/giygas/fdadrugs-api/logging"
)

// ErrNotFound is returned when no article matches the term
var ErrNotFound = errors.New("no summary found")

// maxBodySize caps the summary response read into memory
const maxBodySize = 1 << 20

// Compile-time check to ensure Client implements WikiClient interface
var _ interfaces.WikiClient = (*Client)(nil)

// Client fetches page summaries from a REST summary endpoint of the form
// <baseURL><escaped title>
type Client struct {
	baseURL string
	http    *http.Client
}

// summaryResponse is the subset of the page summary payload we use
type summaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// NewClient creates a client with a bounded timeout
func NewClient(baseURL string) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Summary returns the summary of the article titled term
func (c *Client) Summary(ctx context.Context, term string) (*entities.WikiSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrNotFound
	}

	endpoint := c.baseURL + url.PathEscape(strings.ReplaceAll(term, " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch summary for %q: %w", term, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("summary for %q: unexpected status %d", term, resp.StatusCode)
	}

	var payload summaryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode summary for %q: %w", term, err)
	}

	// Disambiguation pages list candidates rather than describe the term
	if payload.Type == "disambiguation" || payload.Extract == "" {
		return nil, ErrNotFound
	}

	return &entities.WikiSummary{
		Title:   payload.Title,
		Extract: payload.Extract,
		URL:     payload.ContentURLs.Desktop.Page,
	}, nil
}
