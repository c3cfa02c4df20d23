package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mergington/internal/domain/activity"
)

const userAgent = "mergington-activities/1.0"

// ErrNoSource is returned when no source URL is configured.
var ErrNoSource = errors.New("no activity source configured")

// Client reads the activity collection from a remote backend.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a client for the activity collection at url.
// A zero timeout leaves the request bounded only by ctx.
// PRE: none
// POST: Returns a ready-to-use client
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs one GET of the activity collection.
// PRE: none
// POST: Returns the records verbatim on a 2xx JSON array body, otherwise an error
func (c *Client) Fetch(ctx context.Context) ([]activity.Record, error) {
	if c.url == "" {
		return nil, ErrNoSource
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build activities request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET activities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GET activities: unexpected status code: %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var records []activity.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	// "null" decodes without error but is not a collection
	if records == nil {
		return nil, errors.New("decode activities: body is not an array")
	}
	return records, nil
}
