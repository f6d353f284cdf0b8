// Package upload moves profiles documents between this machine and a
// remote liftplan server over its REST API.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/importer"
)

// Result mirrors the server's import response.
type Result struct {
	Profiles       int    `json:"profiles"`
	Exercises      int    `json:"exercises"`
	Calibrations   int    `json:"calibrations"`
	HistoryEntries int    `json:"history_entries"`
	Active         string `json:"active"`
	DryRun         bool   `json:"dry_run"`
}

// StatusError is a non-2xx reply from the server.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Body)
}

// Client sends documents to the liftplan server over HTTP.
type Client struct {
	serverURL  string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the liftplan server.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// Push POSTs a document to the server's import endpoint. Server errors and
// transport failures are retried up to 3 times with exponential backoff;
// a rejected document (4xx) is not.
func (c *Client) Push(ctx context.Context, doc io.Reader, mode importer.Mode, dryRun bool) (*Result, error) {
	data, err := io.ReadAll(doc)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	params := url.Values{}
	params.Set("mode", string(mode))
	params.Set("dry_run", strconv.FormatBool(dryRun))
	u := c.serverURL + "/api/v1/import?" + params.Encode()

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff << uint(attempt-1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var result Result
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decoding import result: %w", err)
			}
			return &result, nil
		}
		lastErr = &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

// Pull copies the server's exported document to w.
func (c *Client) Pull(ctx context.Context, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/v1/export", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("copying export: %w", err)
	}
	return nil
}
