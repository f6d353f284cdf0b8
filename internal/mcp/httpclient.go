package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/schedule"
)

// HTTPClient implements DataSource by calling the liftplan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the profiles live on the server (reached over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

func (c *HTTPClient) List(ctx context.Context) ([]*models.Profile, error) {
	body, err := c.get(ctx, "/api/v1/profiles", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Profiles []*models.Profile `json:"profiles"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("httpclient: decode profiles: %w", err)
	}
	return resp.Profiles, nil
}

func (c *HTTPClient) Prescribe(ctx context.Context, profileID string, date time.Time) (schedule.Day, error) {
	path := "/api/v1/prescription"
	if profileID != "" {
		path = "/api/v1/profiles/" + url.PathEscape(profileID) + "/prescription"
	}
	params := url.Values{}
	params.Set("date", date.Format(dateLayout))

	body, err := c.get(ctx, path, params)
	if err != nil {
		return schedule.Day{}, err
	}

	var day schedule.Day
	if err := json.Unmarshal(body, &day); err != nil {
		return schedule.Day{}, fmt.Errorf("httpclient: decode prescription: %w", err)
	}
	return day, nil
}
