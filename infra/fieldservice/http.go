// Package fieldservice provides concrete clients for the external
// field-service platform.
package fieldservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	corefs "github.com/GoToMarketNow/lawnflow-dispatch/core/fieldservice"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// Config selects and configures the provider backend.
type Config struct {
	// Mode selects the backend: "mock" or "http".
	Mode           string `json:"mode"`
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "mock"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Mode {
	case "mock":
		return nil
	case "http":
		if c.BaseURL == "" {
			return fmt.Errorf("fieldservice: base_url is required in http mode")
		}
		return nil
	default:
		return fmt.Errorf("fieldservice: unknown mode %q", c.Mode)
	}
}

// NewClient builds a provider client from the configuration.
func NewClient(cfg Config) (corefs.Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == "mock" {
		return corefs.NewMockClient(), nil
	}
	return NewHTTPClient(cfg), nil
}

// HTTPClient talks to the platform's REST API with bearer authentication.
type HTTPClient struct {
	base   string
	apiKey string
	http   *http.Client
}

// NewHTTPClient creates a client for the given endpoint.
func NewHTTPClient(cfg Config) *HTTPClient {
	return &HTTPClient{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// GetScheduledJobsForDate returns the jobs scheduled on the given date.
func (c *HTTPClient) GetScheduledJobsForDate(ctx context.Context, businessID string, date time.Time) ([]model.Job, error) {
	path := fmt.Sprintf("/businesses/%s/jobs?date=%s",
		url.PathEscape(businessID), date.Format(model.PlanDateLayout))
	var jobs []model.Job
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &jobs); err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}
	return jobs, nil
}

// CheckAutoDispatchEnabled reads the business auto-dispatch setting.
func (c *HTTPClient) CheckAutoDispatchEnabled(ctx context.Context, businessID string) (bool, error) {
	var out struct {
		Enabled bool `json:"enabled"`
	}
	path := fmt.Sprintf("/businesses/%s/settings/auto-dispatch", url.PathEscape(businessID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, fmt.Errorf("fetch auto-dispatch setting: %w", err)
	}
	return out.Enabled, nil
}

// ListCrews returns the business crew roster.
func (c *HTTPClient) ListCrews(ctx context.Context, businessID string) ([]model.Crew, error) {
	var crews []model.Crew
	path := fmt.Sprintf("/businesses/%s/crews", url.PathEscape(businessID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &crews); err != nil {
		return nil, fmt.Errorf("fetch crews: %w", err)
	}
	return crews, nil
}

// ListZoneAffinities returns the crew zone affinities.
func (c *HTTPClient) ListZoneAffinities(ctx context.Context, businessID string) ([]model.ZoneAffinity, error) {
	var affs []model.ZoneAffinity
	path := fmt.Sprintf("/businesses/%s/zone-affinities", url.PathEscape(businessID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &affs); err != nil {
		return nil, fmt.Errorf("fetch zone affinities: %w", err)
	}
	return affs, nil
}

// UpdateJobAssignment pushes one crew assignment back to the platform.
func (c *HTTPClient) UpdateJobAssignment(ctx context.Context, externalJobID, externalCrewID string, arriveBy time.Time) error {
	body := map[string]any{
		"crew_id":   externalCrewID,
		"arrive_by": arriveBy.Format(time.RFC3339),
	}
	path := fmt.Sprintf("/jobs/%s/assignment", url.PathEscape(externalJobID))
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("update assignment for %s: %w", externalJobID, err)
	}
	return nil
}

// SetRoutePlanURL attaches the crew route link to a job.
func (c *HTTPClient) SetRoutePlanURL(ctx context.Context, externalJobID, routeURL string) error {
	body := map[string]any{"url": routeURL}
	path := fmt.Sprintf("/jobs/%s/route-url", url.PathEscape(externalJobID))
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("set route url for %s: %w", externalJobID, err)
	}
	return nil
}

// doJSON sends one request and decodes the JSON response into out when out is
// non-nil. Non-2xx statuses become errors carrying a response excerpt.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
