package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"groq-chatbot/internal/models"
)

// Client talks to the research-agent HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the research agent at baseURL. The timeout is
// generous because a research call runs a full agent loop server-side.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Research posts a query and returns the decoded JSON body. The body is
// returned as-is, whatever its shape; deciding what to display from it is
// the caller's concern. A non-2xx status is an error carrying the status
// code and the verbatim body text.
func (c *Client) Research(ctx context.Context, query string) (any, error) {
	body, err := json.Marshal(models.ResearchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/research", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("research request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("research request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return data, nil
}

// Health probes the liveness endpoint at the API root.
func (c *Client) Health(ctx context.Context) (models.HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return models.HealthStatus{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.HealthStatus{}, fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.HealthStatus{}, fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	var status models.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return models.HealthStatus{}, fmt.Errorf("failed to decode health response: %w", err)
	}
	return status, nil
}
