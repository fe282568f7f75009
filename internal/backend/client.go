// Package backend talks to the dashboard backend API, which owns tracked
// properties and proxies the regional HMO registries.
package backend

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

	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/models"
)

// Backend errors
var (
	ErrStatus       = errors.New("backend returned unexpected status")
	ErrUnsuccessful = errors.New("backend reported failure")
)

// maxErrorBody caps how much of an error response is kept for the error message.
const maxErrorBody = 512

// Client is an HTTP client for the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// ListProperties fetches the full tracked property list (GET /properties).
func (c *Client) ListProperties(ctx context.Context) ([]models.Property, error) {
	var props []models.Property
	if err := c.getJSON(ctx, "/properties", nil, &props); err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	if props == nil {
		props = []models.Property{}
	}

	c.log.Debug("Fetched tracked properties", map[string]interface{}{
		"count": len(props),
	})
	return props, nil
}

// FetchRegion fetches one region's registry
// (GET /hmo-registry/cities/{region}?enable_geocoding=true).
func (c *Client) FetchRegion(ctx context.Context, region string) (*models.RegionPayload, error) {
	query := url.Values{}
	query.Set("enable_geocoding", "true")

	var payload models.RegionPayload
	if err := c.getJSON(ctx, "/hmo-registry/cities/"+url.PathEscape(region), query, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch registry for %s: %w", region, err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("%w: registry for %s", ErrUnsuccessful, region)
	}
	return &payload, nil
}

// Ping checks that the backend is reachable. Any response below 500 counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("Backend request completed", map[string]interface{}{
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
