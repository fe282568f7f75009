// Package geocode resolves free-text UK addresses through a Nominatim
// compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/models"
	"golang.org/x/time/rate"
)

// ErrStatus is returned when the geocoder answers with a non-2xx status.
var ErrStatus = errors.New("geocoder returned unexpected status")

// Place is one geocoding match.
type Place struct {
	Position    models.LatLng `json:"position"`
	DisplayName string        `json:"display_name"`
	Postcode    string        `json:"postcode,omitempty"`
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	UserAgent  string
	RatePerSec float64
	Timeout    time.Duration
}

// Client queries Nominatim. Requests are rate limited because the public
// instance allows at most one request per second per application.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	log       *logger.Logger
}

// nominatimAddress mirrors the address details we use.
type nominatimAddress struct {
	Postcode string `json:"postcode"`
}

// nominatimResponse mirrors the relevant parts of the OSM search payload.
type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}

// NewClient creates a geocoding client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	ratePerSec := cfg.RatePerSec
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), 1),
		log:       log,
	}
}

// Geocode returns up to limit places for query, restricted to Great Britain.
func (c *Client) Geocode(ctx context.Context, query string, limit int) ([]Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoder rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", query+", UK")
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("countrycodes", "gb")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoder request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var raw []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lng, lngErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lngErr != nil {
			c.log.Debug("Skipping geocoder result without usable coordinates", map[string]interface{}{
				"display_name": r.DisplayName,
			})
			continue
		}
		places = append(places, Place{
			Position:    models.LatLng{Lat: lat, Lng: lng},
			DisplayName: r.DisplayName,
			Postcode:    r.Address.Postcode,
		})
		if limit > 0 && len(places) == limit {
			break
		}
	}
	return places, nil
}
