// Package geolocate finds the caller's approximate position from their IP address.
package geolocate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rmitchellscott/nimbus/station"
)

// DefaultURL is ip-api.com, which is free for non-commercial use.
const DefaultURL = "http://ip-api.com/json/"

// Location represents geographic coordinates of the user
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
}

// Position returns the location as a station.Position.
func (l Location) Position() station.Position {
	return station.Position{Latitude: l.Latitude, Longitude: l.Longitude}
}

// Client queries an ip-api compatible endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a geolocation client for url. An empty url uses DefaultURL.
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("geolocate"),
	}
}

// Locate returns the position the service associates with the caller's IP.
func (c *Client) Locate(ctx context.Context) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Location{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Location{}, fmt.Errorf("failed to read response body: %w", err)
	}

	// Parse response from ip-api.com
	var result struct {
		Status      string  `json:"status"`
		Lat         float64 `json:"lat"`
		Lon         float64 `json:"lon"`
		City        string  `json:"city"`
		RegionName  string  `json:"regionName"`
		CountryName string  `json:"country"`
		Message     string  `json:"message"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return Location{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Status != "success" {
		return Location{}, fmt.Errorf("geolocation failed: %s", result.Message)
	}

	loc := Location{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		City:      result.City,
		Region:    result.RegionName,
		Country:   result.CountryName,
	}
	if !loc.Position().Valid() {
		return Location{}, fmt.Errorf("geolocation returned invalid coordinates: %.4f, %.4f", loc.Latitude, loc.Longitude)
	}

	c.logger.Debug("Located caller",
		zap.String("city", loc.City),
		zap.Float64("lat", loc.Latitude),
		zap.Float64("lon", loc.Longitude))

	return loc, nil
}
