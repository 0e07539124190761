package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/heat-emissions/internal/domain"
	"github.com/couchcryptid/heat-emissions/internal/observability"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"

	methodGeocode  = "geocode"
	methodForecast = "forecast"
)

// Client implements domain.Geocoder and domain.Forecaster using the
// Open-Meteo geocoding and forecast APIs.
type Client struct {
	httpClient   *http.Client
	geocodingURL string
	forecastURL  string
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates an Open-Meteo client. Empty URLs select the public endpoints.
func NewClient(geocodingURL, forecastURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if geocodingURL == "" {
		geocodingURL = DefaultGeocodingURL
	}
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		geocodingURL: geocodingURL,
		forecastURL:  forecastURL,
		metrics:      metrics,
		logger:       logger,
	}
}

// Geocode resolves a place name to the coordinates of the best match.
// An empty result set is not an error: Found is false.
func (c *Client) Geocode(ctx context.Context, place string) (domain.GeocodingResult, error) {
	params := url.Values{
		"name":     {place},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	}

	var resp geocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL+"?"+params.Encode(), methodGeocode, &resp); err != nil {
		return domain.GeocodingResult{}, err
	}

	if len(resp.Results) == 0 {
		c.observe(methodGeocode, "empty")
		return domain.GeocodingResult{}, nil
	}
	c.observe(methodGeocode, "success")

	r := resp.Results[0]
	return domain.GeocodingResult{
		Coordinates: domain.Coordinates{Lat: r.Latitude, Lon: r.Longitude},
		Name:        r.Name,
		Found:       true,
	}, nil
}

// CurrentTemperature returns the current 2 m air temperature in °C.
func (c *Client) CurrentTemperature(ctx context.Context, at domain.Coordinates) (float64, error) {
	params := url.Values{
		"latitude":  {strconv.FormatFloat(at.Lat, 'f', 4, 64)},
		"longitude": {strconv.FormatFloat(at.Lon, 'f', 4, 64)},
		"current":   {"temperature_2m"},
	}

	var resp forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"?"+params.Encode(), methodForecast, &resp); err != nil {
		return 0, err
	}
	if resp.Current.Temperature == nil {
		c.observe(methodForecast, "empty")
		return 0, fmt.Errorf("forecast response has no current temperature")
	}
	c.observe(methodForecast, "success")
	return *resp.Current.Temperature, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL, method string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.LookupAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.observe(method, "error")
		return fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.observe(method, "error")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.observe(method, "error")
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	c.logger.Debug("open-meteo request complete", "method", method, "duration", time.Since(start))
	return nil
}

func (c *Client) observe(method, outcome string) {
	if c.metrics != nil {
		c.metrics.LookupRequests.WithLabelValues(method, outcome).Inc()
	}
}

// Open-Meteo API response types.

type geocodingResponse struct {
	Results []place `json:"results"`
}

type place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
}

type forecastResponse struct {
	Current struct {
		Time        string   `json:"time"`
		Temperature *float64 `json:"temperature_2m"`
	} `json:"current"`
}
