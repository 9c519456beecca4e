package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/provider/resilience"
	"github.com/skateroute/skateroute/pkg/geo"
)

const (
	// ClientProviderName identifies the elevation provider in logs and
	// breaker metrics.
	ClientProviderName = "open-elevation"

	// DefaultClientBaseURL is the public Open-Elevation endpoint.
	DefaultClientBaseURL = "https://api.open-elevation.com"
)

// HTTPDoer performs HTTP requests. Satisfied by *resilience.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the elevation client.
type ClientConfig struct {
	// BaseURL is the elevation service base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client samples elevations from an Open-Elevation compatible API.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new elevation client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultClientBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ClientProviderName))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return ClientProviderName
}

type lookupLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation,omitempty"`
}

type lookupRequest struct {
	Locations []lookupLocation `json:"locations"`
}

type lookupResponse struct {
	Results []lookupLocation `json:"results"`
}

// Elevations returns the elevation in meters for each point, in order.
func (c *Client) Elevations(ctx context.Context, points []geo.Coordinate) ([]float64, error) {
	if len(points) == 0 {
		return nil, nil
	}

	reqBody := lookupRequest{Locations: make([]lookupLocation, len(points))}
	for i, p := range points {
		reqBody.Locations[i] = lookupLocation{Latitude: p.Lat, Longitude: p.Lon}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling elevation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/lookup", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating elevation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevation request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevation service returned status %d", resp.StatusCode)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding elevation response: %w", err)
	}

	if len(decoded.Results) != len(points) {
		return nil, fmt.Errorf("elevation service returned %d results for %d points", len(decoded.Results), len(points))
	}

	elevations := make([]float64, len(decoded.Results))
	for i, r := range decoded.Results {
		elevations[i] = r.Elevation
	}
	return elevations, nil
}
