// Package openrouteservice provides a directions client for the
// OpenRouteService API. Route geometry is decoded from the encoded
// polyline and split into per-instruction steps using the way-point
// index ranges ORS reports for each step.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/twpayne/go-polyline"

	"github.com/skateroute/skateroute/internal/provider/resilience"
	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/pkg/geo"
)

const (
	// ProviderName identifies this directions provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to ORS API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenRouteService API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OpenRouteService client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetDirections retrieves route candidates between two points.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	maxAlts := req.MaxAlternatives
	if maxAlts <= 0 {
		maxAlts = 2
	}

	orsReq := orsRequest{
		// ORS uses [lon, lat] order (GeoJSON)
		Coordinates: [][]float64{
			{req.Origin.Lon, req.Origin.Lat},
			{req.Destination.Lon, req.Destination.Lat},
		},
		AlternativeRoutes: &alternativeRoutesOpts{
			TargetCount: maxAlts + 1, // +1 because the first route is not counted as alternative
		},
		Instructions: true,
		Geometry:     true,
		Units:        "m",
		Language:     "en",
	}

	body, err := json.Marshal(orsReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, req.Profile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json, application/geo+json")

	c.logger.Debug().
		Str("profile", string(req.Profile)).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting directions from ORS")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach directions provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}

	var orsResp orsResponse
	if err := json.Unmarshal(respBody, &orsResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	result := c.toDirectionsResponse(&orsResp)

	c.logger.Debug().
		Int("route_count", len(result.Routes)).
		Msg("received directions from ORS")

	return result, nil
}

// toDirectionsResponse converts an ORS response to the domain model,
// decoding geometry and slicing it into per-instruction steps.
func (c *Client) toDirectionsResponse(orsResp *orsResponse) *routing.DirectionsResponse {
	routes := make([]routing.Route, 0, len(orsResp.Routes))

	for _, r := range orsResp.Routes {
		points := decodeGeometry(r.Geometry)

		var steps []routing.Step
		for _, seg := range r.Segments {
			for _, st := range seg.Steps {
				steps = append(steps, routing.Step{
					Points:          slicePoints(points, st.WayPoints),
					DistanceMeters:  st.Distance,
					DurationSeconds: st.Duration,
					Instruction:     st.Instruction,
				})
			}
		}

		routes = append(routes, routing.Route{
			Steps:           steps,
			DistanceMeters:  r.Summary.Distance,
			DurationSeconds: r.Summary.Duration,
			Summary:         summaryText(r),
		})
	}

	return &routing.DirectionsResponse{
		Routes:    routes,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}
}

// decodeGeometry decodes an ORS encoded polyline (precision 5) into coordinates.
func decodeGeometry(encoded string) []geo.Coordinate {
	if encoded == "" {
		return nil
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil
	}

	points := make([]geo.Coordinate, len(coords))
	for i, c := range coords {
		points[i] = geo.NewCoordinate(c[0], c[1])
	}
	return points
}

// slicePoints extracts the [start, end] way-point range from the route
// geometry. Out-of-range or malformed ranges yield an empty slice, which
// downstream treats as a degenerate step.
func slicePoints(points []geo.Coordinate, wayPoints []int) []geo.Coordinate {
	if len(wayPoints) != 2 {
		return nil
	}
	start, end := wayPoints[0], wayPoints[1]
	if start < 0 || end >= len(points) || start > end {
		return nil
	}
	out := make([]geo.Coordinate, end-start+1)
	copy(out, points[start:end+1])
	return out
}

func summaryText(r orsRoute) string {
	if len(r.Segments) > 0 && len(r.Segments[0].Steps) > 0 {
		return r.Segments[0].Steps[0].Name
	}
	return ""
}

// handleErrorResponse maps ORS error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var orsErr orsErrorResponse
	if err := json.Unmarshal(body, &orsErr); err != nil {
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("directions provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case http.StatusForbidden:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	case http.StatusNotFound:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	case http.StatusBadRequest:
		if orsErr.Error.Code == orsErrorCodeNotFound {
			return &routing.Error{
				Provider: ProviderName,
				Code:     "NO_ROUTE",
				Message:  orsErr.Error.Message,
				Err:      routing.ErrNoRouteFound,
			}
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  orsErr.Error.Message,
			Err:      routing.ErrInvalidCoordinates,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  orsErr.Error.Message,
			Err:      routing.ErrProviderUnavailable,
		}
	}
}
