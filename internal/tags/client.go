package tags

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/provider/resilience"
	"github.com/skateroute/skateroute/internal/routing"
)

const (
	// ClientProviderName identifies the HTTP attribute provider.
	ClientProviderName = "attribute-service"

	// DefaultClientTimeout is the default request timeout.
	DefaultClientTimeout = 5 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the attribute-service client.
type ClientConfig struct {
	// BaseURL is the attribute service base URL (required).
	BaseURL string

	// APIKey authenticates requests (optional).
	APIKey string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches step attributes from an HTTP attribute service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new attribute-service client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ClientProviderName)
		clientCfg.Timeout = DefaultClientTimeout
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ClientProviderName
}

// Tags fetches the attributes for one step of a route.
func (c *Client) Tags(ctx context.Context, routeID routing.RouteID, stepIndex int) (StepTags, error) {
	url := fmt.Sprintf("%s/v1/routes/%s/steps/%d/tags", c.baseURL, routeID, stepIndex)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StepTags{}, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StepTags{}, fmt.Errorf("%w: %s", ErrTagsUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StepTags{}, fmt.Errorf("%w: status %d", ErrTagsUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return StepTags{}, fmt.Errorf("reading response body: %w", err)
	}

	var t StepTags
	if err := json.Unmarshal(body, &t); err != nil {
		return StepTags{}, fmt.Errorf("decoding tags: %w", err)
	}

	return t, nil
}
