package volcano

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"volcano-sdk/services"
)

// ClientOption is a function that configures a VolcanoClient
type ClientOption func(*VolcanoClient)

// VolcanoClient is the main client for interacting with the Volcano
// simulation API. After creation, the client is immutable and safe for
// concurrent use.
type VolcanoClient struct {
	baseURL    string
	httpClient *http.Client

	// Custom headers to include in all requests
	headers map[string]string

	// Bearer token provider; nil when the server does not require
	// authentication
	tokens TokenSource

	// Route resource creation through the public prediction endpoints
	publicPredictions bool

	timeout     time.Duration
	retryConfig *RetryConfig

	// Service groups
	MapData     *services.MapDataService
	Antennas    *services.AntennaService
	Sessions    *services.SessionService
	Models      *services.PropagationModelService
	Simulations *services.SimulationService
	Predictions *services.PredictionService
	Results     *services.ResultService
	Maintenance *services.MaintenanceService
}

// RetryConfig configures retry behavior for failed requests
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// NewClient creates a new VolcanoClient for the given server URL
func NewClient(serverURL string, opts ...ClientOption) *VolcanoClient {
	if serverURL == "" {
		panic("server URL is not set. Please set serverUrl in the input configuration")
	}

	client := &VolcanoClient{
		baseURL: strings.TrimRight(serverURL, "/"),
		headers: make(map[string]string),
		timeout: 30 * time.Second,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryConfig: &RetryConfig{
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
	}

	// Apply options
	for _, opt := range opts {
		opt(client)
	}

	// Initialize services
	client.MapData = services.NewMapDataService(client)
	client.Antennas = services.NewAntennaService(client)
	client.Sessions = services.NewSessionService(client)
	client.Models = services.NewPropagationModelService(client)
	client.Simulations = services.NewSimulationService(client)
	client.Predictions = services.NewPredictionService(client)
	client.Results = services.NewResultService(client)
	client.Maintenance = services.NewMaintenanceService(client)

	return client
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *VolcanoClient) {
		c.timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithRetryConfig sets the retry configuration
func WithRetryConfig(config *RetryConfig) ClientOption {
	return func(c *VolcanoClient) {
		c.retryConfig = config
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *VolcanoClient) {
		c.httpClient = httpClient
	}
}

// WithHeader adds a custom header that will be included in all requests
func WithHeader(key, value string) ClientOption {
	return func(c *VolcanoClient) {
		c.headers[key] = value
	}
}

// WithHeaders adds multiple custom headers that will be included in all requests
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *VolcanoClient) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithTokenSource sets the token source used to authenticate requests
func WithTokenSource(tokens TokenSource) ClientOption {
	return func(c *VolcanoClient) {
		c.tokens = tokens
	}
}

// WithPublicPredictions routes resource creation through the public
// prediction endpoints of an authenticated server
func WithPublicPredictions(enabled bool) ClientOption {
	return func(c *VolcanoClient) {
		c.publicPredictions = enabled
	}
}

// GetBaseURL returns the configured base URL
func (c *VolcanoClient) GetBaseURL() string {
	return c.baseURL
}

// ResourcePath returns the request path for a creation resource,
// routed to its public variant when enabled
func (c *VolcanoClient) ResourcePath(resource string) string {
	if c.tokens != nil && c.publicPredictions {
		return fmt.Sprintf("/%s/public", resource)
	}
	return "/" + resource
}

// NewRequest creates a new HTTP request with auth headers and custom headers
func (c *VolcanoClient) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set auth header when the server requires authentication
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// Set default headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// Set custom headers
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// Do executes an HTTP request with retry logic. An expired access
// token (HTTP 403) is refreshed once and the request replayed.
func (c *VolcanoClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.doWithRetry(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusForbidden && c.tokens != nil {
		resp.Body.Close()
		c.tokens.Invalidate()
		if err := c.tokens.Refresh(req.Context()); err != nil {
			return nil, err
		}

		replay, err := cloneRequest(req)
		if err != nil {
			return nil, err
		}
		token, err := c.tokens.Token(req.Context())
		if err != nil {
			return nil, err
		}
		replay.Header.Set("Authorization", "Bearer "+token)
		return c.doWithRetry(replay)
	}

	return resp, nil
}

func (c *VolcanoClient) doWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		attemptReq := req
		if attempt > 0 {
			if resp != nil {
				resp.Body.Close()
			}
			attemptReq, err = cloneRequest(req)
			if err != nil {
				return nil, err
			}
		}

		resp, err = c.httpClient.Do(attemptReq)

		// Success or non-retryable error
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		// Don't sleep on last attempt
		if attempt < c.retryConfig.MaxRetries {
			time.Sleep(c.retryConfig.RetryDelay * time.Duration(attempt+1))
		}
	}

	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

// cloneRequest duplicates a request so it can be sent again. Requests
// built from in-memory bodies carry a GetBody that rewinds them.
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.GetBody == nil {
		return clone, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}
