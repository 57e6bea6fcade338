package volcano

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// staticTokenSource is a TokenSource stub for client tests
type staticTokenSource struct {
	token       string
	refreshed   int
	invalidated int
}

func (ts *staticTokenSource) Token(ctx context.Context) (string, error) {
	return ts.token, nil
}

func (ts *staticTokenSource) Refresh(ctx context.Context) error {
	ts.refreshed++
	ts.token = "fresh-token"
	return nil
}

func (ts *staticTokenSource) Invalidate() {
	ts.invalidated++
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://volcano.example.com/")

	if client.baseURL != "http://volcano.example.com" {
		t.Errorf("expected baseURL to be 'http://volcano.example.com', got %s", client.baseURL)
	}

	if client.timeout != 30*time.Second {
		t.Errorf("expected default timeout to be 30s, got %v", client.timeout)
	}

	if client.httpClient == nil {
		t.Error("expected httpClient to be initialized")
	}

	if client.headers == nil {
		t.Error("expected headers map to be initialized")
	}

	if client.retryConfig.MaxRetries != 3 {
		t.Errorf("expected default MaxRetries to be 3, got %d", client.retryConfig.MaxRetries)
	}

	if client.retryConfig.RetryDelay != time.Second {
		t.Errorf("expected default RetryDelay to be 1s, got %v", client.retryConfig.RetryDelay)
	}

	if client.MapData == nil || client.Antennas == nil || client.Sessions == nil || client.Models == nil {
		t.Error("expected resource services to be initialized")
	}

	if client.Simulations == nil || client.Predictions == nil || client.Results == nil || client.Maintenance == nil {
		t.Error("expected simulation services to be initialized")
	}
}

func TestNewClient_EmptyURL(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected NewClient to panic on empty server URL")
		}
	}()

	NewClient("")
}

func TestClientOptions(t *testing.T) {
	client := NewClient("http://volcano.example.com",
		WithTimeout(60*time.Second),
		WithHeader("X-Custom", "value"),
	)

	if client.timeout != 60*time.Second {
		t.Errorf("expected timeout to be 60s, got %v", client.timeout)
	}

	if client.httpClient.Timeout != 60*time.Second {
		t.Errorf("expected http client timeout to be 60s, got %v", client.httpClient.Timeout)
	}

	if client.headers["X-Custom"] != "value" {
		t.Errorf("expected X-Custom header to be 'value', got %s", client.headers["X-Custom"])
	}
}

func TestWithHeaders(t *testing.T) {
	client := NewClient("http://volcano.example.com",
		WithHeaders(map[string]string{
			"X-First":  "one",
			"X-Second": "two",
		}),
	)

	if client.headers["X-First"] != "one" {
		t.Errorf("expected X-First header to be 'one', got %s", client.headers["X-First"])
	}

	if client.headers["X-Second"] != "two" {
		t.Errorf("expected X-Second header to be 'two', got %s", client.headers["X-Second"])
	}
}

func TestWithRetryConfig(t *testing.T) {
	client := NewClient("http://volcano.example.com",
		WithRetryConfig(&RetryConfig{
			MaxRetries: 5,
			RetryDelay: 2 * time.Second,
		}),
	)

	if client.retryConfig.MaxRetries != 5 {
		t.Errorf("expected MaxRetries to be 5, got %d", client.retryConfig.MaxRetries)
	}

	if client.retryConfig.RetryDelay != 2*time.Second {
		t.Errorf("expected RetryDelay to be 2s, got %v", client.retryConfig.RetryDelay)
	}
}

func TestWithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: 5 * time.Second}
	client := NewClient("http://volcano.example.com", WithHTTPClient(custom))

	if client.httpClient != custom {
		t.Error("expected custom http client to be used")
	}
}

func TestResourcePath(t *testing.T) {
	tests := []struct {
		name     string
		opts     []ClientOption
		expected string
	}{
		{
			name:     "no authentication",
			opts:     nil,
			expected: "/mapdata",
		},
		{
			name:     "authenticated without public predictions",
			opts:     []ClientOption{WithTokenSource(&staticTokenSource{token: "tok"})},
			expected: "/mapdata",
		},
		{
			name: "authenticated with public predictions",
			opts: []ClientOption{
				WithTokenSource(&staticTokenSource{token: "tok"}),
				WithPublicPredictions(true),
			},
			expected: "/mapdata/public",
		},
		{
			name:     "public predictions without authentication",
			opts:     []ClientOption{WithPublicPredictions(true)},
			expected: "/mapdata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient("http://volcano.example.com", tt.opts...)
			if got := client.ResourcePath("mapdata"); got != tt.expected {
				t.Errorf("expected path %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestNewRequest(t *testing.T) {
	client := NewClient("http://volcano.example.com",
		WithTokenSource(&staticTokenSource{token: "test-token"}),
		WithHeader("X-Custom", "value"),
	)

	req, err := client.NewRequest(context.Background(), "GET", "/sessions", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.URL.String() != "http://volcano.example.com/sessions" {
		t.Errorf("expected URL to be 'http://volcano.example.com/sessions', got %s", req.URL.String())
	}

	// Check auth header
	if auth := req.Header.Get("Authorization"); auth != "Bearer test-token" {
		t.Errorf("expected Authorization header to be 'Bearer test-token', got %s", auth)
	}

	// Check default headers
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type to be 'application/json', got %s", ct)
	}

	if accept := req.Header.Get("Accept"); accept != "application/json" {
		t.Errorf("expected Accept to be 'application/json', got %s", accept)
	}

	// Check custom header
	if custom := req.Header.Get("X-Custom"); custom != "value" {
		t.Errorf("expected X-Custom header to be 'value', got %s", custom)
	}
}

func TestNewRequest_NoAuth(t *testing.T) {
	client := NewClient("http://volcano.example.com")

	req, err := client.NewRequest(context.Background(), "GET", "/sessions", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if auth := req.Header.Get("Authorization"); auth != "" {
		t.Errorf("expected no Authorization header, got %s", auth)
	}
}

func TestDo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	req, _ := client.NewRequest(context.Background(), "GET", "/test", nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestDo_RetryOn5xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL,
		WithRetryConfig(&RetryConfig{
			MaxRetries: 3,
			RetryDelay: 10 * time.Millisecond,
		}),
	)

	req, _ := client.NewRequest(context.Background(), "GET", "/test", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDo_NoRetryOn4xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL,
		WithRetryConfig(&RetryConfig{
			MaxRetries: 3,
			RetryDelay: 10 * time.Millisecond,
		}),
	)

	req, _ := client.NewRequest(context.Background(), "GET", "/test", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_RefreshOn403(t *testing.T) {
	attempts := 0
	var lastAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		lastAuth = r.Header.Get("Authorization")
		if lastAuth == "Bearer stale-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tokens := &staticTokenSource{token: "stale-token"}
	client := NewClient(server.URL, WithTokenSource(tokens))

	req, _ := client.NewRequest(context.Background(), "GET", "/test", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200 after refresh, got %d", resp.StatusCode)
	}

	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}

	if tokens.invalidated != 1 {
		t.Errorf("expected 1 invalidation, got %d", tokens.invalidated)
	}

	if tokens.refreshed != 1 {
		t.Errorf("expected 1 refresh, got %d", tokens.refreshed)
	}

	if lastAuth != "Bearer fresh-token" {
		t.Errorf("expected replay to carry 'Bearer fresh-token', got %s", lastAuth)
	}
}

func TestDo_RefreshOnlyOnce(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	tokens := &staticTokenSource{token: "stale-token"}
	client := NewClient(server.URL, WithTokenSource(tokens))

	req, _ := client.NewRequest(context.Background(), "GET", "/test", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	// The second 403 is returned to the caller instead of looping
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", resp.StatusCode)
	}

	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}

	if tokens.refreshed != 1 {
		t.Errorf("expected 1 refresh, got %d", tokens.refreshed)
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := NewClient(serverURL,
		WithRetryConfig(&RetryConfig{
			MaxRetries: 1,
			RetryDelay: time.Millisecond,
		}),
	)

	req, _ := client.NewRequest(context.Background(), "GET", "/test", nil)
	_, err := client.Do(req)
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}

	if !IsNetworkError(err) {
		t.Errorf("expected a network error, got %v", err)
	}
}
