package volcano

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Credentials holds the password grant parameters for the Volcano
// authentication endpoint
type Credentials struct {
	TokenURL     string `json:"url" yaml:"url"`
	ClientID     string `json:"clientId" yaml:"clientId"`
	ClientSecret string `json:"clientSecret" yaml:"clientSecret"`
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"password" yaml:"password"`
}

// TokenSource provides bearer tokens for API requests
type TokenSource interface {
	// Token returns a cached access token, fetching one if needed
	Token(ctx context.Context) (string, error)
	// Refresh exchanges the cached refresh token for a new token pair
	Refresh(ctx context.Context) error
	// Invalidate drops the cached access token
	Invalidate()
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// PasswordTokenSource exchanges user credentials for bearer tokens and
// keeps the token pair cached. Safe for concurrent use.
type PasswordTokenSource struct {
	creds      Credentials
	httpClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewPasswordTokenSource creates a token source for the given credentials
func NewPasswordTokenSource(creds Credentials) *PasswordTokenSource {
	return &PasswordTokenSource{
		creds: creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Token returns the cached access token, performing the password grant
// on first use
func (ts *PasswordTokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.accessToken != "" {
		return ts.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {ts.creds.ClientID},
		"client_secret": {ts.creds.ClientSecret},
		"username":      {ts.creds.Username},
		"password":      {ts.creds.Password},
	}

	if err := ts.grant(ctx, form); err != nil {
		return "", err
	}
	return ts.accessToken, nil
}

// Refresh exchanges the cached refresh token for a new token pair
func (ts *PasswordTokenSource) Refresh(ctx context.Context) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.refreshToken == "" {
		return &AuthError{Message: "refresh token is empty"}
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {ts.creds.ClientID},
		"client_secret": {ts.creds.ClientSecret},
		"refresh_token": {ts.refreshToken},
	}

	return ts.grant(ctx, form)
}

// Invalidate drops the cached access token so the next Token call
// fetches a fresh one
func (ts *PasswordTokenSource) Invalidate() {
	ts.mu.Lock()
	ts.accessToken = ""
	ts.mu.Unlock()
}

// grant posts a form-encoded grant request to the token endpoint and
// caches the returned token pair. Callers must hold ts.mu.
func (ts *PasswordTokenSource) grant(ctx context.Context, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.creds.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &AuthError{Message: "failed to create token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return &AuthError{Message: fmt.Sprintf("token endpoint unreachable: %s", ts.creds.TokenURL), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{StatusCode: resp.StatusCode, Message: "failed to read token response", Err: err}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return &AuthError{StatusCode: resp.StatusCode, Message: "malformed token response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		message := tr.ErrorDescription
		if message == "" {
			message = tr.ErrorCode
		}
		if message == "" {
			message = "token request rejected"
		}
		return &AuthError{StatusCode: resp.StatusCode, Message: message}
	}

	if tr.AccessToken == "" {
		return &AuthError{StatusCode: resp.StatusCode, Message: "token response without access_token"}
	}

	ts.accessToken = tr.AccessToken
	ts.refreshToken = tr.RefreshToken
	return nil
}
