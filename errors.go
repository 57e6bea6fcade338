package volcano

import (
	"errors"
	"fmt"

	"volcano-sdk/models"
)

// APIError represents an error response from the Volcano API.
// Constructed by the services package, re-exported here so callers can
// match errors without importing models.
type APIError = models.APIError

// ValidationError represents a client-side validation error
type ValidationError = models.ValidationError

// AuthError represents an authentication or token refresh failure
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("volcano auth error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("volcano auth error: %s", e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NetworkError represents a network-level error
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an AuthError
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsAPIError reports whether err is an APIError
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNetworkError reports whether err is a NetworkError
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
