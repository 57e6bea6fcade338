package volcano

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"volcano-sdk/models"
)

func TestAuthErrorMessage(t *testing.T) {
	err := &AuthError{StatusCode: http.StatusUnauthorized, Message: "Invalid user credentials"}
	expected := "volcano auth error (status 401): Invalid user credentials"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}

	err = &AuthError{Message: "refresh token is empty"}
	expected = "volcano auth error: refresh token is empty"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NetworkError{Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected network error to unwrap to its cause")
	}
}

func TestErrorMatching(t *testing.T) {
	apiErr := models.NewAPIError("sessions", http.StatusConflict, []byte(`{"message": "taken"}`))
	wrapped := fmt.Errorf("creating session: %w", apiErr)

	if !IsAPIError(wrapped) {
		t.Error("expected IsAPIError to match through wrapping")
	}

	if IsAuthError(wrapped) {
		t.Error("expected IsAuthError not to match an api error")
	}

	if !IsAuthError(fmt.Errorf("login: %w", &AuthError{Message: "rejected"})) {
		t.Error("expected IsAuthError to match through wrapping")
	}

	if !IsValidationError(&models.ValidationError{Field: "network file", Message: "empty"}) {
		t.Error("expected IsValidationError to match")
	}

	if !IsNetworkError(&NetworkError{Err: errors.New("timeout")}) {
		t.Error("expected IsNetworkError to match")
	}
}
