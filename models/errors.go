package models

import (
	"encoding/json"
	"fmt"
)

// APIError represents an error response from the Volcano API
type APIError struct {
	StatusCode int
	Resource   string
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s. (%s)", msg, e.Detail)
	}
	if e.Resource != "" {
		return fmt.Sprintf("volcano api error on %s (status %d): %s", e.Resource, e.StatusCode, msg)
	}
	return fmt.Sprintf("volcano api error (status %d): %s", e.StatusCode, msg)
}

// ValidationError represents a client-side validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// errorBody is the error payload shape returned by the Volcano API.
// Some endpoints report the failing value under params.parameter
// instead of a top-level message.
type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Params  struct {
		Parameter string `json:"parameter"`
	} `json:"params"`
}

// NewAPIError builds an APIError from a raw response body, extracting
// the server message the same way for every endpoint.
func NewAPIError(resource string, statusCode int, body []byte) *APIError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	message := eb.Message
	if message == "" {
		message = eb.Params.Parameter
	}
	if message == "" {
		message = "Unknown error"
	}

	return &APIError{
		StatusCode: statusCode,
		Resource:   resource,
		Message:    message,
		Detail:     eb.Detail,
	}
}
