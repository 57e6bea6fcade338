// Package services provides the resource services for Volcano API
// operations.
//
// Each service wraps one endpoint group behind the narrow
// ClientInterface so that services stay testable against a stub
// client. Upload endpoints share the multipart form layout expected by
// the server: a "json" part carrying the resource definition plus
// optional file parts.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"volcano-sdk/models"
)

// ClientInterface defines the methods needed from VolcanoClient
type ClientInterface interface {
	NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error)
	Do(req *http.Request) (*http.Response, error)
	GetBaseURL() string
	ResourcePath(resource string) string
}

// decodeJSON decodes a response body into dst
func decodeJSON(resp *http.Response, dst any) error {
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiError drains the response body into a typed error for the given
// resource
func apiError(resource string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return models.NewAPIError(resource, resp.StatusCode, body)
}

// filePart is one file attached to a multipart upload
type filePart struct {
	field       string
	filename    string
	contentType string
	content     io.Reader
}

// multipartBody assembles the upload form: the payload marshaled into
// a "json" part followed by the given file parts. Parts without a
// content type are written with the bare disposition header.
func multipartBody(payload any, files ...filePart) (*bytes.Buffer, string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="json"`)
	header.Set("Content-Type", "application/json")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		if f.contentType != "" {
			header.Set("Content-Type", f.contentType)
		}
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.content); err != nil {
			return nil, "", fmt.Errorf("failed to write %s part: %w", f.field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// checkDuplicates fails when two declarations share a name but differ
// in content. Exact duplicates are tolerated.
func checkDuplicates[T any](resource string, items []T, name func(T) string) error {
	seen := make(map[string]string, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", resource, err)
		}
		n := name(item)
		if prev, ok := seen[n]; ok && prev != string(data) {
			return &models.ValidationError{
				Field:   resource,
				Message: fmt.Sprintf("two %s entries named %q have different contents", resource, n),
			}
		}
		seen[n] = string(data)
	}
	return nil
}
