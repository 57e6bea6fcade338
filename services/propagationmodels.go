package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"volcano-sdk/models"
)

type PropagationModelService struct {
	client ClientInterface
}

func NewPropagationModelService(client ClientInterface) *PropagationModelService {
	return &PropagationModelService{
		client: client,
	}
}

// Create declares every propagation model in the session and returns
// the name to uuid index. A model either embeds a typed definition or
// uploads a vxf calibration file, never both.
func (s *PropagationModelService) Create(ctx context.Context, list []*models.PropagationModel, mapdata map[string]string, sessionUUID string) (map[string]string, error) {
	index := make(map[string]string, len(list))
	for _, m := range list {
		if m.UUID == "" {
			m.UUID = uuid.NewString()
		}
		if m.MapDataName != "" {
			id, ok := mapdata[m.MapDataName]
			if !ok {
				return nil, &models.ValidationError{
					Field:   "models",
					Message: fmt.Sprintf("model %s references mapdata %q which is not declared in the input configuration", m.Name, m.MapDataName),
				}
			}
			m.MapDataUUID = id
			// the wire carries the uuid only
			m.MapDataName = ""
		}
		m.SessionUUID = sessionUUID

		id, err := s.create(ctx, m)
		if err != nil {
			return nil, err
		}
		m.UUID = id
		index[m.Name] = id
	}
	return index, nil
}

func (s *PropagationModelService) create(ctx context.Context, m *models.PropagationModel) (string, error) {
	hasVxf := m.VxfFilePath != ""
	hasType := m.Type != ""
	if hasVxf == hasType {
		return "", &models.ValidationError{
			Field:   "models",
			Message: fmt.Sprintf("model %s must declare exactly one of vxfFilePath or type", m.Name),
		}
	}

	var req *http.Request
	if hasVxf {
		f, err := os.Open(m.VxfFilePath)
		if err != nil {
			return "", fmt.Errorf("failed to open vxf file %s: %w", m.VxfFilePath, err)
		}
		defer f.Close()

		body, contentType, err := multipartBody(m, filePart{
			field:    "data",
			filename: filepath.Base(m.VxfFilePath),
			content:  f,
		})
		if err != nil {
			return "", err
		}
		req, err = s.client.NewRequest(ctx, "POST", s.client.ResourcePath("propagationmodels"), body)
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", contentType)
	} else {
		payload, err := json.Marshal(m)
		if err != nil {
			return "", fmt.Errorf("failed to marshal model %s: %w", m.Name, err)
		}
		req, err = s.client.NewRequest(ctx, "POST", s.client.ResourcePath("propagationmodels"), bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNotAcceptable:
	default:
		return "", apiError("propagationmodels", resp)
	}

	var result struct {
		UUID string `json:"uuid"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}
	if result.UUID == "" {
		result.UUID = m.UUID
	}
	return result.UUID, nil
}

// Find looks a model up by name among the models of a session
func (s *PropagationModelService) Find(ctx context.Context, sessionUUID, name string) (*models.PropagationModel, error) {
	path := "/propagationmodels?sessionid=" + url.QueryEscape(sessionUUID)
	req, err := s.client.NewRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("propagationmodels", resp)
	}
	var list []*models.PropagationModel
	if err := decodeJSON(resp, &list); err != nil {
		return nil, err
	}
	for _, m := range list {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, &models.APIError{
		StatusCode: http.StatusNotFound,
		Resource:   "propagationmodels",
		Message:    fmt.Sprintf("model %s does not exist in the session", name),
	}
}
