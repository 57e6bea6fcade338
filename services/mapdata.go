package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/google/uuid"

	"volcano-sdk/models"
)

type MapDataService struct {
	client ClientInterface
}

func NewMapDataService(client ClientInterface) *MapDataService {
	return &MapDataService{
		client: client,
	}
}

// mapDataPayload is the wire form of a dataset declaration, the
// projection code travels as sridEpsg
type mapDataPayload struct {
	UUID     string   `json:"uuid"`
	Name     string   `json:"name"`
	SridEPSG int      `json:"sridEpsg"`
	Layers   []string `json:"layers"`
}

// Create declares every map dataset on the server and returns the
// name to uuid index. A dataset that already exists is reused after
// checking that its layers match the declared ones.
func (s *MapDataService) Create(ctx context.Context, datasets []*models.MapData) (map[string]string, error) {
	err := checkDuplicates("mapdata", datasets, func(m *models.MapData) string { return m.Name })
	if err != nil {
		return nil, err
	}

	index := make(map[string]string, len(datasets))
	for _, m := range datasets {
		if m.UUID == "" {
			m.UUID = uuid.NewString()
		}
		id, err := s.create(ctx, m)
		if err != nil {
			return nil, err
		}
		m.UUID = id
		index[m.Name] = id
	}
	return index, nil
}

func (s *MapDataService) create(ctx context.Context, m *models.MapData) (string, error) {
	payload, err := json.Marshal(mapDataPayload{
		UUID:     m.UUID,
		Name:     m.Name,
		SridEPSG: m.EPSGSrid,
		Layers:   m.Layers,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal mapdata %s: %w", m.Name, err)
	}

	req, err := s.client.NewRequest(ctx, "POST", s.client.ResourcePath("mapdata"), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		UUID string `json:"uuid"`
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if err := decodeJSON(resp, &result); err != nil {
			return "", err
		}
	case http.StatusNotAcceptable:
		// name already taken, reuse the entity if its layers match
		if err := decodeJSON(resp, &result); err != nil {
			return "", err
		}
		existingID := result.UUID
		if existingID == "" {
			existingID = m.UUID
		}
		existing, err := s.Get(ctx, existingID)
		if err != nil {
			return "", err
		}
		if !slices.Equal(existing.Layers, m.Layers) {
			return "", &models.ValidationError{
				Field:   "mapdata",
				Message: fmt.Sprintf("mapdata %s layers differ from the dataset already on the server", m.Name),
			}
		}
		result.UUID = existing.UUID
	default:
		return "", apiError("mapdata", resp)
	}

	if result.UUID == "" {
		result.UUID = m.UUID
	}
	return result.UUID, nil
}

// Get fetches one map dataset by uuid
func (s *MapDataService) Get(ctx context.Context, id string) (*models.MapData, error) {
	req, err := s.client.NewRequest(ctx, "GET", "/mapdata/"+id, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("mapdata", resp)
	}
	var payload mapDataPayload
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	return &models.MapData{
		UUID:     payload.UUID,
		Name:     payload.Name,
		EPSGSrid: payload.SridEPSG,
		Layers:   payload.Layers,
	}, nil
}
