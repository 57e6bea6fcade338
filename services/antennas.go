// Package services provides the antenna service for Volcano API
// operations.
//
// This file implements the AntennaService which uploads antenna
// pattern files and declares the 5G beam groups (gobs) built from
// them. Both resource kinds share one name to uuid index because the
// network file references them interchangeably.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"volcano-sdk/models"
)

type AntennaService struct {
	client ClientInterface
}

func NewAntennaService(client ClientInterface) *AntennaService {
	return &AntennaService{
		client: client,
	}
}

// Create uploads every antenna pattern file and returns the name to
// uuid index, together with the names the server already knew
func (s *AntennaService) Create(ctx context.Context, antennas []*models.Antenna) (map[string]string, []string, error) {
	err := checkDuplicates("antennas", antennas, func(a *models.Antenna) string { return a.Name })
	if err != nil {
		return nil, nil, err
	}

	index := make(map[string]string, len(antennas))
	var existing []string
	for _, a := range antennas {
		if a.UUID == "" {
			a.UUID = uuid.NewString()
		}
		id, known, err := s.upload(ctx, a)
		if err != nil {
			return nil, nil, err
		}
		if known {
			existing = append(existing, a.Name)
		}
		a.UUID = id
		index[a.Name] = id
	}
	return index, existing, nil
}

func (s *AntennaService) upload(ctx context.Context, a *models.Antenna) (string, bool, error) {
	f, err := os.Open(a.AntennaFile)
	if err != nil {
		return "", false, fmt.Errorf("failed to open antenna file %s: %w", a.AntennaFile, err)
	}
	defer f.Close()

	body, contentType, err := multipartBody(a, filePart{
		field:       "data",
		filename:    filepath.Base(a.AntennaFile),
		contentType: "text/xml",
		content:     f,
	})
	if err != nil {
		return "", false, err
	}

	req, err := s.client.NewRequest(ctx, "POST", s.client.ResourcePath("antennas"), body)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	known := false
	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusAccepted:
		known = true
	default:
		return "", false, apiError("antennas", resp)
	}

	var result struct {
		UUID string `json:"uuid"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return "", false, err
	}
	if result.UUID == "" {
		result.UUID = a.UUID
	}
	return result.UUID, known, nil
}

// CreateGobs declares the beam groups used by 5G computations. Beam
// names resolve against the antennas created beforehand, and the
// returned index extends the antenna lookup used by network rows.
func (s *AntennaService) CreateGobs(ctx context.Context, gobs []*models.Gob, antennas map[string]string) (map[string]string, []string, error) {
	err := checkDuplicates("gob", gobs, func(g *models.Gob) string { return g.Name })
	if err != nil {
		return nil, nil, err
	}

	index := make(map[string]string, len(gobs))
	var existing []string
	for _, g := range gobs {
		if g.UUID == "" {
			g.UUID = uuid.NewString()
		}
		for i := range g.Beams {
			id, ok := antennas[g.Beams[i].Name]
			if !ok {
				return nil, nil, &models.ValidationError{
					Field:   "gob",
					Message: fmt.Sprintf("gob %s references antenna %q which is not declared in the input configuration", g.Name, g.Beams[i].Name),
				}
			}
			g.Beams[i].UUID = id
		}

		payload, err := json.Marshal(g)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal gob %s: %w", g.Name, err)
		}
		req, err := s.client.NewRequest(ctx, "POST", s.client.ResourcePath("antennas/gob"), bytes.NewReader(payload))
		if err != nil {
			return nil, nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("request failed: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusCreated:
		case http.StatusAccepted:
			existing = append(existing, g.Name)
		default:
			err := apiError("antennas/gob", resp)
			resp.Body.Close()
			return nil, nil, err
		}

		var result struct {
			UUID string `json:"uuid"`
		}
		err = decodeJSON(resp, &result)
		resp.Body.Close()
		if err != nil {
			return nil, nil, err
		}
		if result.UUID == "" {
			result.UUID = g.UUID
		}
		g.UUID = result.UUID
		index[g.Name] = result.UUID
	}
	return index, existing, nil
}
