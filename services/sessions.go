package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"volcano-sdk/models"
)

type SessionService struct {
	client ClientInterface
}

func NewSessionService(client ClientInterface) *SessionService {
	return &SessionService{
		client: client,
	}
}

// Create declares the calculation session. A session that already
// exists on the server is reused.
func (s *SessionService) Create(ctx context.Context, session *models.Session) error {
	if session.UUID == "" {
		session.UUID = uuid.NewString()
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.Name, err)
	}
	req, err := s.client.NewRequest(ctx, "POST", s.client.ResourcePath("sessions"), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNotAcceptable:
		return nil
	default:
		return apiError("sessions", resp)
	}
}
