package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"volcano-sdk/models"
)

func TestSessionService_Create(t *testing.T) {
	tests := []struct {
		name   string
		status int
		fails  bool
	}{
		{"created", http.StatusCreated, false},
		{"already exists", http.StatusNotAcceptable, false},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload models.Session
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != "POST" || r.URL.Path != "/sessions" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					t.Errorf("failed to decode payload: %v", err)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{}`)
			}))
			defer server.Close()

			service := NewSessionService(newTestClient(server))
			session := &models.Session{Name: "campaign", Description: "demo run"}

			err := service.Create(context.Background(), session)
			if tt.fails {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if session.UUID == "" {
				t.Error("expected a generated session uuid")
			}
			if payload.Name != "campaign" || payload.UUID != session.UUID {
				t.Errorf("unexpected payload %+v", payload)
			}
		})
	}
}
