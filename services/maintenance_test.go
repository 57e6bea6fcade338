package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMaintenanceService_CleanupScenarioDirs(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "DELETE" {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		paths = append(paths, r.URL.Path)
	}))
	defer server.Close()

	service := NewMaintenanceService(newTestClient(server))
	if err := service.CleanupScenarioDirs(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("expected 2 delete calls, got %d", len(paths))
	}
	if paths[0] != "/predictions/allPredictionsFolders" || paths[1] != "/postprocessings/folders" {
		t.Errorf("unexpected paths %v", paths)
	}
}

func TestMaintenanceService_CleanupScenarioDirsPartialFailure(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasPrefix(r.URL.Path, "/predictions") {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message": "folder locked"}`)
		}
	}))
	defer server.Close()

	service := NewMaintenanceService(newTestClient(server))
	err := service.CleanupScenarioDirs(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	// The second folder is still attempted after the first failure
	if len(paths) != 2 {
		t.Errorf("expected 2 delete calls, got %d", len(paths))
	}
	if !strings.Contains(err.Error(), "folder locked") {
		t.Errorf("expected the server message, got %v", err)
	}
}
