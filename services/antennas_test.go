package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"volcano-sdk/models"
)

func writeAntennaFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("<antenna/>"), 0o644); err != nil {
		t.Fatalf("failed to write antenna file: %v", err)
	}
	return path
}

func TestAntennaService_Create(t *testing.T) {
	uploads := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploads++
		if r.URL.Path != "/antennas" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}

		var antenna models.Antenna
		if err := json.Unmarshal([]byte(r.MultipartForm.Value["json"][0]), &antenna); err != nil {
			t.Errorf("failed to decode json part: %v", err)
		}

		files := r.MultipartForm.File["data"]
		if len(files) != 1 {
			t.Fatalf("expected 1 data part, got %d", len(files))
		}
		if files[0].Filename != "omni.pafx" {
			t.Errorf("expected filename 'omni.pafx', got %s", files[0].Filename)
		}
		if ct := files[0].Header.Get("Content-Type"); ct != "text/xml" {
			t.Errorf("expected text/xml data part, got %s", ct)
		}
		f, _ := files[0].Open()
		content, _ := io.ReadAll(f)
		f.Close()
		if string(content) != "<antenna/>" {
			t.Errorf("unexpected pattern content %s", content)
		}

		if antenna.Name == "panel" {
			w.WriteHeader(http.StatusAccepted)
		} else {
			w.WriteHeader(http.StatusCreated)
		}
		fmt.Fprintf(w, `{"uuid": "ant-%s"}`, antenna.Name)
	}))
	defer server.Close()

	file := writeAntennaFile(t, "omni.pafx")
	service := NewAntennaService(newTestClient(server))
	antennas := []*models.Antenna{
		{Name: "omni", AntennaFile: file},
		{Name: "panel", AntennaFile: file},
	}

	index, existing, err := service.Create(context.Background(), antennas)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if uploads != 2 {
		t.Errorf("expected 2 uploads, got %d", uploads)
	}
	if index["omni"] != "ant-omni" || index["panel"] != "ant-panel" {
		t.Errorf("unexpected index %v", index)
	}
	if len(existing) != 1 || existing[0] != "panel" {
		t.Errorf("expected 'panel' to be reported as existing, got %v", existing)
	}
}

func TestAntennaService_CreateMissingFile(t *testing.T) {
	service := NewAntennaService(nil)
	antennas := []*models.Antenna{
		{Name: "omni", AntennaFile: filepath.Join(t.TempDir(), "absent.pafx")},
	}

	_, _, err := service.Create(context.Background(), antennas)
	if err == nil || !strings.Contains(err.Error(), "failed to open antenna file") {
		t.Errorf("expected file error, got %v", err)
	}
}

func TestAntennaService_CreateGobs(t *testing.T) {
	var payload models.Gob
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/antennas/gob" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"uuid": "gob-1"}`)
	}))
	defer server.Close()

	service := NewAntennaService(newTestClient(server))
	gobs := []*models.Gob{
		{Name: "massive", Beams: []models.GobBeam{{Name: "omni"}, {Name: "panel"}}},
	}
	antennas := map[string]string{"omni": "ant-1", "panel": "ant-2"}

	index, existing, err := service.CreateGobs(context.Background(), gobs, antennas)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if index["massive"] != "gob-1" {
		t.Errorf("expected uuid 'gob-1', got %s", index["massive"])
	}
	if len(existing) != 0 {
		t.Errorf("expected no existing gobs, got %v", existing)
	}

	// Beam names resolve to antenna uuids on the wire
	if len(payload.Beams) != 2 || payload.Beams[0].UUID != "ant-1" || payload.Beams[1].UUID != "ant-2" {
		t.Errorf("unexpected beams %v", payload.Beams)
	}
}

func TestAntennaService_CreateGobsUnknownBeam(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	service := NewAntennaService(newTestClient(server))
	gobs := []*models.Gob{
		{Name: "massive", Beams: []models.GobBeam{{Name: "ghost"}}},
	}

	_, _, err := service.CreateGobs(context.Background(), gobs, map[string]string{})
	if err == nil || !strings.Contains(err.Error(), `references antenna "ghost"`) {
		t.Errorf("expected beam error, got %v", err)
	}
	if requests != 0 {
		t.Errorf("expected no request for a broken gob, got %d", requests)
	}
}
