package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"volcano-sdk/models"
)

func TestResultService_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/results/art-1/download" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, "raster-bytes")
	}))
	defer server.Close()

	dir := t.TempDir()
	service := NewResultService(newTestClient(server))
	artifact := &models.Artifact{UUID: "art-1", FileName: "cells/tx1.tif"}

	path, err := service.Download(context.Background(), artifact, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Subfolders embedded in the file name are created under dir
	expected := filepath.Join(dir, "cells", "tx1.tif")
	if path != expected {
		t.Errorf("expected path %s, got %s", expected, path)
	}
	if artifact.Path != expected {
		t.Errorf("expected artifact path to be recorded, got %s", artifact.Path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read download: %v", err)
	}
	if string(content) != "raster-bytes" {
		t.Errorf("unexpected content %s", content)
	}
}

func TestResultService_DownloadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "result expired"}`)
	}))
	defer server.Close()

	service := NewResultService(newTestClient(server))
	artifact := &models.Artifact{UUID: "art-1", FileName: "tx1.tif"}

	_, err := service.Download(context.Background(), artifact, t.TempDir())
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *models.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected a not-found api error, got %v", err)
	}
	if artifact.Path != "" {
		t.Errorf("expected no recorded path on failure, got %s", artifact.Path)
	}
}

func TestResultService_DownloadAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "raster-bytes")
	}))
	defer server.Close()

	dir := t.TempDir()
	service := NewResultService(newTestClient(server))
	artifacts := []*models.Artifact{
		{UUID: "art-1", FileName: "tx1.tif"},
		{UUID: "art-2", FileName: "tx2.tif"},
	}

	if err := service.DownloadAll(context.Background(), artifacts, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, artifact := range artifacts {
		if _, err := os.Stat(filepath.Join(dir, artifact.FileName)); err != nil {
			t.Errorf("expected %s to be written: %v", artifact.FileName, err)
		}
	}
}
