package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"volcano-sdk/models"
)

type ResultService struct {
	client ClientInterface
}

func NewResultService(client ClientInterface) *ResultService {
	return &ResultService{
		client: client,
	}
}

// Download streams one artifact into dir and returns the local path
// written. Subfolders embedded in the artifact file name, such as
// cells/, are created under dir.
func (s *ResultService) Download(ctx context.Context, artifact *models.Artifact, dir string) (string, error) {
	req, err := s.client.NewRequest(ctx, "GET", "/results/"+artifact.UUID+"/download", nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError("results", resp)
	}

	target := filepath.Join(dir, filepath.FromSlash(artifact.FileName))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create result directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create result file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", artifact.FileName, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", artifact.FileName, err)
	}

	artifact.Path = target
	return target, nil
}

// DownloadAll downloads every artifact into dir
func (s *ResultService) DownloadAll(ctx context.Context, artifacts []*models.Artifact, dir string) error {
	for _, artifact := range artifacts {
		if _, err := s.Download(ctx, artifact, dir); err != nil {
			return err
		}
	}
	return nil
}
