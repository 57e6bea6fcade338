package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaintenanceService clears the scenario folders the computation
// server keeps on disk between runs
type MaintenanceService struct {
	client ClientInterface
}

func NewMaintenanceService(client ClientInterface) *MaintenanceService {
	return &MaintenanceService{
		client: client,
	}
}

// CleanupScenarioDirs deletes the prediction and post processing
// folders. Both endpoints are always attempted; their failures are
// joined so one cannot mask the other.
func (s *MaintenanceService) CleanupScenarioDirs(ctx context.Context) error {
	var errs []error
	for _, path := range []string{"/predictions/allPredictionsFolders", "/postprocessings/folders"} {
		if err := s.delete(ctx, path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *MaintenanceService) delete(ctx context.Context, path string) error {
	req, err := s.client.NewRequest(ctx, "DELETE", path, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(strings.TrimPrefix(path, "/"), resp)
	}
	return nil
}
