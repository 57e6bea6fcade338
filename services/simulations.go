// Package services provides the simulation service for Volcano API
// operations.
//
// This file implements the SimulationService which submits assembled
// simulation requests, polls them to completion and lists the result
// artifacts produced by a finished run.
package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"volcano-sdk/models"
)

// DefaultPollInterval is the delay between two status polls
const DefaultPollInterval = 5 * time.Second

// PollConfig controls how a simulation or prediction group is polled
type PollConfig struct {
	// Interval between polls, DefaultPollInterval when zero
	Interval time.Duration
	// MaxWait bounds the total wait, unbounded when zero
	MaxWait time.Duration
}

func (c PollConfig) interval() time.Duration {
	if c.Interval <= 0 {
		return DefaultPollInterval
	}
	return c.Interval
}

type SimulationService struct {
	client ClientInterface

	// settleDelay gives the server time to flush results to its
	// database before the first listing call
	settleDelay time.Duration
}

func NewSimulationService(client ClientInterface) *SimulationService {
	return &SimulationService{
		client:      client,
		settleDelay: time.Second,
	}
}

// Submit posts an assembled simulation. The shapefile archive, when
// present, travels as an extra multipart file next to the json part.
func (s *SimulationService) Submit(ctx context.Context, build *models.BuildOutput) (*models.Job, error) {
	var parts []filePart
	if build.ShapefilePath != "" {
		f, err := os.Open(build.ShapefilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open shapefile archive %s: %w", build.ShapefilePath, err)
		}
		defer f.Close()
		parts = append(parts, filePart{
			field:       "shapefileArchive",
			filename:    filepath.Base(build.ShapefilePath),
			contentType: "application/zip",
			content:     f,
		})
	}

	body, contentType, err := multipartBody(build.Request, parts...)
	if err != nil {
		return nil, err
	}
	req, err := s.client.NewRequest(ctx, "POST", s.client.ResourcePath("simulations"), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apiError("simulations", resp)
	}

	var result struct {
		UUID string `json:"uuid"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}
	if result.UUID == "" {
		result.UUID = build.Request.UUID
	}
	return models.NewJob(result.UUID, build.Request.Name), nil
}

// Status fetches one status poll of a simulation
func (s *SimulationService) Status(ctx context.Context, id string) (*models.SimulationStatus, error) {
	req, err := s.client.NewRequest(ctx, "GET", "/simulations/"+id+"/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("simulations", resp)
	}
	var status models.SimulationStatus
	if err := decodeJSON(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// WaitForCompletion polls the job until it reaches a terminal state.
// onProgress, when non-nil, runs after every poll. The returned error
// reports transport and protocol failures only; a run that ended in
// ERROR or CANCELED comes back with the job in the failed state.
func (s *SimulationService) WaitForCompletion(ctx context.Context, job *models.Job, cfg PollConfig, onProgress func(*models.Job)) (*models.Job, error) {
	ticker := time.NewTicker(cfg.interval())
	defer ticker.Stop()

	var timeout <-chan time.Time
	if cfg.MaxWait > 0 {
		timer := time.NewTimer(cfg.MaxWait)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-timeout:
			return job, fmt.Errorf("simulation %s did not finish within %s", job.ID, cfg.MaxWait)
		case <-ticker.C:
		}

		status, err := s.Status(ctx, job.ID)
		if err != nil {
			return job, err
		}
		if err := job.Apply(status); err != nil {
			return job, err
		}
		if onProgress != nil {
			onProgress(job)
		}
		if job.State.Terminal() {
			return job, nil
		}
	}
}

// Get fetches the description of a submitted simulation, including
// its computation steps
func (s *SimulationService) Get(ctx context.Context, id string) (*models.SimulationInfo, error) {
	req, err := s.client.NewRequest(ctx, "GET", "/simulations/"+id, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("simulations", resp)
	}
	var info models.SimulationInfo
	if err := decodeJSON(resp, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Results lists the artifacts of a finished simulation. The listing
// can lag the completion status, so empty listings are retried a few
// times before being returned as they are.
func (s *SimulationService) Results(ctx context.Context, id string) ([]*models.Artifact, error) {
	if err := settle(ctx, s.settleDelay); err != nil {
		return nil, err
	}

	var artifacts []*models.Artifact
	for attempt := 0; attempt < 3; attempt++ {
		req, err := s.client.NewRequest(ctx, "GET", "/simulations/"+id+"/results", nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			err := apiError("simulations", resp)
			resp.Body.Close()
			return nil, err
		}
		artifacts = artifacts[:0]
		err = decodeJSON(resp, &artifacts)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if len(artifacts) > 0 {
			break
		}
	}
	return artifacts, nil
}

// settle waits for the given delay unless the context ends first
func settle(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
