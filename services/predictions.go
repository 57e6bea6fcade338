// Package services provides the prediction service for Volcano API
// operations.
//
// This file implements the PredictionService which inspects the
// propagation predictions behind a simulation: group status polling,
// per-prediction listings and per-prediction result artifacts.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"volcano-sdk/models"
)

type PredictionService struct {
	client ClientInterface

	settleDelay time.Duration
}

func NewPredictionService(client ClientInterface) *PredictionService {
	return &PredictionService{
		client:      client,
		settleDelay: time.Second,
	}
}

// GroupStatus fetches one status poll of a prediction group
func (s *PredictionService) GroupStatus(ctx context.Context, groupID string) (*models.SimulationStatus, error) {
	req, err := s.client.NewRequest(ctx, "GET", "/predictiongroups/"+groupID+"/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("predictiongroups", resp)
	}
	var status models.SimulationStatus
	if err := decodeJSON(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// WaitForGroup polls the prediction group until it reaches a terminal
// state. A first ERROR poll is retried once before the failure is
// reported with the per-prediction error messages.
func (s *PredictionService) WaitForGroup(ctx context.Context, groupID string, cfg PollConfig, onProgress func(*models.SimulationStatus)) (*models.SimulationStatus, error) {
	ticker := time.NewTicker(cfg.interval())
	defer ticker.Stop()

	var timeout <-chan time.Time
	if cfg.MaxWait > 0 {
		timer := time.NewTimer(cfg.MaxWait)
		defer timer.Stop()
		timeout = timer.C
	}

	retry := true
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("prediction group %s did not finish within %s", groupID, cfg.MaxWait)
		case <-ticker.C:
		}

		status, err := s.GroupStatus(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if onProgress != nil {
			onProgress(status)
		}

		switch status.State {
		case models.StateDone, models.StateDoneWithError:
			return status, nil
		case models.StateError:
			if retry {
				retry = false
				continue
			}
			messages, lookupErr := s.GroupErrors(ctx, groupID)
			if lookupErr != nil || len(messages) == 0 {
				return status, fmt.Errorf("prediction group %s failed", groupID)
			}
			return status, fmt.Errorf("prediction group %s failed: %s", groupID, strings.Join(messages, "; "))
		case models.StateCanceled:
			return status, fmt.Errorf("prediction group %s has been cancelled", groupID)
		}
	}
}

// List returns the predictions of a group
func (s *PredictionService) List(ctx context.Context, groupID string) ([]*models.Prediction, error) {
	req, err := s.client.NewRequest(ctx, "GET", "/predictions?groupid="+url.QueryEscape(groupID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("predictions", resp)
	}
	var predictions []*models.Prediction
	if err := decodeJSON(resp, &predictions); err != nil {
		return nil, err
	}
	return predictions, nil
}

// GroupErrors returns the failure messages of the predictions of a
// group that ended in error
func (s *PredictionService) GroupErrors(ctx context.Context, groupID string) ([]string, error) {
	predictions, err := s.List(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var messages []string
	for _, p := range predictions {
		if p.Status != nil && p.Status.State == models.StateError {
			messages = append(messages, fmt.Sprintf("%s: %s", p.Name, p.Status.Error))
		}
	}
	return messages, nil
}

// Results lists the artifacts of one prediction, retrying empty
// listings the same way the simulation results endpoint is retried
func (s *PredictionService) Results(ctx context.Context, predictionID string) ([]*models.Artifact, error) {
	if err := settle(ctx, s.settleDelay); err != nil {
		return nil, err
	}

	var artifacts []*models.Artifact
	for attempt := 0; attempt < 3; attempt++ {
		req, err := s.client.NewRequest(ctx, "GET", "/predictions/"+predictionID+"/results", nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			err := apiError("predictions", resp)
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
