package models

import (
	"strings"
	"testing"
)

func TestJobStateCanTransition(t *testing.T) {
	tests := []struct {
		from, to JobState
		allowed  bool
	}{
		{JobSubmitted, JobRunning, true},
		{JobSubmitted, JobComplete, true},
		{JobSubmitted, JobFailed, true},
		{JobRunning, JobRunning, true},
		{JobRunning, JobComplete, true},
		{JobRunning, JobFailed, true},
		{JobRunning, JobSubmitted, false},
		{JobComplete, JobComplete, true},
		{JobComplete, JobRunning, false},
		{JobComplete, JobFailed, false},
		{JobFailed, JobComplete, false},
		{JobFailed, JobRunning, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestJobStateOf(t *testing.T) {
	tests := []struct {
		state    string
		expected JobState
	}{
		{StateWaiting, JobRunning},
		{StateDone, JobComplete},
		{StateDoneWithError, JobComplete},
		{StateError, JobFailed},
		{StateCanceled, JobFailed},
	}

	for _, tt := range tests {
		if got := JobStateOf(&SimulationStatus{State: tt.state}); got != tt.expected {
			t.Errorf("%s: expected %s, got %s", tt.state, tt.expected, got)
		}
	}
}

func TestJobApply(t *testing.T) {
	job := NewJob("sim-1", "campaign")
	if job.State != JobSubmitted {
		t.Fatalf("expected a submitted job, got %s", job.State)
	}

	if err := job.Apply(&SimulationStatus{State: StateWaiting, Progress: 40}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.State != JobRunning || job.Progress != 40 {
		t.Errorf("expected running at 40, got %s at %v", job.State, job.Progress)
	}

	// Progress never goes backward
	if err := job.Apply(&SimulationStatus{State: StateWaiting, Progress: 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Progress != 40 {
		t.Errorf("expected progress to stay at 40, got %v", job.Progress)
	}

	if err := job.Apply(&SimulationStatus{
		State:         StateDoneWithError,
		Progress:      100,
		ErrorMessages: []string{"tx2 outside map"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.State != JobComplete || job.Failed() {
		t.Errorf("expected a completed job, got %s", job.State)
	}
	if len(job.Warnings) != 1 || job.Warnings[0] != "tx2 outside map" {
		t.Errorf("expected the partial-result message as warning, got %v", job.Warnings)
	}

	// Terminal states reject further transitions
	err := job.Apply(&SimulationStatus{State: StateError})
	if err == nil || !strings.Contains(err.Error(), "invalid job transition from complete to failed") {
		t.Errorf("expected transition error, got %v", err)
	}
}

func TestJobApply_Failure(t *testing.T) {
	job := NewJob("sim-1", "campaign")

	if err := job.Apply(&SimulationStatus{
		State:         StateError,
		Error:         "computation failed",
		ErrorMessages: []string{"no map data"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !job.Failed() {
		t.Error("expected a failed job")
	}
	if len(job.Err) != 2 || job.Err[0] != "no map data" || job.Err[1] != "computation failed" {
		t.Errorf("expected both failure messages, got %v", job.Err)
	}
}
