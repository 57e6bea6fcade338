package models

import "fmt"

// JobState is the client-side lifecycle of one simulation run
type JobState string

// Lifecycle states, ordered submitted -> running -> complete | failed
const (
	JobSubmitted JobState = "submitted"
	JobRunning   JobState = "running"
	JobComplete  JobState = "complete"
	JobFailed    JobState = "failed"
)

var jobStateRank = map[JobState]int{
	JobSubmitted: 0,
	JobRunning:   1,
	JobComplete:  2,
	JobFailed:    2,
}

// Terminal reports whether the state admits no further transitions
func (s JobState) Terminal() bool {
	return s == JobComplete || s == JobFailed
}

// CanTransition reports whether moving to next keeps the lifecycle
// monotonic. Repeating the current state is always allowed, going
// backward or leaving a terminal state never is.
func (s JobState) CanTransition(next JobState) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	return jobStateRank[next] > jobStateRank[s]
}

// JobStateOf maps a wire status to the client lifecycle state
func JobStateOf(status *SimulationStatus) JobState {
	switch status.State {
	case StateDone, StateDoneWithError:
		return JobComplete
	case StateError, StateCanceled:
		return JobFailed
	default:
		return JobRunning
	}
}

// Job is one server-side simulation run as tracked by this client
type Job struct {
	ID       string
	Name     string
	State    JobState
	Progress float64
	// Warnings holds the per-transmitter messages of a run that
	// completed with partial results
	Warnings []string
	// Err holds the failure messages of a run that ended in error
	Err []string
}

// NewJob returns a job in the submitted state
func NewJob(id, name string) *Job {
	return &Job{ID: id, Name: name, State: JobSubmitted}
}

// Apply folds one status poll into the job, enforcing the monotonic
// lifecycle
func (j *Job) Apply(status *SimulationStatus) error {
	next := JobStateOf(status)
	if !j.State.CanTransition(next) {
		return fmt.Errorf("invalid job transition from %s to %s", j.State, next)
	}
	j.State = next
	if status.Progress > j.Progress {
		j.Progress = status.Progress
	}
	switch status.State {
	case StateDoneWithError:
		j.Warnings = append(j.Warnings, status.ErrorMessages...)
	case StateError, StateCanceled:
		j.Err = append(j.Err, status.ErrorMessages...)
		if status.Error != "" {
			j.Err = append(j.Err, status.Error)
		}
	}
	return nil
}

// Failed reports whether the run ended in error or was canceled
func (j *Job) Failed() bool {
	return j.State == JobFailed
}
