package models

import (
	"time"

	"github.com/shopforge/shopforge/pkg/saga"
)

// RunStepResponse is one step of a run as exposed over the API.
type RunStepResponse struct {
	Name        string        `json:"name"`
	Status      string        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Data        saga.StepData `json:"data,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// RunResponse returns full runtime information for one run.
type RunResponse struct {
	RunID       string            `json:"run_id"`
	Status      string            `json:"status"`
	Steps       []RunStepResponse `json:"steps"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// RunSummary is one row in a run list response.
type RunSummary struct {
	RunID       string     `json:"run_id"`
	Status      string     `json:"status"`
	Steps       int        `json:"steps"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// RunListResponse is a paginated list of run summaries.
type RunListResponse struct {
	Items  []RunSummary `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// NewRunResponse converts a journaled run into its API representation.
func NewRunResponse(run *saga.Run) RunResponse {
	steps := make([]RunStepResponse, 0, len(run.Steps))
	for _, step := range run.Steps {
		steps = append(steps, RunStepResponse{
			Name:        string(step.Name),
			Status:      step.Status.String(),
			StartedAt:   step.StartedAt,
			CompletedAt: step.CompletedAt,
			Data:        step.Data,
			Error:       step.Err,
		})
	}
	return RunResponse{
		RunID:       run.ID,
		Status:      run.Status.String(),
		Steps:       steps,
		CreatedAt:   run.CreatedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Err,
	}
}

// NewRunSummary converts a journaled run into a list row.
func NewRunSummary(run *saga.Run) RunSummary {
	return RunSummary{
		RunID:       run.ID,
		Status:      run.Status.String(),
		Steps:       len(run.Steps),
		CreatedAt:   run.CreatedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Err,
	}
}
