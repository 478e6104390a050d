package saga

import (
	"encoding/json"
	"fmt"
	"time"
)

// RunStatus defines the lifecycle of one saga run.
type RunStatus int

const (
	RunPending RunStatus = iota
	RunComplete
	RunFailed
)

// StepStatus defines the lifecycle of one recorded step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepCompleted
	StepFailed
)

var validRunTransitions = map[RunStatus]map[RunStatus]struct{}{
	RunPending: {
		RunComplete: {},
		RunFailed:   {},
	},
}

var validStepTransitions = map[StepStatus]map[StepStatus]struct{}{
	StepPending: {
		StepCompleted: {},
		StepFailed:    {},
	},
}

// String returns the string form of RunStatus.
func (s RunStatus) String() string {
	switch s {
	case RunPending:
		return "pending"
	case RunComplete:
		return "complete"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the run status is terminal.
func (s RunStatus) IsTerminal() bool {
	return s == RunComplete || s == RunFailed
}

// CanTransitionTo checks whether a run status transition is valid.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	if s == next {
		return true
	}
	validNext, ok := validRunTransitions[s]
	if !ok {
		return false
	}
	_, ok = validNext[next]
	return ok
}

// MarshalJSON encodes the status as its string form.
func (s RunStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the status from its string form.
func (s *RunStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRunStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseRunStatus parses a run status string.
func ParseRunStatus(s string) (RunStatus, error) {
	switch s {
	case "pending":
		return RunPending, nil
	case "complete":
		return RunComplete, nil
	case "failed":
		return RunFailed, nil
	default:
		return RunPending, fmt.Errorf("unknown run status: %q", s)
	}
}

// String returns the string form of StepStatus.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepCompleted:
		return "completed"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CanTransitionTo checks whether a step status transition is valid.
func (s StepStatus) CanTransitionTo(next StepStatus) bool {
	if s == next {
		return true
	}
	validNext, ok := validStepTransitions[s]
	if !ok {
		return false
	}
	_, ok = validNext[next]
	return ok
}

// MarshalJSON encodes the status as its string form.
func (s StepStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the status from its string form.
func (s *StepStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStepStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStepStatus parses a step status string.
func ParseStepStatus(s string) (StepStatus, error) {
	switch s {
	case "pending":
		return StepPending, nil
	case "completed":
		return StepCompleted, nil
	case "failed":
		return StepFailed, nil
	default:
		return StepPending, fmt.Errorf("unknown step status: %q", s)
	}
}

// StepRecord is one unit of work recorded in a run's step log. It is appended
// with status pending before the side effect executes, and transitions to
// completed (with Data attached) or failed (with Err attached) afterwards.
type StepRecord struct {
	Name        StepName
	Status      StepStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Data        StepData
	Err         string
}

// Complete marks the step completed and attaches its compensation data.
func (r *StepRecord) Complete(data StepData) error {
	if !r.Status.CanTransitionTo(StepCompleted) {
		return fmt.Errorf("invalid step transition: %s -> completed", r.Status)
	}
	now := time.Now().UTC()
	r.Status = StepCompleted
	r.CompletedAt = &now
	r.Data = data
	return nil
}

// Fail marks the step failed with the given cause. No data is attached;
// a failed step is never a compensation candidate.
func (r *StepRecord) Fail(cause error) error {
	if !r.Status.CanTransitionTo(StepFailed) {
		return fmt.Errorf("invalid step transition: %s -> failed", r.Status)
	}
	now := time.Now().UTC()
	r.Status = StepFailed
	r.CompletedAt = &now
	if cause != nil {
		r.Err = cause.Error()
	}
	return nil
}

type stepRecordJSON struct {
	Name        StepName        `json:"name"`
	Status      StepStatus      `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Err         string          `json:"error,omitempty"`
}

// MarshalJSON encodes the record with its concrete step data.
func (r *StepRecord) MarshalJSON() ([]byte, error) {
	out := stepRecordJSON{
		Name:        r.Name,
		Status:      r.Status,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Err:         r.Err,
	}
	if r.Data != nil {
		data, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		out.Data = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the record, resolving the concrete step data type
// from the step name.
func (r *StepRecord) UnmarshalJSON(data []byte) error {
	var raw stepRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Name = raw.Name
	r.Status = raw.Status
	r.StartedAt = raw.StartedAt
	r.CompletedAt = raw.CompletedAt
	r.Err = raw.Err
	r.Data = nil

	if len(raw.Data) == 0 {
		return nil
	}
	decoded, err := decodeStepData(raw.Name, raw.Data)
	if err != nil {
		return err
	}
	r.Data = decoded
	return nil
}

func decodeStepData(name StepName, data []byte) (StepData, error) {
	switch name {
	case StepCreateProduct:
		var d CreateProductData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case StepUploadImages:
		var d UploadImagesData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case StepLinkCategory:
		var d LinkCategoryData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case StepLinkRelatedProducts:
		var d LinkRelatedProductsData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case StepCreateAttributes:
		var d CreateAttributesData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown step name: %q", name)
	}
}

// Run is the in-memory record of one workflow execution. Steps are
// append-only and strictly ordered; the run is owned exclusively by the
// execute call that created it.
type Run struct {
	ID          string        `json:"id"`
	Status      RunStatus     `json:"status"`
	Steps       []*StepRecord `json:"steps"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Err         string        `json:"error,omitempty"`
}

// NewRun creates a pending run with the given identifier.
func NewRun(id string) *Run {
	return &Run{
		ID:        id,
		Status:    RunPending,
		Steps:     make([]*StepRecord, 0, len(StepOrder)),
		CreatedAt: time.Now().UTC(),
	}
}

// BeginStep appends a pending step record and returns it.
func (r *Run) BeginStep(name StepName) *StepRecord {
	record := &StepRecord{
		Name:      name,
		Status:    StepPending,
		StartedAt: time.Now().UTC(),
	}
	r.Steps = append(r.Steps, record)
	return record
}

// Complete marks the run complete. Valid only while pending.
func (r *Run) Complete() error {
	if !r.Status.CanTransitionTo(RunComplete) {
		return fmt.Errorf("invalid run transition: %s -> complete", r.Status)
	}
	now := time.Now().UTC()
	r.Status = RunComplete
	r.CompletedAt = &now
	return nil
}

// Fail marks the run failed with the root cause. Valid only while pending.
func (r *Run) Fail(cause error) error {
	if !r.Status.CanTransitionTo(RunFailed) {
		return fmt.Errorf("invalid run transition: %s -> failed", r.Status)
	}
	r.Status = RunFailed
	if cause != nil {
		r.Err = cause.Error()
	}
	return nil
}

func cloneRun(run *Run) *Run {
	if run == nil {
		return nil
	}
	clone := &Run{
		ID:        run.ID,
		Status:    run.Status,
		CreatedAt: run.CreatedAt,
		Err:       run.Err,
		Steps:     make([]*StepRecord, 0, len(run.Steps)),
	}
	if run.CompletedAt != nil {
		done := *run.CompletedAt
		clone.CompletedAt = &done
	}
	for _, step := range run.Steps {
		if step == nil {
			continue
		}
		stepClone := &StepRecord{
			Name:      step.Name,
			Status:    step.Status,
			StartedAt: step.StartedAt,
			Data:      step.Data,
			Err:       step.Err,
		}
		if step.CompletedAt != nil {
			done := *step.CompletedAt
			stepClone.CompletedAt = &done
		}
		clone.Steps = append(clone.Steps, stepClone)
	}
	return clone
}
