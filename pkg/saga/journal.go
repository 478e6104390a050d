package saga

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrRunNotFound is returned when a run cannot be located in a journal.
var ErrRunNotFound = errors.New("saga run not found")

// RunListFilter controls run list query behavior.
type RunListFilter struct {
	Status string
	Limit  int
	Offset int
}

// Journal receives run snapshots after every run and step transition. It is
// an audit hook: the orchestrator never reads a run back during execution,
// and journal failures never affect the workflow outcome.
type Journal interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, runID string) (*Run, error)
	List(ctx context.Context, filter RunListFilter) ([]*Run, int, error)
}

// NopJournal discards all writes.
type NopJournal struct{}

// Save discards the snapshot.
func (NopJournal) Save(context.Context, *Run) error { return nil }

// Get always reports not found.
func (NopJournal) Get(context.Context, string) (*Run, error) { return nil, ErrRunNotFound }

// List returns no runs.
func (NopJournal) List(context.Context, RunListFilter) ([]*Run, int, error) {
	return []*Run{}, 0, nil
}

// MemoryJournal is a thread-safe in-memory Journal.
type MemoryJournal struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryJournal creates an in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		runs: make(map[string]*Run),
	}
}

// Save stores a snapshot of the run.
func (j *MemoryJournal) Save(_ context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	j.mu.Lock()
	j.runs[run.ID] = cloneRun(run)
	j.mu.Unlock()
	return nil
}

// Get loads one run by id.
func (j *MemoryJournal) Get(_ context.Context, runID string) (*Run, error) {
	j.mu.RLock()
	run, ok := j.runs[runID]
	j.mu.RUnlock()
	if !ok {
		return nil, ErrRunNotFound
	}
	return cloneRun(run), nil
}

// List lists runs with optional status filter and pagination, newest first.
func (j *MemoryJournal) List(_ context.Context, filter RunListFilter) ([]*Run, int, error) {
	j.mu.RLock()
	all := make([]*Run, 0, len(j.runs))
	for _, run := range j.runs {
		if filter.Status != "" && run.Status.String() != filter.Status {
			continue
		}
		all = append(all, cloneRun(run))
	}
	j.mu.RUnlock()

	sort.Slice(all, func(a, b int) bool {
		return all[a].CreatedAt.After(all[b].CreatedAt)
	})

	return paginateRuns(all, filter)
}

func paginateRuns(all []*Run, filter RunListFilter) ([]*Run, int, error) {
	total := len(all)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return all[offset:end], total, nil
}

var (
	_ Journal = NopJournal{}
	_ Journal = (*MemoryJournal)(nil)
)
