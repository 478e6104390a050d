// Package events fans out run lifecycle events to in-process subscribers,
// typically the websocket layer.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopforge/shopforge/pkg/saga"
)

// Event types broadcast to subscribers.
const (
	TypeRunStateChanged  = "run.state_changed"
	TypeStepStateChanged = "step.state_changed"
)

// Event is the canonical event payload broadcast to websocket subscribers.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Broadcaster broadcasts events to in-process subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates a broadcaster instance.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe subscribes to events with a buffered channel.
func (b *Broadcaster) Subscribe(buffer int) chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Broadcast broadcasts a generic event to all subscribers.
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]chan Event, 0, len(b.subscribers))
	for ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Drop on overflow to keep broadcasters non-blocking.
		}
	}
}

// BroadcastRunStateChanged emits a run state change event.
func (b *Broadcaster) BroadcastRunStateChanged(run *saga.Run) {
	payload := map[string]any{
		"run_id":     run.ID,
		"status":     run.Status.String(),
		"steps":      len(run.Steps),
		"created_at": run.CreatedAt.Format(time.RFC3339Nano),
	}
	if run.Err != "" {
		payload["error"] = run.Err
	}
	if run.CompletedAt != nil {
		payload["completed_at"] = run.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	b.Broadcast(Event{
		Type:    TypeRunStateChanged,
		Payload: payload,
	})
}

// BroadcastStepStateChanged emits a step state change event for the latest
// step of the run.
func (b *Broadcaster) BroadcastStepStateChanged(runID string, step *saga.StepRecord) {
	payload := map[string]any{
		"run_id":     runID,
		"step":       string(step.Name),
		"status":     step.Status.String(),
		"started_at": step.StartedAt.Format(time.RFC3339Nano),
	}
	if step.Err != "" {
		payload["error"] = step.Err
	}
	if step.CompletedAt != nil {
		payload["completed_at"] = step.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	b.Broadcast(Event{
		Type:    TypeStepStateChanged,
		Payload: payload,
	})
}

// Close closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}

// NotifyingJournal wraps a journal and broadcasts every saved snapshot. The
// wrapped journal keeps sole responsibility for persistence; broadcast
// failures cannot surface because Broadcast never blocks.
type NotifyingJournal struct {
	inner       saga.Journal
	broadcaster *Broadcaster
}

// NewNotifyingJournal wraps journal so run transitions reach broadcaster.
func NewNotifyingJournal(inner saga.Journal, broadcaster *Broadcaster) *NotifyingJournal {
	return &NotifyingJournal{
		inner:       inner,
		broadcaster: broadcaster,
	}
}

// Save persists the snapshot and then broadcasts it.
func (j *NotifyingJournal) Save(ctx context.Context, run *saga.Run) error {
	err := j.inner.Save(ctx, run)
	j.broadcaster.BroadcastRunStateChanged(run)
	if len(run.Steps) > 0 {
		j.broadcaster.BroadcastStepStateChanged(run.ID, run.Steps[len(run.Steps)-1])
	}
	return err
}

// Get delegates to the wrapped journal.
func (j *NotifyingJournal) Get(ctx context.Context, runID string) (*saga.Run, error) {
	return j.inner.Get(ctx, runID)
}

// List delegates to the wrapped journal.
func (j *NotifyingJournal) List(ctx context.Context, filter saga.RunListFilter) ([]*saga.Run, int, error) {
	return j.inner.List(ctx, filter)
}

var _ saga.Journal = (*NotifyingJournal)(nil)
