package events

import (
	"context"
	"testing"
	"time"

	"github.com/shopforge/shopforge/pkg/saga"
)

func TestBroadcaster_SubscribeBroadcastUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe(1)

	b.Broadcast(Event{
		Type: TypeRunStateChanged,
		Payload: map[string]any{
			"run_id": "run-1",
		},
	})

	select {
	case event := <-ch:
		if event.Type != TypeRunStateChanged {
			t.Fatalf("type = %q, want %q", event.Type, TypeRunStateChanged)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for broadcast event")
	}

	b.Unsubscribe(ch)
}

func TestBroadcaster_RunAndStepHelpers(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe(2)

	run := saga.NewRun("run-1")
	step := run.BeginStep(saga.StepCreateProduct)

	b.BroadcastRunStateChanged(run)
	b.BroadcastStepStateChanged(run.ID, step)

	var received int
	for received < 2 {
		select {
		case <-ch:
			received++
		case <-time.After(time.Second):
			t.Fatalf("expected 2 helper events, got %d", received)
		}
	}
}

func TestNotifyingJournal_SavePersistsAndBroadcasts(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe(4)
	journal := NewNotifyingJournal(saga.NewMemoryJournal(), b)

	run := saga.NewRun("run-1")
	run.BeginStep(saga.StepCreateProduct)
	if err := journal.Save(context.Background(), run); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stored, err := journal.Get(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.ID != "run-1" {
		t.Fatalf("stored run id = %q", stored.ID)
	}

	types := map[string]bool{}
	for len(types) < 2 {
		select {
		case event := <-ch:
			types[event.Type] = true
		case <-time.After(time.Second):
			t.Fatalf("expected run and step events, got %v", types)
		}
	}
	if !types[TypeRunStateChanged] || !types[TypeStepStateChanged] {
		t.Fatalf("unexpected event types: %v", types)
	}
}
