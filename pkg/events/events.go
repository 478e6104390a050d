// Package events publishes catalog domain events to a message broker.
package events

import (
	"context"
	"time"
)

// Event types emitted by the service.
const (
	TypeProductCreated = "product.created"
	TypeProductDeleted = "product.deleted"
)

// Event is one domain event.
type Event struct {
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType, key string, payload map[string]any) Event {
	return Event{
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards events. It is the default when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close is a no-op.
func (NopPublisher) Close() error { return nil }

var _ Publisher = NopPublisher{}
