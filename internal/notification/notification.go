// Package notification delivers already-decided domain events to configured
// webhook sinks. Delivery failures are logged and never propagate into the
// transactional outcome of the operation that emitted the event.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the document lifecycle.
const (
	EventDocumentCreated  = "document.created"
	EventDocumentSent     = "document.sent"
	EventDocumentSigned   = "document.signed"
	EventDocumentRejected = "document.rejected"
	EventDocumentPaid     = "document.paid"
)

// Event is a human-renderable record of something that happened.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewEvent stamps an event with id and time.
func NewEvent(eventType string, payload map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Dispatcher fans an event out to its sinks. Implementations must swallow
// delivery errors.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

// NoOpDispatcher drops every event.
type NoOpDispatcher struct{}

func (NoOpDispatcher) Dispatch(context.Context, Event) {}
