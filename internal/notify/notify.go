// Package notify implements the best-effort side-channel notifier of
// spec.md §6.5: six event types, non-blocking emission, errors never
// surfaced back into the response.
package notify

import (
	"sync/atomic"

	"github.com/forgecrew/promptengine/internal/pkg/logger"
)

// EventType enumerates the six notification events spec.md §6.5 names.
type EventType string

const (
	EventGateFailed        EventType = "gateFailed"
	EventFrameworkChanged  EventType = "frameworkChanged"
	EventChainStepComplete EventType = "chainStepComplete"
	EventChainComplete     EventType = "chainComplete"
	EventRetryExhausted    EventType = "retryExhausted"
	EventResponseBlocked   EventType = "responseBlocked"
)

// Event is one notification payload.
type Event struct {
	Type    EventType
	Payload map[string]interface{}
}

// Notifier is a non-blocking, best-effort event bus. Emit never blocks the
// pipeline: if the buffered channel is full, the event is dropped and a
// counter is incremented (observability, not protocol, per spec.md §9).
type Notifier struct {
	ch      chan Event
	dropped atomic.Int64
}

// New creates a Notifier with the given buffer size.
func New(bufferSize int) *Notifier {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Notifier{ch: make(chan Event, bufferSize)}
}

// Emit publishes an event without blocking. Safe to call from any stage.
func (n *Notifier) Emit(eventType EventType, payload map[string]interface{}) {
	select {
	case n.ch <- Event{Type: eventType, Payload: payload}:
	default:
		n.dropped.Add(1)
		logger.Debug("[Notify] channel full, dropped event %s", eventType)
	}
}

// Events exposes the receive side for observers to range over.
func (n *Notifier) Events() <-chan Event { return n.ch }

// Dropped returns the cumulative number of dropped events.
func (n *Notifier) Dropped() int64 { return n.dropped.Load() }

// Close closes the event channel; observers ranging over Events() will
// stop once drained.
func (n *Notifier) Close() { close(n.ch) }
