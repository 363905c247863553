package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Event types published by the services.
const (
	BookingCreated     = "booking.created"
	BookingConfirmed   = "booking.confirmed"
	BookingDeleted     = "booking.deleted"
	AppointmentCreated = "appointment.created"
	AppointmentDecided = "appointment.decided"
	HoursUpdated       = "hours.updated"
)

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type. The handler runs
// on the publisher's goroutine; subscribers doing I/O should use
// SubscribeAsync instead.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// asyncBufferSize bounds how far an async subscriber may fall behind
// before events are dropped.
const asyncBufferSize = 256

// SubscribeAsync registers a handler backed by its own worker goroutine,
// so publishers never wait on slow subscribers. Events are delivered in
// publish order; when the buffer is full new events are dropped rather
// than stalling the publisher.
func (b *EventBus) SubscribeAsync(eventType string, handler EventHandler) {
	ch := make(chan Event, asyncBufferSize)
	go func() {
		for event := range ch {
			_ = handler(event)
		}
	}()

	b.Subscribe(eventType, func(event Event) error {
		select {
		case ch <- event:
			return nil
		default:
			return fmt.Errorf("subscriber for %s is saturated, event dropped", eventType)
		}
	})
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON marshals the payload and publishes it under the event type.
// Marshal failures are returned so callers can log them.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(Event{Type: eventType, Payload: data})
	return nil
}
