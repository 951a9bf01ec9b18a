package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventSyncStarted     EventType = "SYNC_STARTED"
	EventSyncCompleted   EventType = "SYNC_COMPLETED"
	EventSyncFailed      EventType = "SYNC_FAILED"
	EventReportRefreshed EventType = "REPORT_REFRESHED"
	EventExpenseChanged  EventType = "EXPENSE_CHANGED"
	EventPriceUpdated    EventType = "PRICE_UPDATED"
	EventRestockChanged  EventType = "RESTOCK_CHANGED"
	EventError           EventType = "ERROR"
)

// Event represents a system event. UserID scopes the event to one merchant so
// the websocket hub only fans it out to that merchant's connections.
type Event struct {
	Type      EventType              `json:"type"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
	}
}

// Subscribe registers a handler for one event type
func (b *EventBus) Subscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], sub)
}

// SubscribeAll registers a handler for every event
func (b *EventBus) SubscribeAll(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allSubs = append(b.allSubs, sub)
}

// Publish delivers an event to all matching subscribers. Delivery is
// asynchronous; publishers never block on slow consumers.
func (b *EventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers[event.Type])+len(b.allSubs))
	subs = append(subs, b.subscribers[event.Type]...)
	subs = append(subs, b.allSubs...)
	b.mu.RUnlock()

	for _, sub := range subs {
		go sub(event)
	}
}
