package application

import (
	"log/slog"
	"sync"
	"time"
)

// EventType names an event published on the EventBus.
type EventType string

const (
	EventOperationStarted  EventType = "operation.started"
	EventOperationFinished EventType = "operation.finished"
	EventAccountsChanged   EventType = "accounts.changed"
)

// Event is a notification for the presentation layer.
type Event struct {
	Type      EventType          `json:"type"`
	Time      time.Time          `json:"time"`
	Operation *OperationSnapshot `json:"operation,omitempty"`
}

// EventBus fans events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

// NewEventBus creates an empty EventBus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// function unsubscribes and closes the channel; it is safe to call twice.
func (b *EventBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber. A zero Time is set to now.
func (b *EventBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			slog.Debug("event dropped for slow subscriber", "subscriber", id, "type", e.Type)
		}
	}
}
