package events

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AllEvents subscribes a function handler to every event type.
const AllEvents = "*"

type funcHandler struct {
	id        string
	eventType string
	fn        EventHandler
}

// EventBus delivers room events synchronously on the publishing goroutine,
// subscribers first and then function handlers, each in subscription
// order. Handlers must not block or call back into the room.
//
// The handler list is copied before delivery, so a handler may subscribe
// or unsubscribe while an event is in flight; the change applies from the
// next Publish.
type EventBus struct {
	mu       sync.RWMutex
	subs     []Subscriber
	handlers []funcHandler
	nextID   int
	logger   zerolog.Logger
}

// NewEventBus creates a new event bus instance
func NewEventBus() *EventBus {
	return &EventBus{
		logger: log.With().Str("component", "EventBus").Logger(),
	}
}

// Subscribe adds a subscriber. A subscriber with the same ID is replaced
// in place and keeps its delivery position.
func (eb *EventBus) Subscribe(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for i, s := range eb.subs {
		if s.ID() == subscriber.ID() {
			eb.subs[i] = subscriber
			return
		}
	}
	eb.subs = append(eb.subs, subscriber)
	eb.logger.Debug().
		Str("subscriber_id", subscriber.ID()).
		Int("subscribers", len(eb.subs)).
		Msg("Subscriber added")
}

// Unsubscribe removes the subscriber or function handler with the given id.
func (eb *EventBus) Unsubscribe(id string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for i, s := range eb.subs {
		if s.ID() == id {
			eb.subs = append(eb.subs[:i:i], eb.subs[i+1:]...)
			eb.logger.Debug().Str("subscriber_id", id).Msg("Subscriber removed")
			return
		}
	}
	for i, h := range eb.handlers {
		if h.id == id {
			eb.handlers = append(eb.handlers[:i:i], eb.handlers[i+1:]...)
			eb.logger.Debug().Str("handler_id", id).Msg("Function handler removed")
			return
		}
	}
}

// SubscribeFunc registers fn for eventType, or for every type with
// AllEvents. The returned id can be passed to Unsubscribe.
func (eb *EventBus) SubscribeFunc(eventType string, fn EventHandler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := fmt.Sprintf("func-%d:%s", eb.nextID, eventType)
	eb.handlers = append(eb.handlers, funcHandler{id: id, eventType: eventType, fn: fn})
	return id
}

// Publish delivers event to every interested subscriber and matching
// function handler. A panicking handler is logged and skipped.
func (eb *EventBus) Publish(event Event) {
	eventType := event.Type()

	eb.mu.RLock()
	subs := make([]Subscriber, 0, len(eb.subs))
	for _, s := range eb.subs {
		if s.InterestedIn(eventType) {
			subs = append(subs, s)
		}
	}
	var handlers []funcHandler
	for _, h := range eb.handlers {
		if h.eventType == eventType || h.eventType == AllEvents {
			handlers = append(handlers, h)
		}
	}
	eb.mu.RUnlock()

	if e := eb.logger.Trace(); e.Enabled() {
		e.Str("event_type", eventType).
			Str("room", event.GameID()).
			Int("subscribers", len(subs)).
			Int("handlers", len(handlers)).
			Msg("Publishing event")
	}

	for _, s := range subs {
		eb.deliver(s.ID(), eventType, func() { s.HandleEvent(event) })
	}
	for _, h := range handlers {
		eb.deliver(h.id, eventType, func() { h.fn(event) })
	}
}

func (eb *EventBus) deliver(id, eventType string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error().
				Str("handler_id", id).
				Str("event_type", eventType).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	fn()
}

// GetSubscriberCount returns the number of subscribers for debugging
func (eb *EventBus) GetSubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subs)
}

// GetFuncHandlerCount returns the number of function handlers registered
// for exactly eventType.
func (eb *EventBus) GetFuncHandlerCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	n := 0
	for _, h := range eb.handlers {
		if h.eventType == eventType {
			n++
		}
	}
	return n
}
