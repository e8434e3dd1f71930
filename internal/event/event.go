// Package event provides a small synchronous publish/subscribe bus.
// Topics are hierarchical dotted names; a subscription pattern ending in
// ".*" matches every topic under that prefix.
package event

import (
	"strings"
	"sync"
	"time"
)

// Topic is a hierarchical event type (e.g., "applier.run.finished").
type Topic string

// Well-known topics published by the engine and the applier.
const (
	TopicModeChanged      Topic = "mode.changed"
	TopicMeshChanged      Topic = "mesh.changed"
	TopicSelectionChanged Topic = "selection.changed"
	TopicRunStarted       Topic = "applier.run.started"
	TopicRunStep          Topic = "applier.run.step"
	TopicRunFinished      Topic = "applier.run.finished"
	TopicConfigReload     Topic = "config.reloaded"
	TopicScriptLoaded     Topic = "script.loaded"
	TopicAssistRequest    Topic = "assist.requested"
)

// Matches reports whether the topic matches a subscription pattern.
// A pattern of "*" matches everything; "applier.*" matches any topic
// with the "applier." prefix; anything else matches exactly.
func (t Topic) Matches(pattern Topic) bool {
	if pattern == "*" || pattern == t {
		return true
	}
	if prefix, ok := strings.CutSuffix(string(pattern), ".*"); ok {
		return strings.HasPrefix(string(t), prefix+".")
	}
	return false
}

// Event is a published occurrence. Events are immutable once created.
type Event struct {
	// Type is the hierarchical event type.
	Type Topic

	// Source identifies the module that published the event.
	Source string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Data contains event-specific payload fields.
	Data map[string]any
}

// New creates an event with the given type, source and payload.
func New(eventType Topic, source string, data map[string]any) Event {
	return Event{
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Handler processes a published event.
type Handler func(Event)

type subscription struct {
	id      uint64
	pattern Topic
	handler Handler
}

// Bus delivers events to subscribers synchronously in subscription order.
// Handlers run on the publishing goroutine; a slow handler delays the
// publisher, never the relative order other subscribers observe.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	subs      []subscription
	published uint64
	delivered uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every topic matching the pattern.
// It returns an unsubscribe function.
func (b *Bus) Subscribe(pattern Topic, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, pattern: pattern, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to every matching subscriber.
// Handlers are invoked outside the bus lock.
func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.Lock()
	b.published++
	matched := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if ev.Type.Matches(s.pattern) {
			matched = append(matched, s.handler)
		}
	}
	b.delivered += uint64(len(matched))
	b.mu.Unlock()

	for _, h := range matched {
		h(ev)
	}
}

// Emit is shorthand for publishing a freshly stamped event.
func (b *Bus) Emit(eventType Topic, source string, data map[string]any) {
	b.Publish(New(eventType, source, data))
}

// Stats reports how many events were published and handler deliveries made.
func (b *Bus) Stats() (published, delivered uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.published, b.delivered
}
