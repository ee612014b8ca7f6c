package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventAutomationToggled    EventType = "AUTOMATION_TOGGLED"
	EventScannerConfigUpdated EventType = "SCANNER_CONFIG_UPDATED"
	EventPostGenerated        EventType = "POST_GENERATED"
	EventFeedStarted          EventType = "FEED_STARTED"
	EventFeedStopped          EventType = "FEED_STOPPED"
	EventWorkflowUpdated      EventType = "WORKFLOW_UPDATED"
	EventError                EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
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
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	// Set timestamp if not provided
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Notify specific subscribers
	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	// Notify all-event subscribers
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishAutomationToggled publishes a toggle change with the resulting state
func (eb *EventBus) PublishAutomationToggled(key string, value bool, state interface{}) {
	eb.Publish(Event{
		Type: EventAutomationToggled,
		Data: map[string]interface{}{
			"key":   key,
			"value": value,
			"state": state,
		},
	})
}

// PublishScannerConfigUpdated publishes the merged scanner configuration
func (eb *EventBus) PublishScannerConfigUpdated(config interface{}, changedFields []string) {
	eb.Publish(Event{
		Type: EventScannerConfigUpdated,
		Data: map[string]interface{}{
			"config":         config,
			"changed_fields": changedFields,
		},
	})
}

// PublishPostGenerated publishes a newly generated feed post
func (eb *EventBus) PublishPostGenerated(post interface{}) {
	eb.Publish(Event{
		Type: EventPostGenerated,
		Data: map[string]interface{}{
			"post": post,
		},
	})
}

// PublishFeedStarted publishes feed generator startup
func (eb *EventBus) PublishFeedStarted(intervalSeconds int) {
	eb.Publish(Event{
		Type: EventFeedStarted,
		Data: map[string]interface{}{
			"interval_seconds": intervalSeconds,
		},
	})
}

// PublishFeedStopped publishes feed generator shutdown
func (eb *EventBus) PublishFeedStopped(reason string) {
	eb.Publish(Event{
		Type: EventFeedStopped,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishWorkflowUpdated publishes a canvas change
func (eb *EventBus) PublishWorkflowUpdated(action, id string) {
	eb.Publish(Event{
		Type: EventWorkflowUpdated,
		Data: map[string]interface{}{
			"action": action,
			"id":     id,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
