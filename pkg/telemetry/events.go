package telemetry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a telemetry event in the Strata system.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// Document is the associated document name, if applicable.
	Document string `json:"document,omitempty"`

	// Layer is the associated layer name, if applicable.
	Layer string `json:"layer,omitempty"`

	// Setting is the associated setting name, if applicable.
	Setting string `json:"setting,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeDocumentLoaded = "document.loaded"
	EventTypeDocumentSaved  = "document.saved"
	EventTypeGraphBuilt     = "graph.built"
	EventTypeLayerCreated   = "layer.created"
	EventTypeSettingChanged = "setting.changed"
	EventTypeSettingCleared = "setting.cleared"
	EventTypeReloadFailed   = "reload.failed"
	EventTypeError          = "error"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher manages event publishing and subscriptions.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	filters     []EventFilter
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	ep := &EventPublisher{
		config:      cfg,
		buffer:      make(chan Event, cfg.BufferSize),
		subscribers: make([]subscriberEntry, 0),
		filters:     make([]EventFilter, 0),
		ctx:         ctx,
		cancel:      cancel,
	}

	if cfg.EnableAsync {
		ep.wg.Add(1)
		go ep.processEvents()
	}

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	ep.mu.RLock()
	for _, filter := range ep.filters {
		if !filter(event) {
			ep.mu.RUnlock()
			return nil // Event filtered out
		}
	}
	ep.mu.RUnlock()

	if ep.config.EnableAsync {
		select {
		case ep.buffer <- event:
			return nil
		case <-ep.ctx.Done():
			return fmt.Errorf("event publisher stopped")
		default:
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	ep.deliverEvent(event)
	return nil
}

// PublishDocumentLoaded publishes a document loaded event.
func (ep *EventPublisher) PublishDocumentLoaded(document string, sources []string) error {
	return ep.Publish(Event{
		Type:     EventTypeDocumentLoaded,
		Source:   "parser",
		Document: document,
		Message:  fmt.Sprintf("Document %s loaded from %s", document, strings.Join(sources, ", ")),
		Level:    EventLevelInfo,
		Data: map[string]interface{}{
			"sources": sources,
		},
	})
}

// PublishDocumentSaved publishes a document saved event.
func (ep *EventPublisher) PublishDocumentSaved(document string) error {
	return ep.Publish(Event{
		Type:     EventTypeDocumentSaved,
		Source:   "store",
		Document: document,
		Message:  fmt.Sprintf("Document %s saved", document),
		Level:    EventLevelInfo,
	})
}

// PublishGraphBuilt publishes a graph built event.
func (ep *EventPublisher) PublishGraphBuilt(document string, layers, settings int) error {
	return ep.Publish(Event{
		Type:     EventTypeGraphBuilt,
		Source:   "graph",
		Document: document,
		Message:  fmt.Sprintf("Graph built for %s: %d layers, %d settings", document, layers, settings),
		Level:    EventLevelInfo,
		Data: map[string]interface{}{
			"layers":   layers,
			"settings": settings,
		},
	})
}

// PublishLayerCreated publishes a layer created event.
func (ep *EventPublisher) PublishLayerCreated(layer, parent string) error {
	return ep.Publish(Event{
		Type:    EventTypeLayerCreated,
		Source:  "graph",
		Layer:   layer,
		Message: fmt.Sprintf("Layer %s created from %s", layer, parent),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"parent": parent,
		},
	})
}

// PublishSettingChanged publishes a setting changed event.
func (ep *EventPublisher) PublishSettingChanged(layer, setting string) error {
	return ep.Publish(Event{
		Type:    EventTypeSettingChanged,
		Source:  "graph",
		Layer:   layer,
		Setting: setting,
		Message: fmt.Sprintf("Setting %s changed on layer %s", setting, layer),
		Level:   EventLevelInfo,
	})
}

// PublishSettingCleared publishes a setting cleared event.
func (ep *EventPublisher) PublishSettingCleared(layer, setting string) error {
	return ep.Publish(Event{
		Type:    EventTypeSettingCleared,
		Source:  "graph",
		Layer:   layer,
		Setting: setting,
		Message: fmt.Sprintf("Setting %s cleared on layer %s", setting, layer),
		Level:   EventLevelInfo,
	})
}

// PublishReloadFailed publishes a reload failed event.
func (ep *EventPublisher) PublishReloadFailed(document, reason string) error {
	return ep.Publish(Event{
		Type:     EventTypeReloadFailed,
		Source:   "watcher",
		Document: document,
		Message:  fmt.Sprintf("Reload of %s failed: %s", document, reason),
		Level:    EventLevelError,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// Subscribe adds a new event subscriber.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// AddFilter adds a global event filter.
func (ep *EventPublisher) AddFilter(filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.filters = append(ep.filters, filter)
}

// processEvents processes events from the buffer asynchronously.
func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	batch := make([]Event, 0, ep.config.MaxBatchSize)

	for {
		select {
		case event := <-ep.buffer:
			batch = append(batch, event)

			if len(batch) >= ep.config.MaxBatchSize {
				ep.flushBatch(batch)
				batch = make([]Event, 0, ep.config.MaxBatchSize)
			}

		case <-ep.ctx.Done():
			// Drain the buffer and flush before shutting down
			for {
				select {
				case event := <-ep.buffer:
					batch = append(batch, event)
				default:
					if len(batch) > 0 {
						ep.flushBatch(batch)
					}
					return
				}
			}
		}
	}
}

// flushBatch delivers a batch of events to subscribers.
func (ep *EventPublisher) flushBatch(events []Event) {
	for _, event := range events {
		ep.deliverEvent(event)
	}
}

// deliverEvent delivers an event to all subscribers.
func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown gracefully shuts down the event publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if !ep.config.Enabled || ep.cancel == nil {
		return nil
	}

	ep.cancel()

	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// Common event filters.

// FilterByLevel creates a filter that only allows events of a specific level or higher.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}

	minLevelValue := levels[minLevel]

	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool)
	for _, t := range types {
		typeSet[t] = true
	}

	return func(event Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByLayer creates a filter that only allows events for a specific layer.
func FilterByLayer(layer string) EventFilter {
	return func(event Event) bool {
		return event.Layer == layer
	}
}
