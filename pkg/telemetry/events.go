package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a telemetry event in the xmute system.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// JobID is the associated job ID, if applicable.
	JobID string `json:"job_id,omitempty"`

	// StepID is the associated plan step ID, if applicable.
	StepID string `json:"step_id,omitempty"`

	// ConverterID is the associated converter ID, if applicable.
	ConverterID string `json:"converter_id,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeJobStarted      = "job.started"
	EventTypeJobCompleted    = "job.completed"
	EventTypeJobFailed       = "job.failed"
	EventTypeStepStarted     = "step.started"
	EventTypeStepCompleted   = "step.completed"
	EventTypeStepFailed      = "step.failed"
	EventTypePolicyViolation = "policy.violation"
	EventTypeConverterInvoked = "converter.invoked"
	EventTypeError            = "error"
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

	// Start the event processing goroutine
	if cfg.EnableAsync {
		ep.wg.Add(1)
		go ep.processEvents()
	}

	// Start the periodic flush goroutine
	if cfg.FlushInterval > 0 {
		ep.wg.Add(1)
		go ep.periodicFlush()
	}

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	// Set ID and timestamp if not already set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Apply global filters
	ep.mu.RLock()
	for _, filter := range ep.filters {
		if !filter(event) {
			ep.mu.RUnlock()
			return nil // Event filtered out
		}
	}
	ep.mu.RUnlock()

	// Send to buffer if async, otherwise process immediately
	if ep.config.EnableAsync {
		select {
		case ep.buffer <- event:
			return nil
		case <-ep.ctx.Done():
			return fmt.Errorf("event publisher stopped")
		default:
			// Buffer full, drop event or log warning
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	// Synchronous publishing
	ep.deliverEvent(event)
	return nil
}

// PublishJobStarted publishes a job started event.
func (ep *EventPublisher) PublishJobStarted(jobID, caller string) error {
	return ep.Publish(Event{
		Type:    EventTypeJobStarted,
		Source:  "executor",
		JobID:   jobID,
		Message: fmt.Sprintf("Job %s started by %s", jobID, caller),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"caller": caller,
		},
	})
}

// PublishJobCompleted publishes a job completed event.
func (ep *EventPublisher) PublishJobCompleted(jobID, status string, duration time.Duration) error {
	return ep.Publish(Event{
		Type:    EventTypeJobCompleted,
		Source:  "executor",
		JobID:   jobID,
		Message: fmt.Sprintf("Job %s completed with status: %s", jobID, status),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"status":   status,
			"duration": duration.Seconds(),
		},
	})
}

// PublishJobFailed publishes a job failed event.
func (ep *EventPublisher) PublishJobFailed(jobID, reason string) error {
	return ep.Publish(Event{
		Type:    EventTypeJobFailed,
		Source:  "executor",
		JobID:   jobID,
		Message: fmt.Sprintf("Job %s failed: %s", jobID, reason),
		Level:   EventLevelError,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishStepStarted publishes a plan step started event.
func (ep *EventPublisher) PublishStepStarted(jobID, stepID, converterID, operation string) error {
	return ep.Publish(Event{
		Type:        EventTypeStepStarted,
		Source:      "executor",
		JobID:       jobID,
		StepID:      stepID,
		ConverterID: converterID,
		Message:     fmt.Sprintf("Step %s started: %s via converter %s", stepID, operation, converterID),
		Level:       EventLevelInfo,
		Data: map[string]interface{}{
			"operation": operation,
		},
	})
}

// PublishStepCompleted publishes a plan step completed event.
func (ep *EventPublisher) PublishStepCompleted(jobID, stepID, converterID string, duration time.Duration) error {
	return ep.Publish(Event{
		Type:        EventTypeStepCompleted,
		Source:      "executor",
		JobID:       jobID,
		StepID:      stepID,
		ConverterID: converterID,
		Message:     fmt.Sprintf("Step %s completed via converter %s", stepID, converterID),
		Level:       EventLevelInfo,
		Data: map[string]interface{}{
			"duration": duration.Seconds(),
		},
	})
}

// PublishStepFailed publishes a plan step failed event.
func (ep *EventPublisher) PublishStepFailed(jobID, stepID, converterID, reason string) error {
	return ep.Publish(Event{
		Type:        EventTypeStepFailed,
		Source:      "executor",
		JobID:       jobID,
		StepID:      stepID,
		ConverterID: converterID,
		Message:     fmt.Sprintf("Step %s failed via converter %s: %s", stepID, converterID, reason),
		Level:       EventLevelError,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishPolicyViolation publishes a scope-boundary policy violation event.
func (ep *EventPublisher) PublishPolicyViolation(jobID, policyName, reason string) error {
	return ep.Publish(Event{
		Type:    EventTypePolicyViolation,
		Source:  "policy_engine",
		JobID:   jobID,
		Message: fmt.Sprintf("Policy violation on job %s: %s - %s", jobID, policyName, reason),
		Level:   EventLevelError,
		Data: map[string]interface{}{
			"policy": policyName,
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

	var tick <-chan time.Time
	if ep.config.FlushInterval > 0 {
		ticker := time.NewTicker(ep.config.FlushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case event := <-ep.buffer:
			batch = append(batch, event)

			// Flush batch if it reaches max size
			if len(batch) >= ep.config.MaxBatchSize {
				ep.flushBatch(batch)
				batch = make([]Event, 0, ep.config.MaxBatchSize)
			}

		case <-tick:
			if len(batch) > 0 {
				ep.flushBatch(batch)
				batch = make([]Event, 0, ep.config.MaxBatchSize)
			}

		case <-ep.ctx.Done():
			// Drain queued events, then flush them before shutting down
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

// periodicFlush runs a ticker until shutdown; the timed flush of the
// pending batch itself happens in processEvents.
func (ep *EventPublisher) periodicFlush() {
	defer ep.wg.Done()

	ticker := time.NewTicker(ep.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Trigger flush by draining buffer
			// This is handled by the processEvents goroutine
		case <-ep.ctx.Done():
			return
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
		// Apply subscriber-specific filter
		if entry.filter != nil && !entry.filter(event) {
			continue
		}

		// Call subscriber in a goroutine to avoid blocking
		go entry.subscriber(event)
	}
}

// Shutdown gracefully shuts down the event publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if !ep.config.Enabled {
		return nil
	}

	// Signal shutdown
	ep.cancel()

	// Wait for processing to complete with timeout
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

// FilterByJobID creates a filter that only allows events for a specific job.
func FilterByJobID(jobID string) EventFilter {
	return func(event Event) bool {
		return event.JobID == jobID
	}
}

// FilterByConverterID creates a filter that only allows events for a specific converter.
func FilterByConverterID(converterID string) EventFilter {
	return func(event Event) bool {
		return event.ConverterID == converterID
	}
}
