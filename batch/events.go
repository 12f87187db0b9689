package batch

import (
	"sync"
	"time"
)

// EventType represents the type of batch event.
type EventType string

const (
	// Run lifecycle events
	EventRunStarted   EventType = "run_started"
	EventRunCompleted EventType = "run_completed"

	// Per-file events
	EventFileStarted EventType = "file_started"
	EventFileParsed  EventType = "file_parsed"
	EventFileFailed  EventType = "file_failed"
)

// Event represents an observable batch event with typed data.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// EventEmitter manages event listeners and dispatches events.
type EventEmitter struct {
	mu        sync.RWMutex
	listeners []func(Event)
}

// NewEventEmitter creates a new EventEmitter.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{
		listeners: make([]func(Event), 0),
	}
}

// On registers a listener. Listeners are called synchronously in
// registration order, from whichever worker emitted the event.
func (e *EventEmitter) On(listener func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// Emit dispatches an event to all registered listeners. A nil emitter
// drops the event.
func (e *EventEmitter) Emit(event Event) {
	if e == nil {
		return
	}
	e.mu.RLock()
	listeners := make([]func(Event), len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// ListenerCount returns the number of registered listeners.
func (e *EventEmitter) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}

// RunStartedEvent creates a run_started event.
func RunStartedEvent(runID string, files, jobs int) Event {
	return Event{
		Type:      EventRunStarted,
		Timestamp: time.Now(),
		Data: map[string]any{
			"run_id": runID,
			"files":  files,
			"jobs":   jobs,
		},
	}
}

// RunCompletedEvent creates a run_completed event.
func RunCompletedEvent(runID string, duration time.Duration, parsed, failed int) Event {
	return Event{
		Type:      EventRunCompleted,
		Timestamp: time.Now(),
		Data: map[string]any{
			"run_id":      runID,
			"duration_ms": duration.Milliseconds(),
			"parsed":      parsed,
			"failed":      failed,
		},
	}
}

// FileStartedEvent creates a file_started event.
func FileStartedEvent(name string, index int) Event {
	return Event{
		Type:      EventFileStarted,
		Timestamp: time.Now(),
		Data: map[string]any{
			"name":  name,
			"index": index,
		},
	}
}

// FileParsedEvent creates a file_parsed event.
func FileParsedEvent(name string, index, diagrams int, duration time.Duration) Event {
	return Event{
		Type:      EventFileParsed,
		Timestamp: time.Now(),
		Data: map[string]any{
			"name":        name,
			"index":       index,
			"diagrams":    diagrams,
			"duration_ms": duration.Milliseconds(),
		},
	}
}

// FileFailedEvent creates a file_failed event.
func FileFailedEvent(name string, index int, err string) Event {
	return Event{
		Type:      EventFileFailed,
		Timestamp: time.Now(),
		Data: map[string]any{
			"name":  name,
			"index": index,
			"error": err,
		},
	}
}
