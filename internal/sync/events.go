// Package sync implements the local-first synchronization engine.
package sync

import "time"

// EventType identifies a sync lifecycle event.
type EventType string

const (
	EventRunStarted        EventType = "run_started"
	EventRunCompleted      EventType = "run_completed"
	EventRunFailed         EventType = "run_failed"
	EventBatchRejected     EventType = "batch_rejected"
	EventOfflineTransition EventType = "offline_transition"
	EventOnlineTransition  EventType = "online_transition"
)

// Event is a sync lifecycle notification delivered to registered
// handlers.
type Event struct {
	Type     EventType
	UserID   string
	Rejected int
	Err      error
	At       time.Time
}

// EventHandler receives sync lifecycle events. Handlers are invoked
// synchronously on the sync goroutine and must not block.
type EventHandler interface {
	HandleSyncEvent(ev Event)
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(ev Event)

// HandleSyncEvent calls f(ev).
func (f EventHandlerFunc) HandleSyncEvent(ev Event) {
	f(ev)
}
