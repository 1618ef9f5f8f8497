package watcher

import "time"

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventCallStarted   EventType = "call_started"
	EventCallSucceeded EventType = "call_succeeded"
	EventCallFailed    EventType = "call_failed"
	EventRefreshFailed EventType = "refresh_failed"
	EventSupplyUpdated EventType = "supply_updated"
)

// Event represents a view lifecycle event.
type Event struct {
	Type EventType   `json:"type"`
	View string      `json:"view"`
	Call string      `json:"call,omitempty"`
	Data interface{} `json:"data,omitempty"`
	Time time.Time   `json:"time"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
