package events

import (
	"time"
)

// Event is an immutable fact appended to a stream of the event store
type Event interface {
	Type() string
	StreamID() string
	Data() any
	Timestamp() time.Time
	Version() int
}

// EventHandler receives events of the types it subscribed to
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends versioned events to a single log and fans them out to
// subscribers. Versions count per stream; positions count across the log.
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadAllEvents(fromPosition int) ([]Event, error)
	Position() int
	Subscribe(eventTypes []string, handler EventHandler) error
}

// BaseEvent is the concrete Event stored by InMemoryEventStore
type BaseEvent struct {
	EventType    string
	Stream       string
	EventData    any
	EventTime    time.Time
	EventVersion int
}

func (e BaseEvent) Type() string {
	return e.EventType
}

func (e BaseEvent) StreamID() string {
	return e.Stream
}

func (e BaseEvent) Data() any {
	return e.EventData
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

func (e BaseEvent) Version() int {
	return e.EventVersion
}

// NewEvent builds an event stamped at t; the store assigns its version
func NewEvent(eventType, streamID string, data any, t time.Time) Event {
	return BaseEvent{
		EventType:    eventType,
		Stream:       streamID,
		EventData:    data,
		EventTime:    t,
		EventVersion: 1,
	}
}
