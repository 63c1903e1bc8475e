package events

import (
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore keeps the event log of one process. Subscribers are
// notified synchronously, in append order, after the store lock is released.
type InMemoryEventStore struct {
	mutex       sync.RWMutex
	log         []Event
	versions    map[string]int
	subscribers map[string][]EventHandler
	logger      *zap.Logger
}

// NewInMemoryEventStore creates an empty store; handler failures go to logger
func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		versions:    make(map[string]int),
		subscribers: make(map[string][]EventHandler),
		logger:      logger,
	}
}

// Verify interface compliance
var _ EventStore = (*InMemoryEventStore)(nil)

// AppendEvent stamps event with the next version of streamID and logs it
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	s.versions[streamID]++
	stored := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: s.versions[streamID],
	}
	s.log = append(s.log, stored)
	handlers := append([]EventHandler(nil), s.subscribers[event.Type()]...)
	s.mutex.Unlock()

	s.notify(handlers, stored)
	return nil
}

// ReadAllEvents returns the log from position on, across all streams
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= len(s.log) {
		return []Event{}, nil
	}
	return append([]Event(nil), s.log[fromPosition:]...), nil
}

// Position is the number of events logged so far
func (s *InMemoryEventStore) Position() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.log)
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}

func (s *InMemoryEventStore) notify(handlers []EventHandler, event Event) {
	for _, h := range handlers {
		if !h.CanHandle(event.Type()) {
			continue
		}
		if err := h.Handle(event); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event_type", event.Type()),
				zap.String("stream", event.StreamID()),
				zap.Error(err))
		}
	}
}

// InStream keeps the events of list belonging to streamID
func InStream(list []Event, streamID string) []Event {
	out := make([]Event, 0, len(list))
	for _, e := range list {
		if e.StreamID() == streamID {
			out = append(out, e)
		}
	}
	return out
}
