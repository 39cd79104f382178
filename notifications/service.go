// Package notifications broadcasts pipeline and task-list events to SSE
// subscribers and maintains the derived notification center state.
package notifications

import (
	"sync"
	"time"
)

// EventType identifies a notification event
type EventType string

const (
	EventConnected      EventType = "connected"
	EventStatus         EventType = "status"
	EventSummaryUpdated EventType = "summary-updated"
	EventTaskPosted     EventType = "task-posted"
	EventTaskDismissed  EventType = "task-dismissed"
	EventTasksCleared   EventType = "tasks-cleared"
)

// Event is one notification event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Service manages SSE subscriptions and event broadcasting
type Service struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	done        chan struct{}
}

// NewService creates a new notification service
func NewService() *Service {
	return &Service{
		subscribers: make(map[chan Event]struct{}),
		done:        make(chan struct{}),
	}
}

// Subscribe creates a new subscription channel.
// Returns the event channel and an unsubscribe function.
// After Shutdown the returned channel is already closed.
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 10)

	s.mu.Lock()
	if s.isShutdown() {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, exists := s.subscribers[ch]; exists {
			delete(s.subscribers, ch)
			close(ch)
		}
	}

	return ch, unsubscribe
}

// Notify broadcasts an event to all subscribers. Non-blocking: a subscriber
// with a full channel misses the event. Events after Shutdown are dropped.
func (s *Service) Notify(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.isShutdown() {
		return
	}

	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Shutdown closes the notification service and all subscriber channels.
// Idempotent; later Notify and Subscribe calls are no-ops.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isShutdown() {
		return
	}

	close(s.done)
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan Event]struct{})
}

// isShutdown reports whether Shutdown has run. Caller holds the lock.
func (s *Service) isShutdown() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// SubscriberCount returns the number of active subscribers
func (s *Service) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
