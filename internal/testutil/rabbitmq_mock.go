package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// PublishedEvent is one event captured by MockPublisher.
type PublishedEvent struct {
	RoutingKey string
	EventData  interface{}
	Timestamp  time.Time
	RawJSON    []byte
}

// MockPublisher records events in memory instead of sending them to a broker.
// Events are still marshaled so payloads that would fail on the wire fail here.
type MockPublisher struct {
	mu     sync.RWMutex
	events []PublishedEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, routingKey string, eventData interface{}) error {
	raw, err := json.Marshal(eventData)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.events = append(m.events, PublishedEvent{
		RoutingKey: routingKey,
		EventData:  eventData,
		Timestamp:  time.Now(),
		RawJSON:    raw,
	})
	m.mu.Unlock()
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// byKey returns the captured events for routingKey in publish order.
func (m *MockPublisher) byKey(routingKey string) []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []PublishedEvent
	for _, ev := range m.events {
		if ev.RoutingKey == routingKey {
			out = append(out, ev)
		}
	}
	return out
}

func (m *MockPublisher) GetEventCountByKey(routingKey string) int {
	return len(m.byKey(routingKey))
}

// GetLastEventByKey returns nil when nothing was published under routingKey.
func (m *MockPublisher) GetLastEventByKey(routingKey string) *PublishedEvent {
	events := m.byKey(routingKey)
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

func (m *MockPublisher) AssertEventPublished(t *testing.T, routingKey string) {
	t.Helper()
	if m.GetEventCountByKey(routingKey) == 0 {
		t.Errorf("Expected a %q event, none were published", routingKey)
	}
}

func (m *MockPublisher) AssertEventNotPublished(t *testing.T, routingKey string) {
	t.Helper()
	if n := m.GetEventCountByKey(routingKey); n > 0 {
		t.Errorf("Expected no %q events, got %d", routingKey, n)
	}
}

func (m *MockPublisher) AssertEventCount(t *testing.T, routingKey string, expected int) {
	t.Helper()
	if n := m.GetEventCountByKey(routingKey); n != expected {
		t.Errorf("Expected %d %q events, got %d", expected, routingKey, n)
	}
}
