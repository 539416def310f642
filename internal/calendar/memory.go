package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryProvider keeps events in process. Used for local runs and tests.
type MemoryProvider struct {
	mu     sync.Mutex
	events map[string][]storedEvent
	seq    int
}

type storedEvent struct {
	id string
	Event
}

// NewMemoryProvider returns an empty in-memory calendar.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{events: make(map[string][]storedEvent)}
}

// CheckAvailability reports whether no stored event overlaps [start, end).
func (m *MemoryProvider) CheckAvailability(_ context.Context, calendarID string, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events[calendarID] {
		if ev.Start.Before(end) && start.Before(ev.End) {
			return false, nil
		}
	}
	return true, nil
}

// CreateEvent stores the event. It does not check for overlaps.
func (m *MemoryProvider) CreateEvent(_ context.Context, calendarID string, event Event) (string, error) {
	if !event.End.After(event.Start) {
		return "", fmt.Errorf("calendar: event end must be after start")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("evt-%d", m.seq)
	m.events[calendarID] = append(m.events[calendarID], storedEvent{id: id, Event: event})
	return id, nil
}

// Events returns a copy of the events stored for calendarID.
func (m *MemoryProvider) Events(calendarID string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, 0, len(m.events[calendarID]))
	for _, ev := range m.events[calendarID] {
		out = append(out, ev.Event)
	}
	return out
}
