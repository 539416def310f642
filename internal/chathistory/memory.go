package chathistory

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store and Lister.
type MemoryStore struct {
	mu    sync.RWMutex
	turns []Turn
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Append stores the turn.
func (m *MemoryStore) Append(_ context.Context, turn Turn) (Turn, error) {
	turn, err := prepare(turn, m.now())
	if err != nil {
		return Turn{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	return turn, nil
}

// Recent returns the newest limit turns for the pair, oldest first.
func (m *MemoryStore) Recent(_ context.Context, businessID, senderID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Turn
	for i := len(m.turns) - 1; i >= 0 && len(out) < limit; i-- {
		t := m.turns[i]
		if t.BusinessID == businessID && t.SenderID == senderID {
			out = append(out, t)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// List pages through a business's turns newest first.
func (m *MemoryStore) List(_ context.Context, q Query) (Page, error) {
	q = q.normalized()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Turn
	for i := len(m.turns) - 1; i >= 0; i-- {
		t := m.turns[i]
		if t.BusinessID != q.BusinessID {
			continue
		}
		if q.From != nil && t.Timestamp.Before(*q.From) {
			continue
		}
		if q.To != nil && t.Timestamp.After(*q.To) {
			continue
		}
		matched = append(matched, t)
	}
	page := Page{Messages: []Turn{}, TotalCount: len(matched)}
	if q.Offset < len(matched) {
		end := q.Offset + q.Limit
		if end > len(matched) {
			end = len(matched)
		}
		page.Messages = append(page.Messages, matched[q.Offset:end]...)
	}
	return page, nil
}

// All returns every stored turn in insertion order.
func (m *MemoryStore) All() []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Turn(nil), m.turns...)
}
