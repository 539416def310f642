package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]Profile
	logger   *logging.Logger
	now      func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(logger *logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryStore{profiles: make(map[string]Profile), logger: logger, now: time.Now}
}

// GetOrCreate returns the stored profile or creates a blank one.
func (m *MemoryStore) GetOrCreate(_ context.Context, senderID string) (Profile, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return Profile{}, ErrSenderRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, _ := m.getOrCreateLocked(senderID)
	return p, nil
}

// MergeDetails applies the present fields.
func (m *MemoryStore) MergeDetails(_ context.Context, senderID string, details Details) (MergeResult, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return MergeResult{}, ErrSenderRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, created := m.getOrCreateLocked(senderID)
	if details.Empty() {
		m.logger.Info("users: merge skipped, no details supplied", "sender_id", senderID)
		return MergeResult{Profile: p, Action: ActionUnchanged}, nil
	}
	p = details.Apply(p)
	p.UpdatedAt = m.now().UTC()
	m.profiles[senderID] = p

	action := ActionUpdated
	if created {
		action = ActionCreated
	}
	return MergeResult{Profile: p, Action: action}, nil
}

func (m *MemoryStore) getOrCreateLocked(senderID string) (Profile, bool) {
	if p, ok := m.profiles[senderID]; ok {
		return p, false
	}
	now := m.now().UTC()
	p := Profile{SenderID: senderID, CreatedAt: now, UpdatedAt: now}
	m.profiles[senderID] = p
	return p, true
}

// Len reports how many profiles are stored.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.profiles)
}
