package navstate

import (
	"context"
	"sync"
	"time"

	"lineage/internal/genealogy/navigator"
	"lineage/pkg/platform/sentinel"
	"lineage/pkg/requestcontext"
)

// InMemoryStore keeps navigation state in process memory. Entries expire after
// the configured TTL; a zero TTL keeps them forever.
type InMemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	path      []string
	expiresAt time.Time
}

// NewInMemory returns an empty store.
func NewInMemory(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (s *InMemoryStore) Save(ctx context.Context, sessionID string, state navigator.State) error {
	entry := memoryEntry{path: append([]string(nil), state.Path...)}
	if s.ttl > 0 {
		entry.expiresAt = requestcontext.Now(ctx).Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = entry
	return nil
}

func (s *InMemoryStore) Load(ctx context.Context, sessionID string) (navigator.State, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return navigator.State{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !requestcontext.Now(ctx).Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return navigator.State{}, false, nil
	}
	return navigator.State{Path: append([]string(nil), entry.path...)}, true, nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[sessionID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.entries, sessionID)
	return nil
}
