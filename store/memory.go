package store

import (
	"context"
	"sync"
	"time"

	"auramythos/generator"
	"auramythos/metrics"
)

// MemoryStore keeps sessions in process memory. Entries older than ttl are
// treated as missing and dropped on access.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	snap    generator.Snapshot
	touched time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, snap generator.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[snap.ID] = memoryEntry{snap: copySnapshot(snap), touched: s.now()}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (generator.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return generator.Snapshot{}, ErrNotFound
	}
	if s.ttl > 0 && s.now().Sub(e.touched) > s.ttl {
		delete(s.sessions, id)
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
		return generator.Snapshot{}, ErrNotFound
	}
	return copySnapshot(e.snap), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return nil
}

func copySnapshot(snap generator.Snapshot) generator.Snapshot {
	history := make([]generator.ConversationTurn, len(snap.History))
	copy(history, snap.History)
	snap.History = history
	return snap
}

var _ Store = (*MemoryStore)(nil)
