package lastgame

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	codeName string
	expires  time.Time
}

// Memory is an in-process last-game store. Useful for single-node runs and
// tests; records expire lazily on lookup.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uuid.UUID]memoryEntry

	now func() time.Time
}

// NewMemory creates an in-memory store with the given TTL (zero uses
// DefaultTTL).
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		entries: make(map[uuid.UUID]memoryEntry),
		now:     time.Now,
	}
}

// Record notes that the player last played the named session.
func (s *Memory) Record(id uuid.UUID, codeName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{codeName: codeName, expires: s.now().Add(s.ttl)}
	return nil
}

// Lookup returns the player's last session code name, or ErrNoRecord.
func (s *Memory) Lookup(id uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return "", ErrNoRecord
	}
	if s.now().After(entry.expires) {
		delete(s.entries, id)
		return "", ErrNoRecord
	}
	return entry.codeName, nil
}
