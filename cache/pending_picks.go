package cache

import (
	"context"
	"sync"
	"time"

	"pickem-go/models"
)

// PendingPicksTTL is how long an anonymous visitor's staged picks survive
const PendingPicksTTL = 24 * time.Hour

// PendingPickStore holds picks submitted before login, keyed by an opaque
// session token.
type PendingPickStore interface {
	// Stage merges picks into whatever is already staged for token and
	// returns the combined set
	Stage(ctx context.Context, token string, picks models.PendingPicks) (models.PendingPicks, error)
	// Take returns and forgets the picks staged for token
	Take(ctx context.Context, token string) (models.PendingPicks, error)
}

type memoryEntry struct {
	picks   models.PendingPicks
	expires time.Time
}

// MemoryPendingPickStore is the in-process PendingPickStore
type MemoryPendingPickStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryPendingPickStore() *MemoryPendingPickStore {
	return &MemoryPendingPickStore{
		entries: make(map[string]memoryEntry),
		ttl:     PendingPicksTTL,
		now:     time.Now,
	}
}

func (s *MemoryPendingPickStore) Stage(ctx context.Context, token string, picks models.PendingPicks) (models.PendingPicks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictExpired(now)

	merged := s.entries[token].picks.Merge(picks)
	s.entries[token] = memoryEntry{picks: merged, expires: now.Add(s.ttl)}
	return merged, nil
}

func (s *MemoryPendingPickStore) Take(ctx context.Context, token string) (models.PendingPicks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired(s.now())

	entry, ok := s.entries[token]
	if !ok {
		return models.PendingPicks{}, nil
	}
	delete(s.entries, token)
	return entry.picks, nil
}

func (s *MemoryPendingPickStore) evictExpired(now time.Time) {
	for token, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, token)
		}
	}
}
