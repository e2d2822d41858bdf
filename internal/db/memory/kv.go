package memory

import (
	"context"
	"sync"
	"time"

	"github.com/campusquest/coursedex/internal/db"
)

// Compile-time check: Store implements db.KV.
var _ db.KV = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Store is an in-process db.KV for single-node deployments and tests.
type Store struct {
	mu   sync.RWMutex
	data map[string]entry
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string]entry)}
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.put(key, value, time.Time{})
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.put(key, value, time.Now().Add(ttl))
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close drops all entries.
func (s *Store) Close() {
	s.mu.Lock()
	s.data = make(map[string]entry)
	s.mu.Unlock()
}

func (s *Store) put(key string, value []byte, expiresAt time.Time) {
	v := make([]byte, len(value))
	copy(v, value)
	s.mu.Lock()
	s.data[key] = entry{value: v, expiresAt: expiresAt}
	s.mu.Unlock()
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
