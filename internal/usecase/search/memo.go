package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/campusquest/coursedex/internal/domain/search/result"
)

// DefaultMemoMaxEntries bounds the memo when no limit is configured.
const DefaultMemoMaxEntries = 1024

// memoEntry is one remembered search outcome.
type memoEntry struct {
	results []result.Result
	total   int
}

// memo remembers complete search outcomes keyed by the full request identity
// (normalized query, facet selection, k, catalog version). The catalog never
// changes after load, so entries stay valid for the process lifetime.
type memo struct {
	mu      sync.RWMutex
	entries map[string]memoEntry
	max     int
}

func newMemo(maxEntries int) *memo {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoMaxEntries
	}
	return &memo{
		entries: make(map[string]memoEntry),
		max:     maxEntries,
	}
}

func (m *memo) get(key string) (memoEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *memo) put(key string, e memoEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.max {
		// Drop an arbitrary entry to stay bounded.
		for k := range m.entries {
			delete(m.entries, k)
			break
		}
	}
	m.entries[key] = e
}

func (m *memo) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// memoKey builds the request identity hash.
func memoKey(normalizedQuery, catalogVersion, facetKey string, k int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", normalizedQuery, catalogVersion, facetKey, k)
	return hex.EncodeToString(h.Sum(nil))
}
