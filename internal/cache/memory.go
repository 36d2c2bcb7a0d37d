package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryEntry is one cached payload with an explicit expiry instant
type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// memoryStore is the in-process fallback backend: a mutex-guarded map
// with explicit expiry timestamps, reaped periodically. It exists so the
// cache layer keeps working when no remote store is configured or the
// remote store is unreachable.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stop    chan struct{}
	once    sync.Once
}

func newMemoryStore(reapInterval time.Duration) *memoryStore {
	m := &memoryStore{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
	go m.reapLoop(reapInterval)
	return m
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.payload, true
}

func (m *memoryStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

// reapLoop drops expired entries so an idle process does not accumulate
// dead payloads between reads
func (m *memoryStore) reapLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, entry := range m.entries {
				if now.After(entry.expiresAt) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

func (m *memoryStore) Close() {
	m.once.Do(func() { close(m.stop) })
}
