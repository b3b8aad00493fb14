package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	apperrors "fxdash/internal/errors"
)

const (
	defaultMaxSize         = 10000
	defaultCleanupInterval = time.Minute
)

// MemoryStore implements Store with an in-process map and TTL eviction. It
// backs the fallback path when Redis is unavailable and is the default store
// in tests.
type MemoryStore struct {
	items   map[string]*memoryItem
	mu      sync.RWMutex
	maxSize int

	stopOnce sync.Once
	stopCh   chan struct{}
}

type memoryItem struct {
	data       []byte
	expiration time.Time
	accessed   time.Time
}

// NewMemoryStore creates a memory store and starts its cleanup loop
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	ms := &MemoryStore{
		items:   make(map[string]*memoryItem),
		maxSize: maxSize,
		stopCh:  make(chan struct{}),
	}
	go ms.cleanupLoop(defaultCleanupInterval)
	return ms
}

// Get retrieves a value and unmarshals it into dest
func (ms *MemoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	ms.mu.Lock()
	item, ok := ms.items[key]
	if ok && time.Now().After(item.expiration) {
		delete(ms.items, key)
		ok = false
	}
	if ok {
		item.accessed = time.Now()
	}
	ms.mu.Unlock()

	if !ok {
		return Miss(key)
	}
	if err := json.Unmarshal(item.data, dest); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeCacheOperation, "cached value is not valid JSON")
	}
	return nil
}

// Set stores a JSON-encoded value with a time-to-live
func (ms *MemoryStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeCacheOperation, "failed to marshal cache value")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.items[key]; !exists && len(ms.items) >= ms.maxSize {
		ms.evictOldest()
	}
	ms.items[key] = &memoryItem{
		data:       data,
		expiration: time.Now().Add(ttl),
		accessed:   time.Now(),
	}
	return nil
}

// Delete removes a key
func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.items, key)
	return nil
}

// Exists checks whether a live entry exists for key
func (ms *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, ok := ms.items[key]
	if !ok || time.Now().After(item.expiration) {
		return false, nil
	}
	return true, nil
}

// HealthCheck always succeeds for the in-process store
func (ms *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

// Close stops the cleanup loop
func (ms *MemoryStore) Close() error {
	ms.stopOnce.Do(func() { close(ms.stopCh) })
	return nil
}

// Len returns the number of entries, including any not yet swept
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.items)
}

// evictOldest drops the least recently accessed entry. Caller holds the lock.
func (ms *MemoryStore) evictOldest() {
	var oldestKey string
	var oldestAccess time.Time
	for key, item := range ms.items {
		if oldestKey == "" || item.accessed.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = item.accessed
		}
	}
	if oldestKey != "" {
		delete(ms.items, oldestKey)
	}
}

func (ms *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stopCh:
			return
		case <-ticker.C:
			ms.removeExpired()
		}
	}
}

func (ms *MemoryStore) removeExpired() {
	now := time.Now()
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for key, item := range ms.items {
		if now.After(item.expiration) {
			delete(ms.items, key)
		}
	}
}
