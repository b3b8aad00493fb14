package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FallbackStore wraps a primary (Redis) store with an in-memory fallback.
// After a run of consecutive primary failures it switches to memory-only
// operation and probes the primary in the background until it recovers.
// A nil primary means permanent memory-only operation.
type FallbackStore struct {
	primary Store
	memory  *MemoryStore
	log     *logrus.Entry
	cfg     *FallbackConfig

	mu           sync.RWMutex
	inFallback   bool
	failureCount int
	successCount int

	stopOnce sync.Once
	stopCh   chan struct{}
}

// FallbackConfig tunes the fallback behaviour
type FallbackConfig struct {
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	FailureThreshold    int           `yaml:"failure_threshold"`
	RecoveryThreshold   int           `yaml:"recovery_threshold"`
	MaxMemoryEntries    int           `yaml:"max_memory_entries"`
}

// DefaultFallbackConfig returns the default fallback configuration
func DefaultFallbackConfig() *FallbackConfig {
	return &FallbackConfig{
		HealthCheckInterval: 30 * time.Second,
		FailureThreshold:    3,
		RecoveryThreshold:   2,
		MaxMemoryEntries:    defaultMaxSize,
	}
}

// NewFallbackStore creates a fallback store around primary
func NewFallbackStore(primary Store, cfg *FallbackConfig, log *logrus.Logger) *FallbackStore {
	if cfg == nil {
		cfg = DefaultFallbackConfig()
	}
	defaults := DefaultFallbackConfig()
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = defaults.HealthCheckInterval
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.RecoveryThreshold <= 0 {
		cfg.RecoveryThreshold = defaults.RecoveryThreshold
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	fs := &FallbackStore{
		primary:    primary,
		memory:     NewMemoryStore(cfg.MaxMemoryEntries),
		log:        log.WithField("component", "cache"),
		cfg:        cfg,
		inFallback: primary == nil,
		stopCh:     make(chan struct{}),
	}

	if primary != nil {
		go fs.healthLoop()
	}
	return fs
}

// InFallback reports whether the store currently serves from memory only
func (fs *FallbackStore) InFallback() bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.inFallback
}

// Get tries the primary first, then memory
func (fs *FallbackStore) Get(ctx context.Context, key string, dest interface{}) error {
	if fs.usePrimary() {
		err := fs.primary.Get(ctx, key, dest)
		if err == nil {
			return nil
		}
		if IsMiss(err) {
			// A miss is not a failure; fall through to memory in case the
			// entry was written there during an outage.
			return fs.memory.Get(ctx, key, dest)
		}
		fs.recordFailure("get", err)
	}
	return fs.memory.Get(ctx, key, dest)
}

// Set writes to both stores so the fallback stays warm
func (fs *FallbackStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := fs.memory.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if fs.usePrimary() {
		if err := fs.primary.Set(ctx, key, value, ttl); err != nil {
			fs.recordFailure("set", err)
		}
	}
	return nil
}

// Delete removes the key from both stores
func (fs *FallbackStore) Delete(ctx context.Context, key string) error {
	_ = fs.memory.Delete(ctx, key)
	if fs.usePrimary() {
		if err := fs.primary.Delete(ctx, key); err != nil {
			fs.recordFailure("delete", err)
		}
	}
	return nil
}

// Exists checks the primary, falling back to memory
func (fs *FallbackStore) Exists(ctx context.Context, key string) (bool, error) {
	if fs.usePrimary() {
		ok, err := fs.primary.Exists(ctx, key)
		if err == nil {
			return ok, nil
		}
		fs.recordFailure("exists", err)
	}
	return fs.memory.Exists(ctx, key)
}

// HealthCheck reports primary health; memory-only operation is healthy
func (fs *FallbackStore) HealthCheck(ctx context.Context) error {
	if fs.primary != nil && !fs.InFallback() {
		return fs.primary.HealthCheck(ctx)
	}
	return nil
}

// Close stops the health loop and closes both stores
func (fs *FallbackStore) Close() error {
	fs.stopOnce.Do(func() { close(fs.stopCh) })
	_ = fs.memory.Close()
	if fs.primary != nil {
		return fs.primary.Close()
	}
	return nil
}

func (fs *FallbackStore) usePrimary() bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.primary != nil && !fs.inFallback
}

func (fs *FallbackStore) recordFailure(op string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.failureCount++
	fs.successCount = 0
	if !fs.inFallback && fs.failureCount >= fs.cfg.FailureThreshold {
		fs.inFallback = true
		fs.log.WithError(err).WithField("op", op).
			Warn("redis unavailable, serving cache from memory")
	}
}

func (fs *FallbackStore) healthLoop() {
	ticker := time.NewTicker(fs.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-fs.stopCh:
			return
		case <-ticker.C:
			fs.probePrimary()
		}
	}
}

func (fs *FallbackStore) probePrimary() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := fs.primary.HealthCheck(ctx)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err != nil {
		fs.failureCount++
		fs.successCount = 0
		if !fs.inFallback && fs.failureCount >= fs.cfg.FailureThreshold {
			fs.inFallback = true
			fs.log.WithError(err).Warn("redis unavailable, serving cache from memory")
		}
		return
	}

	fs.successCount++
	fs.failureCount = 0
	if fs.inFallback && fs.successCount >= fs.cfg.RecoveryThreshold {
		fs.inFallback = false
		fs.log.Info("redis recovered, resuming primary cache")
	}
}
