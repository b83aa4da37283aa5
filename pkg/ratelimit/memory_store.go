package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is an in-memory Store for single-instance deployments
// and tests. Expired windows are swept by a background goroutine.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired windows are swept.
// Zero disables the sweeper.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// NewMemoryStore creates an in-memory fixed-window store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		windows:         make(map[string]*window),
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}
	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}
	return ms
}

func (ms *MemoryStore) Incr(_ context.Context, key string, windowSize time.Duration) (int64, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	w, ok := ms.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(windowSize)}
		ms.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

func (ms *MemoryStore) Reset(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.windows, key)
	return nil
}

// Close stops the background sweeper.
func (ms *MemoryStore) Close() {
	ms.stopOnce.Do(func() { close(ms.stopCleanup) })
}

func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeExpired()
		case <-ms.stopCleanup:
			return
		}
	}
}

func (ms *MemoryStore) removeExpired() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, w := range ms.windows {
		if now.After(w.resetAt) {
			delete(ms.windows, key)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
