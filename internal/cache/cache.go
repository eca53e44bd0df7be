package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"subtrack/internal/log"
)

// Cache is the storage side of a read-through cache.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Loader is a read-through cache: misses for the same key share one load.
type Loader[T any] struct {
	cache Cache[T]
	group singleflight.Group

	mu  sync.Mutex
	gen map[string]uint64
}

func NewLoader[T any](c Cache[T]) *Loader[T] {
	return &Loader[T]{cache: c, gen: make(map[string]uint64)}
}

func (l *Loader[T]) generation(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen[key]
}

// Get returns the cached value for key, calling load on a miss. The bool
// reports whether the value came from the cache.
func (l *Loader[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, true, nil
	}

	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		gen := l.generation(key)
		data, err := load(ctx)
		if err != nil {
			return data, err
		}
		// A value loaded across an Invalidate may be stale; return it but do not keep it.
		if l.generation(key) == gen {
			l.cache.Set(key, data)
		}
		return data, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}

// Invalidate drops key and forgets any load in flight for it.
func (l *Loader[T]) Invalidate(key string) {
	l.mu.Lock()
	l.gen[key]++
	l.mu.Unlock()

	l.group.Forget(key)
	l.cache.Delete(key)
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans registered caches.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	logger      *log.Logger
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
		logger:      log.WithComponent(log.ComponentCache),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := 0
			for _, c := range m.caches {
				cleaned += c.CleanExpired()
			}
			if cleaned > 0 {
				m.logger.Debug("Expired cache entries removed", log.FieldCount, cleaned)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup loop. It must only be called after StartCleanup.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
