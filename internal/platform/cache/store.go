package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

// Store is an in-process TTL cache. Concurrent misses on the same key share one load.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	flight  singleflight.Group
	now     func() time.Time

	// gen advances on every delete so a load that raced an invalidation is not stored.
	gen uint64
}

// NewStore builds a store; ttl <= 0 keeps entries until they are deleted.
func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	v, _, ok := s.lookup(key)
	return v, ok
}

// GetWithTime also reports when the value was stored.
func (s *Store[V]) GetWithTime(_ context.Context, key string) (V, time.Time, bool) {
	return s.lookup(key)
}

func (s *Store[V]) lookup(key string) (V, time.Time, bool) {
	var zero V
	if key == "" {
		return zero, time.Time{}, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero, time.Time{}, false
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(s.now()) {
		s.mu.Lock()
		if current, still := s.entries[key]; still && current.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, time.Time{}, false
	}

	return e.value, e.storedAt, true
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.entries[key] = s.newEntry(value)
	s.mu.Unlock()
}

func (s *Store[V]) newEntry(value V) entry[V] {
	now := s.now()
	e := entry[V]{value: value, storedAt: now}
	if s.ttl > 0 {
		e.expiresAt = now.Add(s.ttl)
	}
	return e
}

func (s *Store[V]) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// setIfGeneration stores value only when no delete happened since gen was read.
func (s *Store[V]) setIfGeneration(key string, value V, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.entries[key] = s.newEntry(value)
}

func (s *Store[V]) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.gen++
	s.mu.Unlock()
	s.flight.Forget(key)
}

func (s *Store[V]) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	s.gen++
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			s.flight.Forget(key)
		}
	}
	s.mu.Unlock()
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetOrLoad returns the cached value or runs loader once per key across concurrent callers.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	var zero V
	if loader == nil {
		return zero, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	loaded, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		gen := s.generation()
		value, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.setIfGeneration(key, value, gen)
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	return loaded.(V), nil
}
