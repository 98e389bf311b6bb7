package cache

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"
)

// Key is the constraint on store keys. String must be injective: distinct
// keys must render distinct strings, because in-flight computations are
// deduplicated by it.
type Key interface {
	comparable
	String() string
}

// Store holds computed values keyed by K. It is safe for concurrent use.
// Stored values are shared between callers and must not be mutated.
type Store[K Key, V any] struct {
	name   string
	bound  int
	logger *slog.Logger

	mu         sync.Mutex
	entries    *simplelru.LRU[K, V]
	generation uint64

	group   singleflight.Group
	metrics metrics
}

// New creates an empty store.
func New[K Key, V any](opts ...Option) *Store[K, V] {
	o := &options{
		name:       "cache",
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	bound := o.maxEntries
	if bound <= 0 {
		bound = math.MaxInt
	}

	// NewLRU only fails for a non-positive size.
	entries, _ := simplelru.NewLRU[K, V](bound, nil)

	return &Store[K, V]{
		name:    o.name,
		bound:   bound,
		logger:  o.logger.With("cache", o.name),
		entries: entries,
	}
}

// Get returns the stored value for key and marks it recently used.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	v, ok := s.entries.Get(key)
	s.mu.Unlock()

	if ok {
		s.metrics.recordHit()
		s.logger.Debug("cache hit", "key", key.String())
	} else {
		s.metrics.recordMiss()
		s.logger.Debug("cache miss", "key", key.String())
	}
	return v, ok
}

// GetOrCompute returns the stored value for key, or runs compute and stores
// its result.
//
// Concurrent callers for the same key share one computation. The computation
// runs with the context of the caller that started it; a waiting caller
// whose own ctx ends stops waiting and gets ctx.Err(). If the computation
// fails only because the starting caller's context ended, waiters whose
// contexts are still live start a new computation instead of inheriting that
// cancellation. Errors are returned to every waiting caller and never
// stored, so the next call recomputes.
func (s *Store[K, V]) GetOrCompute(ctx context.Context, key K, compute func(context.Context) (V, error)) (V, error) {
	for {
		v, joined, err := s.getOrCompute(ctx, key, compute)
		if err != nil && joined && ctx.Err() == nil && isContextError(err) {
			s.logger.Debug("cache computation canceled by its leader, retrying", "key", key.String())
			continue
		}
		return v, err
	}
}

// getOrCompute performs one lookup or shared computation. joined reports
// whether the result came from a computation started by another caller.
func (s *Store[K, V]) getOrCompute(ctx context.Context, key K, compute func(context.Context) (V, error)) (V, bool, error) {
	if v, ok := s.Get(key); ok {
		return v, false, nil
	}

	led := false
	ch := s.group.DoChan(key.String(), func() (any, error) {
		led = true

		s.mu.Lock()
		if v, ok := s.entries.Peek(key); ok {
			s.mu.Unlock()
			return v, nil
		}
		generation := s.generation
		s.mu.Unlock()

		v, err := compute(ctx)
		s.metrics.recordComputation(err != nil)
		if err != nil {
			s.logger.Debug("cache computation failed", "key", key.String(), "error", err)
			return v, err
		}

		s.store(key, v, generation)
		return v, nil
	})

	var zero V
	select {
	case res := <-ch:
		if !led {
			s.metrics.recordJoin()
		}
		if res.Err != nil {
			return zero, !led, res.Err
		}
		v, _ := res.Val.(V)
		return v, !led, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// store inserts a computed value unless an invalidation happened after the
// computation started.
func (s *Store[K, V]) store(key K, v V, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		s.logger.Debug("cache result discarded after invalidation", "key", key.String())
		return
	}

	if !s.entries.Contains(key) && s.entries.Len() >= s.bound {
		if evicted, _, ok := s.entries.RemoveOldest(); ok {
			s.metrics.recordEviction()
			s.logger.Debug("cache entry evicted", "key", evicted.String())
		}
	}
	s.entries.Add(key, v)
}

// InvalidateMatching removes every entry whose key satisfies pred and
// returns how many were removed. Computations already in flight do not store
// their results.
func (s *Store[K, V]) InvalidateMatching(pred func(K) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++

	removed := 0
	for _, key := range s.entries.Keys() {
		if pred(key) {
			s.entries.Remove(key)
			removed++
		}
	}

	s.metrics.recordInvalidations(removed)
	if removed > 0 {
		s.logger.Debug("cache entries invalidated", "count", removed)
	}
	return removed
}

// Remove drops a single entry.
func (s *Store[K, V]) Remove(key K) bool {
	return s.InvalidateMatching(func(k K) bool { return k == key }) > 0
}

// Purge drops every entry and resets the statistics.
func (s *Store[K, V]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.entries.Purge()
	s.metrics.reset()
}

// Name returns the label set with WithName.
func (s *Store[K, V]) Name() string {
	return s.name
}

// Len returns the number of stored entries.
func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// Stats returns a snapshot of the store counters.
func (s *Store[K, V]) Stats() Stats {
	return s.metrics.snapshot(s.Len())
}
