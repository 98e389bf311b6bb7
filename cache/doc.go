// Package cache provides a generic in-memory store for computed query
// results with single-flight computation and bounded LRU retention.
//
// # Overview
//
// A Store maps comparable keys to immutable values. GetOrCompute returns the
// stored value for a key or runs the supplied computation, guaranteeing that
// at most one computation per key is in flight at a time. Every caller that
// arrives while a computation runs waits for it and receives the same value
// or the same error. Failed computations are never stored.
//
// # Retention
//
// Completed entries live in an LRU (github.com/hashicorp/golang-lru/v2) with
// a configurable bound. In-flight computations are tracked separately, so an
// entry that is still being computed can never be evicted.
//
// # Invalidation
//
// InvalidateMatching removes every entry whose key satisfies a predicate. A
// computation that started before an invalidation still returns its value
// to its callers but does not store it.
//
// # Usage
//
//	store := cache.New[Key, []string](cache.WithMaxEntries(128))
//	names, err := store.GetOrCompute(ctx, key, func(ctx context.Context) ([]string, error) {
//	    return loadNames(ctx)
//	})
package cache
