package cache

import "sync"

// Stats is a point-in-time snapshot of store activity.
type Stats struct {
	// Hits counts lookups answered from a stored entry.
	Hits int64
	// Misses counts lookups that found no stored entry.
	Misses int64
	// Joined counts callers that waited on another caller's computation.
	Joined int64
	// Computations counts computations started.
	Computations int64
	// Failures counts computations that returned an error.
	Failures int64
	// Evictions counts entries dropped to respect the size bound.
	Evictions int64
	// Invalidations counts entries removed by InvalidateMatching.
	Invalidations int64
	// Entries is the number of entries currently stored.
	Entries int
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// metrics collects store counters.
type metrics struct {
	mu sync.Mutex

	hits          int64
	misses        int64
	joined        int64
	computations  int64
	failures      int64
	evictions     int64
	invalidations int64
}

func (m *metrics) recordHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
}

func (m *metrics) recordMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}

func (m *metrics) recordJoin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joined++
}

func (m *metrics) recordComputation(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.computations++
	if failed {
		m.failures++
	}
}

func (m *metrics) recordEviction() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictions++
}

func (m *metrics) recordInvalidations(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidations += int64(n)
}

func (m *metrics) snapshot(entries int) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Hits:          m.hits,
		Misses:        m.misses,
		Joined:        m.joined,
		Computations:  m.computations,
		Failures:      m.failures,
		Evictions:     m.evictions,
		Invalidations: m.invalidations,
		Entries:       entries,
	}
}

func (m *metrics) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits, m.misses, m.joined = 0, 0, 0
	m.computations, m.failures = 0, 0
	m.evictions, m.invalidations = 0, 0
}
