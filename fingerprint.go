package nanogit

import (
	"context"
	"fmt"

	"github.com/jmgilman/go/nanogit/engine"
)

// Fingerprint summarizes the observable state of a repository at an instant.
// Two equal fingerprints mean nothing observable changed in between, as far
// as stat data can tell. Mutation counts the changes made through the
// Repository itself, which catches changes that land within one timestamp
// tick.
type Fingerprint struct {
	Head     string
	Index    string
	Worktree uint64
	Refs     uint64
	Mutation uint64
}

// String renders the fingerprint unambiguously.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%q %q %016x %016x %d", f.Head, f.Index, f.Worktree, f.Refs, f.Mutation)
}

func newFingerprint(s engine.Signals, mutation uint64) Fingerprint {
	return Fingerprint{
		Head:     s.Head,
		Index:    s.Index,
		Worktree: s.Worktree,
		Refs:     s.Refs,
		Mutation: mutation,
	}
}

// Fingerprint captures the current fingerprint. It fails only when the
// engine cannot read the repository.
func (r *Repository) Fingerprint(ctx context.Context) (Fingerprint, error) {
	if err := r.checkOpen(); err != nil {
		return Fingerprint{}, err
	}

	// Holding the read lock orders the capture after any mutation in
	// progress, together with its counter bump.
	r.mu.RLock()
	defer r.mu.RUnlock()

	signals, err := r.engine.Signals(ctx)
	if err != nil {
		return Fingerprint{}, err
	}
	return newFingerprint(signals, r.mutations), nil
}
