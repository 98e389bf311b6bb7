package nanogit

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
)

// Log returns the commits selected by rng, newest first. An empty range
// walks all of HEAD's history; an unborn HEAD has none.
//
// The ordering of a range is cached per fingerprint. Commit details are
// cached by hash and reused across fingerprints, since a commit never
// changes once created.
//
// Example:
//
//	// The ten most recent commits not yet in v1.0.0.
//	commits, err := repo.Log(ctx, nanogit.LogRange{From: "v1.0.0", Limit: 10})
//	for _, c := range commits {
//	    fmt.Printf("%s %s\n", c.Hash[:7], c.Summary())
//	}
func (r *Repository) Log(ctx context.Context, rng LogRange) ([]Commit, error) {
	return query(ctx, r, QueryLog, rng.Key(), func(ctx context.Context) ([]Commit, error) {
		hashes, err := r.engine.ReadLog(ctx, rng)
		if err != nil {
			return nil, err
		}

		commits := make([]Commit, 0, len(hashes))
		for _, hash := range hashes {
			c, err := r.commit(ctx, hash)
			if err != nil {
				return nil, err
			}
			commits = append(commits, c)
		}
		return commits, nil
	})
}

// commit returns the details of one commit from the commit store.
func (r *Repository) commit(ctx context.Context, hash plumbing.Hash) (Commit, error) {
	return r.commits.GetOrCompute(ctx, hash, func(ctx context.Context) (Commit, error) {
		raw, err := r.engine.ReadCommit(ctx, hash)
		if err != nil {
			return Commit{}, err
		}
		return translateCommit(raw), nil
	})
}
