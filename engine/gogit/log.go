package gogit

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/jmgilman/go/nanogit/engine"
)

// ReadLog walks history from rng.To in committer-time order, newest first,
// skipping everything reachable from rng.From. An unborn HEAD has an empty
// history.
func (e *Engine) ReadLog(ctx context.Context, rng engine.LogRange) ([]plumbing.Hash, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	target := rng.Target()
	if target == "HEAD" {
		head, err := e.head()
		if err != nil {
			return nil, err
		}
		if head.Unborn {
			return nil, nil
		}
	}

	to, err := e.resolveCommit(target)
	if err != nil {
		return nil, err
	}

	var seen map[plumbing.Hash]bool
	if rng.From != "" {
		from, err := e.resolveCommit(rng.From)
		if err != nil {
			return nil, err
		}
		seen, err = ancestors(ctx, from)
		if err != nil {
			return nil, err
		}
	}

	var hashes []plumbing.Hash
	iter := object.NewCommitIterCTime(to, seen, nil)
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		hashes = append(hashes, c.Hash)
		if rng.Limit > 0 && len(hashes) >= rng.Limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, engine.Wrap(err, "failed to walk history")
	}
	return hashes, nil
}

// ReadCommit loads a single commit object.
func (e *Engine) ReadCommit(ctx context.Context, hash plumbing.Hash) (*object.Commit, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := e.repo.CommitObject(hash)
	if err != nil {
		return nil, engine.Wrap(err, "failed to load commit "+hash.String())
	}
	return c, nil
}

func (e *Engine) resolveCommit(rev string) (*object.Commit, error) {
	hash, err := e.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, engine.Wrap(err, "failed to resolve "+rev)
	}
	c, err := e.repo.CommitObject(*hash)
	if err != nil {
		return nil, engine.Wrap(err, "failed to load commit "+hash.String())
	}
	return c, nil
}

func ancestors(ctx context.Context, c *object.Commit) (map[plumbing.Hash]bool, error) {
	seen := make(map[plumbing.Hash]bool)
	iter := object.NewCommitPreorderIter(c, nil, nil)
	defer iter.Close()

	err := iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, engine.Wrap(err, "failed to walk ancestors of "+c.Hash.String())
	}
	return seen, nil
}
