package gogit

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/jmgilman/go/nanogit/engine"
)

// Signals reports HEAD, the index stamp, a digest over the reference files
// and a worktree stat digest. It reads the git directory directly, so it
// never waits for a query holding the engine, only for a mutation in
// progress.
func (e *Engine) Signals(ctx context.Context) (engine.Signals, error) {
	if err := ctx.Err(); err != nil {
		return engine.Signals{}, err
	}

	e.writes.RLock()
	defer e.writes.RUnlock()

	head, err := engine.StampHead(e.dotgit, e.dotgit, e.stamps)
	if err != nil {
		return engine.Signals{}, err
	}

	index, err := engine.StampFile(e.dotgit, "index", e.stamps)
	if err != nil {
		return engine.Signals{}, err
	}

	refs, err := engine.StampRefs(e.dotgit, e.stamps)
	if err != nil {
		return engine.Signals{}, err
	}

	worktree, err := engine.StampTree(e.fs, "", engine.StampOptions{
		Content: e.stamps.Content,
		Skip:    engine.SkipGitDir,
	})
	if err != nil {
		return engine.Signals{}, err
	}

	return engine.Signals{
		Head:     head,
		Index:    index,
		Worktree: worktree,
		Refs:     refs,
	}, nil
}

// Head describes the current HEAD.
func (e *Engine) Head(ctx context.Context) (engine.HeadInfo, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return engine.HeadInfo{}, err
	}
	defer unlock()

	return e.head()
}

func (e *Engine) head() (engine.HeadInfo, error) {
	ref, err := e.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return engine.HeadInfo{}, engine.Wrap(err, "failed to read HEAD")
	}

	if ref.Type() == plumbing.HashReference {
		return engine.HeadInfo{Hash: ref.Hash(), Detached: true}, nil
	}

	info := engine.HeadInfo{Branch: ref.Target()}
	resolved, err := e.repo.Reference(plumbing.HEAD, true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			info.Unborn = true
			return info, nil
		}
		return engine.HeadInfo{}, engine.Wrap(err, "failed to resolve HEAD")
	}
	info.Hash = resolved.Hash()
	return info, nil
}
