package gogit

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/jmgilman/go/nanogit/engine"
)

// ListRefs returns every reference in the repository, HEAD included.
func (e *Engine) ListRefs(ctx context.Context) ([]*plumbing.Reference, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	iter, err := e.repo.References()
	if err != nil {
		return nil, engine.Wrap(err, "failed to list references")
	}
	defer iter.Close()

	var refs []*plumbing.Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return nil, engine.Wrap(err, "failed to iterate references")
	}
	return refs, nil
}
