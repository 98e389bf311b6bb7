package nanogit

import "context"

// Diff returns the differences selected by scope, one entry per file sorted
// by path. Untracked files are never included. The result is cached per
// scope and fingerprint; scopes naming the same paths in another order share
// an entry.
//
// Example:
//
//	// Changes staged for the next commit, limited to docs/.
//	entries, err := repo.Diff(ctx, nanogit.DiffScope{
//	    Mode:  nanogit.DiffStaged,
//	    Paths: []string{"docs"},
//	})
func (r *Repository) Diff(ctx context.Context, scope DiffScope) ([]DiffEntry, error) {
	return query(ctx, r, QueryDiff, scope.Key(), func(ctx context.Context) ([]DiffEntry, error) {
		patches, err := r.engine.ComputeDiff(ctx, scope)
		if err != nil {
			return nil, err
		}
		return translateDiff(patches), nil
	})
}
