package nanogit

import "context"

// Branches lists local and remote-tracking branches, local ones first, each
// group sorted by name. The branch HEAD points at is marked current.
func (r *Repository) Branches(ctx context.Context) ([]Branch, error) {
	return query(ctx, r, QueryBranches, "", func(ctx context.Context) ([]Branch, error) {
		refs, err := r.engine.ListRefs(ctx)
		if err != nil {
			return nil, err
		}
		return translateBranches(refs), nil
	})
}
