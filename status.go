package nanogit

import "context"

// Status returns the simplified status of the worktree and index. It is
// served from the cache while the fingerprint is unchanged.
//
// Example:
//
//	status, err := repo.Status(ctx)
//	for _, change := range status.Staged {
//	    fmt.Printf("%s: %s\n", change.Kind, change.Path)
//	}
func (r *Repository) Status(ctx context.Context) (Status, error) {
	return query(ctx, r, QueryStatus, "", func(ctx context.Context) (Status, error) {
		raw, err := r.engine.ReadStatus(ctx)
		if err != nil {
			return Status{}, err
		}
		return translateStatus(raw), nil
	})
}
