package nanogit

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/nanogit/engine"
)

// Stage adds the worktree state of paths to the index, like git add -A.
// Directories are staged recursively and deleted files are removed from the
// index. Cached status and diff results are dropped.
func (r *Repository) Stage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return platformerrors.New(platformerrors.CodeInvalidInput, "at least one path is required")
	}
	return r.mutate(ctx, "stage", func(ctx context.Context) error {
		return r.engine.ApplyStage(ctx, paths)
	}, QueryStatus, QueryDiff)
}

// Unstage resets the index entries of paths to HEAD, like git reset. Paths
// added since HEAD become untracked again. Cached status and diff results
// are dropped.
func (r *Repository) Unstage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return platformerrors.New(platformerrors.CodeInvalidInput, "at least one path is required")
	}
	return r.mutate(ctx, "unstage", func(ctx context.Context) error {
		return r.engine.ApplyUnstage(ctx, paths)
	}, QueryStatus, QueryDiff)
}

// Commit records the index as a new commit on HEAD and returns its hash. The
// hash is empty when the engine recorded the commit but could not report it.
//
// The author comes from WithSignature, falling back to git configuration.
// Committing with nothing staged fails with CodeConflict. Cached status,
// diff and log results are dropped; branch results stay, since their keys
// can no longer match the new fingerprint.
//
// Example:
//
//	if err := repo.Stage(ctx, []string{"README.md"}); err != nil {
//	    return err
//	}
//	hash, err := repo.Commit(ctx, "Update README")
func (r *Repository) Commit(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", platformerrors.New(platformerrors.CodeInvalidInput, "commit message is required")
	}

	var hash plumbing.Hash
	err := r.mutate(ctx, "commit", func(ctx context.Context) error {
		var err error
		hash, err = r.engine.CreateCommit(ctx, engine.CommitRequest{
			Message:     message,
			AuthorName:  r.authorName,
			AuthorEmail: r.authorEmail,
		})
		return err
	}, QueryStatus, QueryDiff, QueryLog)
	if err != nil {
		return "", err
	}
	if hash.IsZero() {
		return "", nil
	}
	return hash.String(), nil
}
