package gogit

import (
	"context"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/nanogit/engine"
)

// CreateCommit records the index as a new commit whose parent is HEAD.
//
// Missing author fields are read from the repository and global git
// configuration (author.* first, then user.*).
func (e *Engine) CreateCommit(ctx context.Context, req engine.CommitRequest) (plumbing.Hash, error) {
	if req.Message == "" {
		return plumbing.ZeroHash, platformerrors.New(platformerrors.CodeInvalidInput, "commit message is required")
	}

	unlock, err := e.lockWrite(ctx)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer unlock()

	author, err := e.signature(req)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	release, err := e.acquireIndexLock()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer release()

	wt, err := e.worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	hash, err := wt.Commit(req.Message, &gogit.CommitOptions{
		Author:            author,
		AllowEmptyCommits: req.AllowEmpty,
	})
	if err != nil {
		return plumbing.ZeroHash, engine.Wrap(err, "failed to create commit")
	}
	return hash, nil
}

func (e *Engine) signature(req engine.CommitRequest) (*object.Signature, error) {
	sig := &object.Signature{
		Name:  req.AuthorName,
		Email: req.AuthorEmail,
		When:  time.Now(),
	}
	if sig.Name != "" && sig.Email != "" {
		return sig, nil
	}

	cfg, err := e.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return nil, engine.Wrap(err, "failed to read git config")
	}
	if sig.Name == "" {
		sig.Name = firstNonEmpty(cfg.Author.Name, cfg.User.Name)
	}
	if sig.Email == "" {
		sig.Email = firstNonEmpty(cfg.Author.Email, cfg.User.Email)
	}
	if sig.Name == "" || sig.Email == "" {
		return nil, engine.Wrap(gogit.ErrMissingAuthor, "no commit identity configured")
	}
	return sig, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
