package gitcli

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/nanogit/engine"
)

// CreateCommit runs git commit on the index. Hooks are not run. Missing
// author fields fall back to git configuration. Once git commit succeeds the
// commit exists, so a failure to resolve it afterwards returns the zero hash
// and no error.
func (e *Engine) CreateCommit(ctx context.Context, req engine.CommitRequest) (plumbing.Hash, error) {
	if req.Message == "" {
		return plumbing.ZeroHash, platformerrors.New(platformerrors.CodeInvalidInput, "commit message is required")
	}

	var args []string
	if req.AuthorName != "" {
		args = append(args, "-c", "user.name="+req.AuthorName)
	}
	if req.AuthorEmail != "" {
		args = append(args, "-c", "user.email="+req.AuthorEmail)
	}
	args = append(args, "commit", "-q", "--no-verify", "--cleanup=verbatim", "-m", req.Message)
	if req.AllowEmpty {
		args = append(args, "--allow-empty")
	}

	if _, err := e.run(ctx, args...); err != nil {
		return plumbing.ZeroHash, mapExecError(err, "failed to create commit")
	}

	result, err := e.run(ctx, "rev-parse", "--verify", "HEAD")
	if err != nil {
		return plumbing.ZeroHash, nil
	}
	return plumbing.NewHash(strings.TrimSpace(result.Stdout)), nil
}
