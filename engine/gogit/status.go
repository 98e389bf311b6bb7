package gogit

import (
	"context"

	gogit "github.com/go-git/go-git/v5"

	"github.com/jmgilman/go/nanogit/engine"
)

// ReadStatus returns go-git's worktree status. Untracked files are included
// and ignored files are not.
func (e *Engine) ReadStatus(ctx context.Context) (gogit.Status, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return e.status()
}

func (e *Engine) status() (gogit.Status, error) {
	wt, err := e.worktree()
	if err != nil {
		return nil, err
	}

	status, err := wt.Status()
	if err != nil {
		return nil, engine.Wrap(err, "failed to read status")
	}

	for path, fs := range status {
		if fs.Staging == gogit.Unmodified && fs.Worktree == gogit.Unmodified {
			delete(status, path)
		}
	}
	return status, nil
}
