package gitcli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/jmgilman/go/nanogit/engine"
)

// Signals reads HEAD, the index stamp, the reference files and the worktree
// stat data directly from disk. No git process is started.
func (e *Engine) Signals(ctx context.Context) (engine.Signals, error) {
	if err := ctx.Err(); err != nil {
		return engine.Signals{}, err
	}

	common, err := e.commonDir()
	if err != nil {
		return engine.Signals{}, err
	}

	head, err := engine.StampHead(e.dotgit, common, engine.StampOptions{})
	if err != nil {
		return engine.Signals{}, err
	}

	index, err := engine.StampFile(e.dotgit, "index", engine.StampOptions{})
	if err != nil {
		return engine.Signals{}, err
	}

	refs, err := engine.StampRefs(common, engine.StampOptions{})
	if err != nil {
		return engine.Signals{}, err
	}

	worktree, err := engine.StampTree(e.fs, "", engine.StampOptions{Skip: engine.SkipGitDir})
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

// commonDir returns the directory holding shared references. Linked
// worktrees point at it from a commondir file; otherwise it is the git
// directory itself.
func (e *Engine) commonDir() (billy.Filesystem, error) {
	content, err := util.ReadFile(e.dotgit, "commondir")
	if err != nil {
		if os.IsNotExist(err) {
			return e.dotgit, nil
		}
		return nil, engine.NewError(engine.KindIO, err, "failed to read commondir")
	}

	dir := strings.TrimSpace(string(content))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(e.dotgit.Root(), dir)
	}
	return osfs.New(filepath.Clean(dir)), nil
}
