//nolint:contextcheck // Context is passed via CommandWrapper.WithContext()
package gitcli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/exec"

	"github.com/jmgilman/go/nanogit/engine"
)

// emptyTree is the id of the tree with no entries. It stands in for HEAD
// while the current branch has no commits.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Engine answers repository queries with the git binary.
//
// Each call clones the configured executor, so read methods are safe for
// concurrent use.
type Engine struct {
	path   string
	git    *exec.CommandWrapper
	fs     billy.Filesystem
	dotgit billy.Filesystem
}

var _ engine.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine) error

// WithExecutor runs git through executor instead of the local process
// executor. This is primarily useful for testing.
func WithExecutor(executor exec.Executor) Option {
	return func(e *Engine) error {
		if executor == nil {
			err := platformerrors.New(platformerrors.CodeInvalidInput, "executor cannot be nil")
			return platformerrors.WithContext(err, "field", "executor")
		}
		e.git = exec.NewWrapper(executor, "git")
		return nil
	}
}

// Open returns an engine for the worktree at path.
//
// path must contain a .git directory, or a .git file pointing at the git
// directory as linked worktrees and submodules have. Otherwise Open returns
// a KindNotARepository error.
func Open(path string, opts ...Option) (*Engine, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, engine.NewError(engine.KindIO, err, "failed to resolve "+path)
	}

	e := &Engine{
		path: abs,
		git:  exec.NewWrapper(exec.New(), "git"),
		fs:   osfs.New(abs),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	gitDir, err := findGitDir(e.fs, abs)
	if err != nil {
		return nil, err
	}
	e.dotgit = osfs.New(gitDir)
	return e, nil
}

// findGitDir locates the git directory of the worktree rooted at fs.
func findGitDir(fs billy.Filesystem, root string) (string, error) {
	fi, err := fs.Lstat(".git")
	if err != nil {
		if os.IsNotExist(err) {
			return "", engine.NewError(engine.KindNotARepository, gogit.ErrRepositoryNotExists, "no repository at "+root)
		}
		return "", engine.NewError(engine.KindIO, err, "failed to stat .git")
	}
	if fi.IsDir() {
		return filepath.Join(root, ".git"), nil
	}

	content, err := util.ReadFile(fs, ".git")
	if err != nil {
		return "", engine.NewError(engine.KindIO, err, "failed to read .git file")
	}
	line := strings.TrimSpace(string(content))
	dir, ok := strings.CutPrefix(line, "gitdir: ")
	if !ok || dir == "" {
		return "", engine.NewError(engine.KindNotARepository, gogit.ErrRepositoryNotExists, "malformed .git file at "+root)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return filepath.Clean(dir), nil
}

// Path returns the absolute worktree path.
func (e *Engine) Path() string {
	return e.path
}

// run executes git with args in the worktree.
func (e *Engine) run(ctx context.Context, args ...string) (*exec.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := e.git.Clone().
		WithDir(e.path).
		WithInheritEnv().
		WithEnv(map[string]string{
			"GIT_OPTIONAL_LOCKS":  "0",
			"GIT_TERMINAL_PROMPT": "0",
			"LC_ALL":              "C",
		}).
		WithContext(ctx).
		Run(args...)
	if err != nil && ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, err
}
