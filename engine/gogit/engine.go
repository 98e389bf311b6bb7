package gogit

import (
	"context"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/jmgilman/go/nanogit/engine"
)

// Engine answers repository queries in-process with go-git.
//
// go-git repositories are not safe for concurrent use, so every query and
// mutation holds the engine mutex for its duration. Signals reads the git
// directory without go-git and only waits for mutations in progress.
type Engine struct {
	mu     sync.Mutex
	writes sync.RWMutex
	path   string
	repo   *gogit.Repository
	fs     billy.Filesystem
	dotgit billy.Filesystem
	stamps engine.StampOptions
}

var _ engine.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*options)

type options struct {
	fs            billy.Filesystem
	contentStamps bool
	defaultBranch plumbing.ReferenceName
}

// WithFilesystem opens the repository at path inside fs instead of the local
// disk. Files are then fingerprinted by content, because in-memory
// filesystems do not report stable modification times.
//
// Example:
//
//	e, err := gogit.Init("/", gogit.WithFilesystem(memfs.New()))
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
		o.contentStamps = true
	}
}

// WithStatStamps fingerprints files by size and modification time even when
// a custom filesystem is in use.
func WithStatStamps() Option {
	return func(o *options) {
		o.contentStamps = false
	}
}

// WithDefaultBranch sets the branch HEAD points at after Init. Defaults to
// main.
func WithDefaultBranch(name string) Option {
	return func(o *options) {
		o.defaultBranch = plumbing.NewBranchReferenceName(name)
	}
}

func resolve(path string, opts []Option) (*options, billy.Filesystem, error) {
	o := &options{defaultBranch: plumbing.Main}
	for _, opt := range opts {
		opt(o)
	}

	if o.fs == nil {
		return o, osfs.New(path), nil
	}
	scoped, err := o.fs.Chroot(path)
	if err != nil {
		return nil, nil, engine.Wrap(err, "failed to scope filesystem to path")
	}
	return o, scoped, nil
}

// Open opens the repository whose worktree is at path.
//
// Returns a KindNotARepository error if path has no .git directory.
func Open(path string, opts ...Option) (*Engine, error) {
	o, fs, err := resolve(path, opts)
	if err != nil {
		return nil, err
	}

	fi, err := fs.Stat(".git")
	if err != nil || !fi.IsDir() {
		if err != nil && !os.IsNotExist(err) {
			return nil, engine.NewError(engine.KindIO, err, "failed to stat .git")
		}
		return nil, engine.NewError(engine.KindNotARepository, gogit.ErrRepositoryNotExists, "no repository at "+path)
	}

	dotgit, err := fs.Chroot(".git")
	if err != nil {
		return nil, engine.Wrap(err, "failed to scope filesystem to .git")
	}

	storage := filesystem.NewStorage(dotgit, cache.NewObjectLRUDefault())
	repo, err := gogit.Open(storage, fs)
	if err != nil {
		return nil, engine.Wrap(err, "failed to open repository")
	}

	return newEngine(path, repo, fs, dotgit, o), nil
}

// Init creates an empty repository with a worktree at path and opens it.
func Init(path string, opts ...Option) (*Engine, error) {
	o, fs, err := resolve(path, opts)
	if err != nil {
		return nil, err
	}

	if err := fs.MkdirAll(".git", 0o755); err != nil {
		return nil, engine.Wrap(err, "failed to create .git directory")
	}
	dotgit, err := fs.Chroot(".git")
	if err != nil {
		return nil, engine.Wrap(err, "failed to scope filesystem to .git")
	}

	storage := filesystem.NewStorage(dotgit, cache.NewObjectLRUDefault())
	repo, err := gogit.InitWithOptions(storage, fs, gogit.InitOptions{DefaultBranch: o.defaultBranch})
	if err != nil {
		return nil, engine.Wrap(err, "failed to initialize repository")
	}

	return newEngine(path, repo, fs, dotgit, o), nil
}

func newEngine(path string, repo *gogit.Repository, fs, dotgit billy.Filesystem, o *options) *Engine {
	return &Engine{
		path:   path,
		repo:   repo,
		fs:     fs,
		dotgit: dotgit,
		stamps: engine.StampOptions{Content: o.contentStamps},
	}
}

// Underlying returns the go-git repository. Calls made through it bypass
// the engine mutex.
func (e *Engine) Underlying() *gogit.Repository {
	return e.repo
}

// Filesystem returns the worktree filesystem.
func (e *Engine) Filesystem() billy.Filesystem {
	return e.fs
}

// Path returns the path the engine was opened with.
func (e *Engine) Path() string {
	return e.path
}

func (e *Engine) worktree() (*gogit.Worktree, error) {
	wt, err := e.repo.Worktree()
	if err != nil {
		return nil, engine.Wrap(err, "failed to get worktree")
	}
	return wt, nil
}

// lock acquires the engine mutex after checking ctx.
func (e *Engine) lock(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	return e.mu.Unlock, nil
}

// lockWrite acquires the engine mutex and excludes Signals, so stamps never
// observe a half-written index or reference.
func (e *Engine) lockWrite(ctx context.Context) (func(), error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return nil, err
	}
	e.writes.Lock()
	return func() {
		e.writes.Unlock()
		unlock()
	}, nil
}
