package nanogit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/nanogit/cache"
	"github.com/jmgilman/go/nanogit/engine"
	"github.com/jmgilman/go/nanogit/engine/gitcli"
	"github.com/jmgilman/go/nanogit/engine/gogit"
)

// Repository is a cached view of one repository. It is safe for concurrent
// use.
type Repository struct {
	path         string
	engine       engine.Engine
	logger       *slog.Logger
	authorName   string
	authorEmail  string
	refreshLimit int

	// mu is held for writing around every mutation and for reading around
	// every fingerprint capture.
	mu        sync.RWMutex
	mutations uint64

	queries *cache.Store[QueryKey, any]
	commits *cache.Store[plumbing.Hash, Commit]
	closed  atomic.Bool
}

// Stats reports the activity of both cache stores.
type Stats struct {
	// Queries covers status, diff, branch and log results.
	Queries cache.Stats
	// Commits covers per-commit details.
	Commits cache.Stats
}

// Open opens the repository whose worktree is at path.
//
// The go-git engine is used unless WithGitCLI, WithExecutor or WithEngine
// selects another. Returns an engine error of kind engine.KindNotARepository
// if path holds no repository.
//
// Example:
//
//	repo, err := nanogit.Open("/path/to/repo", nanogit.WithMaxEntries(64))
//	if err != nil {
//	    return err
//	}
//	defer repo.Close()
func Open(path string, opts ...Option) (*Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	e, err := openEngine(path, o)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With("repository", path)
	r := &Repository{
		path:         path,
		engine:       e,
		logger:       logger,
		authorName:   o.authorName,
		authorEmail:  o.authorEmail,
		refreshLimit: o.refreshLimit,
		queries: cache.New[QueryKey, any](
			cache.WithName("queries"),
			cache.WithMaxEntries(o.maxEntries),
			cache.WithLogger(logger),
		),
		commits: cache.New[plumbing.Hash, Commit](
			cache.WithName("commits"),
			cache.WithMaxEntries(o.maxCommits),
			cache.WithLogger(logger),
		),
	}

	logger.Debug("repository opened", "engine", engineName(e))
	return r, nil
}

func openEngine(path string, o *options) (engine.Engine, error) {
	switch {
	case o.engine != nil:
		return o.engine, nil
	case o.gitCLI:
		var cliOpts []gitcli.Option
		if o.executor != nil {
			cliOpts = append(cliOpts, gitcli.WithExecutor(o.executor))
		}
		return gitcli.Open(path, cliOpts...)
	default:
		var gitOpts []gogit.Option
		if o.fs != nil {
			gitOpts = append(gitOpts, gogit.WithFilesystem(o.fs))
		}
		return gogit.Open(path, gitOpts...)
	}
}

func engineName(e engine.Engine) string {
	switch e.(type) {
	case *gogit.Engine:
		return "go-git"
	case *gitcli.Engine:
		return "git"
	default:
		return "custom"
	}
}

// Path returns the path the repository was opened with.
func (r *Repository) Path() string {
	return r.path
}

// Engine returns the engine answering queries. Mutations made through it
// bypass the mutation counter; they are still observed through the on-disk
// signals.
func (r *Repository) Engine() engine.Engine {
	return r.engine
}

// Close drops every cached value. Later calls fail with CodeUnavailable.
// Values already returned stay valid.
func (r *Repository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.queries.Purge()
	r.commits.Purge()
	r.logger.Debug("repository closed")
	return nil
}

// Head describes the current HEAD. It is read from the engine on every call.
func (r *Repository) Head(ctx context.Context) (Head, error) {
	if err := r.checkOpen(); err != nil {
		return Head{}, err
	}
	info, err := r.engine.Head(ctx)
	if err != nil {
		return Head{}, err
	}
	return translateHead(info), nil
}

// Stats returns a snapshot of the cache counters.
func (r *Repository) Stats() Stats {
	return Stats{
		Queries: r.queries.Stats(),
		Commits: r.commits.Stats(),
	}
}

func (r *Repository) checkOpen() error {
	if r.closed.Load() {
		return platformerrors.New(platformerrors.CodeUnavailable, "repository is closed")
	}
	return nil
}

// query serves a read through the query store under the current fingerprint.
func query[T any](ctx context.Context, r *Repository, kind QueryKind, param string, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	fp, err := r.Fingerprint(ctx)
	if err != nil {
		return zero, err
	}

	key := QueryKey{Kind: kind, Param: param, Fingerprint: fp}
	v, err := r.queries.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		r.logger.Debug("running query", "kind", kind.String(), "param", param)
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// mutate applies a change through the engine. On success it bumps the
// mutation counter and drops the cached entries of the affected kinds; on
// failure the cache and counter are left as they were.
func (r *Repository) mutate(ctx context.Context, op string, apply func(context.Context) error, affected ...QueryKind) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := apply(ctx); err != nil {
		r.logger.Debug("mutation failed", "op", op, "error", err)
		return err
	}

	r.mutations++
	removed := r.queries.InvalidateMatching(affects(affected...))
	r.logger.Debug("mutation applied", "op", op, "mutation", r.mutations, "invalidated", removed)
	return nil
}
