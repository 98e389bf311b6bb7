package nanogit

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/go/exec"

	"github.com/jmgilman/go/nanogit/cache"
	"github.com/jmgilman/go/nanogit/engine"
)

const (
	// DefaultMaxCommits bounds the per-commit detail store.
	DefaultMaxCommits = 4096
	// DefaultRefreshLimit is the number of commits Refresh loads.
	DefaultRefreshLimit = 100
)

// Option configures Open.
type Option func(*options)

type options struct {
	engine       engine.Engine
	fs           billy.Filesystem
	gitCLI       bool
	executor     exec.Executor
	maxEntries   int
	maxCommits   int
	logger       *slog.Logger
	authorName   string
	authorEmail  string
	refreshLimit int
}

func defaultOptions() *options {
	return &options{
		maxEntries:   cache.DefaultMaxEntries,
		maxCommits:   DefaultMaxCommits,
		refreshLimit: DefaultRefreshLimit,
	}
}

// WithEngine uses e instead of opening an engine for the path. The path given
// to Open is then only used in log output.
//
// Example:
//
//	e, _ := gogit.Open("/path/to/repo")
//	repo, err := nanogit.Open("/path/to/repo", nanogit.WithEngine(e))
func WithEngine(e engine.Engine) Option {
	return func(opts *options) {
		opts.engine = e
	}
}

// WithFilesystem opens the repository inside fs with the go-git engine. If
// not provided, defaults to the local disk.
//
// Example:
//
//	repo, err := nanogit.Open("/", nanogit.WithFilesystem(fs))
func WithFilesystem(fs billy.Filesystem) Option {
	return func(opts *options) {
		opts.fs = fs
	}
}

// WithGitCLI answers queries with the git binary instead of go-git.
//
// Example:
//
//	repo, err := nanogit.Open("/path/to/repo", nanogit.WithGitCLI())
func WithGitCLI() Option {
	return func(opts *options) {
		opts.gitCLI = true
	}
}

// WithExecutor runs git through executor. It implies WithGitCLI and is
// primarily useful for testing.
func WithExecutor(executor exec.Executor) Option {
	return func(opts *options) {
		opts.gitCLI = true
		opts.executor = executor
	}
}

// WithMaxEntries bounds the query cache to n entries, evicting the least
// recently used. Defaults to cache.DefaultMaxEntries.
func WithMaxEntries(n int) Option {
	return func(opts *options) {
		opts.maxEntries = n
	}
}

// WithUnboundedCache keeps every query result until a mutation or Close
// drops it. Long-lived handles on busy worktrees grow without limit.
func WithUnboundedCache() Option {
	return func(opts *options) {
		opts.maxEntries = 0
		opts.maxCommits = 0
	}
}

// WithMaxCommits bounds the per-commit detail store. Defaults to
// DefaultMaxCommits.
func WithMaxCommits(n int) Option {
	return func(opts *options) {
		opts.maxCommits = n
	}
}

// WithLogger sets the logger for cache and mutation events. Defaults to a
// logger that discards everything.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	repo, err := nanogit.Open(path, nanogit.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithSignature sets the author of commits made with Commit. Fields left
// empty are read from git configuration (user.name and user.email).
func WithSignature(name, email string) Option {
	return func(opts *options) {
		opts.authorName = name
		opts.authorEmail = email
	}
}

// WithRefreshLimit sets how many commits Refresh loads into the cache.
func WithRefreshLimit(n int) Option {
	return func(opts *options) {
		opts.refreshLimit = n
	}
}
