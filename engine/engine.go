package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Engine is the object-store capability consumed by the cached repository.
//
// Implementations answer queries directly from the store on every call; they
// do no caching of their own. Read methods must be safe for concurrent use.
// Mutating methods are serialized by the caller.
type Engine interface {
	// Signals returns the cheap on-disk observations used to build a
	// fingerprint. It must be much cheaper than any query it guards.
	Signals(ctx context.Context) (Signals, error)

	// Head describes the current HEAD.
	Head(ctx context.Context) (HeadInfo, error)

	// ReadStatus returns porcelain-style status codes for every changed path,
	// including untracked files. Ignored files are excluded.
	ReadStatus(ctx context.Context) (gogit.Status, error)

	// ComputeDiff returns one full-file patch per changed path in scope.
	ComputeDiff(ctx context.Context, scope DiffScope) ([]FilePatch, error)

	// ListRefs returns all references including the HEAD reference.
	ListRefs(ctx context.Context) ([]*plumbing.Reference, error)

	// ReadLog returns commit hashes for the range, newest first.
	ReadLog(ctx context.Context, rng LogRange) ([]plumbing.Hash, error)

	// ReadCommit loads the details of a single commit.
	ReadCommit(ctx context.Context, hash plumbing.Hash) (*object.Commit, error)

	// ApplyStage adds the current worktree state of paths to the index.
	// Deleted paths are removed from the index.
	ApplyStage(ctx context.Context, paths []string) error

	// ApplyUnstage resets the index entries of paths to their HEAD state.
	ApplyUnstage(ctx context.Context, paths []string) error

	// CreateCommit records the index as a new commit on HEAD. A zero hash
	// with a nil error means the commit was recorded but its hash is unknown.
	CreateCommit(ctx context.Context, req CommitRequest) (plumbing.Hash, error)
}

// Signals are the raw observations that make up a repository fingerprint.
type Signals struct {
	// Head identifies the HEAD target and the commit it resolves to.
	Head string
	// Index is the stat identity of the index file.
	Index string
	// Worktree is a digest over the stat data of every worktree file.
	Worktree uint64
	// Refs is a digest over all reference names and targets.
	Refs uint64
}

// HeadInfo describes HEAD.
type HeadInfo struct {
	Branch   plumbing.ReferenceName
	Hash     plumbing.Hash
	Detached bool
	Unborn   bool
}

// DiffMode selects which two trees a diff compares.
type DiffMode uint8

const (
	// DiffHead compares the HEAD commit against the worktree.
	DiffHead DiffMode = iota
	// DiffStaged compares the HEAD commit against the index.
	DiffStaged
	// DiffUnstaged compares the index against the worktree.
	DiffUnstaged
)

func (m DiffMode) String() string {
	switch m {
	case DiffHead:
		return "head"
	case DiffStaged:
		return "staged"
	case DiffUnstaged:
		return "unstaged"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// DiffScope restricts a diff to a set of paths. An empty Paths list means the
// whole repository. A path matches itself and everything below it.
type DiffScope struct {
	Paths []string
	Mode  DiffMode
}

// Matches reports whether path falls inside the scope.
func (s DiffScope) Matches(path string) bool {
	if len(s.Paths) == 0 {
		return true
	}
	for _, p := range s.Paths {
		p = strings.TrimSuffix(p, "/")
		if p == "" || p == "." || path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Key returns a canonical string for the scope. Scopes that select the same
// paths in a different order or with duplicates share a key.
func (s DiffScope) Key() string {
	paths := make([]string, 0, len(s.Paths))
	for _, p := range s.Paths {
		paths = append(paths, strings.TrimSuffix(p, "/"))
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)
	return s.Mode.String() + ":" + strings.Join(paths, "\x00")
}

// LogRange selects commits reachable from To but not from From, like
// "git log From..To". An empty To means HEAD. Limit <= 0 means no limit.
type LogRange struct {
	From  string
	To    string
	Limit int
}

// Target returns To, defaulting to HEAD.
func (r LogRange) Target() string {
	if r.To == "" {
		return "HEAD"
	}
	return r.To
}

// Key returns a canonical string for the range.
func (r LogRange) Key() string {
	limit := r.Limit
	if limit < 0 {
		limit = 0
	}
	return fmt.Sprintf("%s..%s#%d", r.From, r.Target(), limit)
}

// FilePatch is the full-file difference of one path. Chunks cover the entire
// old and new contents in order. From or To is empty when the file is absent
// on that side.
type FilePatch struct {
	From   string
	To     string
	Binary bool
	Chunks []Chunk
}

// Chunk is a run of lines sharing one operation. Content keeps line endings.
type Chunk struct {
	Op      fdiff.Operation
	Content string
}

// CommitRequest describes a commit to create. Empty author fields are
// resolved from git configuration.
type CommitRequest struct {
	Message     string
	AuthorName  string
	AuthorEmail string
	AllowEmpty  bool
}
