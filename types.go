package nanogit

import (
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/jmgilman/go/nanogit/engine"
)

// ChangeKind names a change the way git status does.
type ChangeKind string

const (
	ChangeAdded       ChangeKind = "added"
	ChangeModified    ChangeKind = "modified"
	ChangeDeleted     ChangeKind = "deleted"
	ChangeRenamed     ChangeKind = "renamed"
	ChangeCopied      ChangeKind = "copied"
	ChangeTypeChanged ChangeKind = "type-changed"
	ChangeUnmerged    ChangeKind = "unmerged"
)

// FileChange is one changed path on one side of the index.
type FileChange struct {
	Path    string
	OldPath string // Set for renames and copies
	Kind    ChangeKind
}

// Status is the simplified output of git status. Every list is sorted by
// path.
type Status struct {
	// Staged holds changes between HEAD and the index.
	Staged []FileChange
	// Unstaged holds changes between the index and the worktree.
	Unstaged []FileChange
	// Untracked holds paths unknown to the index.
	Untracked []string
	// Conflicted holds paths with unresolved merge conflicts.
	Conflicted []string
}

// Clean reports whether the worktree has no changes at all.
func (s Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 &&
		len(s.Untracked) == 0 && len(s.Conflicted) == 0
}

// DiffEntry is the difference of one file.
type DiffEntry struct {
	Path    string
	OldPath string
	Change  ChangeKind
	Binary  bool
	Hunks   []Hunk
}

// Range is a span of lines on one side of a hunk. Start is 1-based; for an
// empty range it is the line after which the change applies.
type Range struct {
	Start int
	Lines int
}

// Hunk is a block of changed lines with up to three lines of context on each
// side.
type Hunk struct {
	Old   Range
	New   Range
	Lines []Line
}

// LineKind classifies a line in a hunk.
type LineKind string

const (
	LineContext LineKind = "context"
	LineAdded   LineKind = "added"
	LineDeleted LineKind = "deleted"
)

// Line is a single hunk line. Content has no line terminator; NoNewline is
// set on a final line that lacks one.
type Line struct {
	Kind      LineKind
	Content   string
	NoNewline bool
}

// Branch is a local or remote-tracking branch.
type Branch struct {
	Name      string
	Hash      plumbing.Hash
	IsRemote  bool
	IsCurrent bool
}

// Commit is a value type containing formatted commit information.
type Commit struct {
	Hash           string
	Parents        []string
	Author         string
	Email          string
	Committer      string
	CommitterEmail string
	Message        string
	Timestamp      time.Time
}

// Summary returns the first line of the commit message.
func (c Commit) Summary() string {
	summary, _, _ := strings.Cut(c.Message, "\n")
	return summary
}

// Head describes the current HEAD.
type Head struct {
	// Branch is the short branch name. Empty when detached.
	Branch   string
	Hash     plumbing.Hash
	Detached bool
	// Unborn is set when the branch has no commits yet.
	Unborn bool
}

// DiffScope selects the paths and trees a diff covers.
type DiffScope = engine.DiffScope

// DiffMode selects which trees a diff compares.
type DiffMode = engine.DiffMode

// Diff modes.
const (
	DiffHead     = engine.DiffHead
	DiffStaged   = engine.DiffStaged
	DiffUnstaged = engine.DiffUnstaged
)

// LogRange selects commits like "git log From..To".
type LogRange = engine.LogRange
