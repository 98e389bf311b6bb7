package nanogit

import (
	"slices"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jmgilman/go/nanogit/engine"
)

// typeChanged is git's status code for a file whose type changed, for
// example from a regular file to a symlink. go-git has no constant for it.
const typeChanged gogit.StatusCode = 'T'

// translateStatus sorts porcelain status codes into the simplified Status.
func translateStatus(raw gogit.Status) Status {
	paths := make([]string, 0, len(raw))
	for path := range raw {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	var s Status
	for _, path := range paths {
		fs := raw[path]
		switch {
		case fs.Staging == gogit.Untracked || fs.Worktree == gogit.Untracked:
			s.Untracked = append(s.Untracked, path)
		case isConflict(fs):
			s.Conflicted = append(s.Conflicted, path)
		default:
			if change, ok := fileChange(path, fs.Staging, fs.Extra); ok {
				s.Staged = append(s.Staged, change)
			}
			if change, ok := fileChange(path, fs.Worktree, fs.Extra); ok {
				s.Unstaged = append(s.Unstaged, change)
			}
		}
	}
	return s
}

// isConflict reports the unmerged states: either side U, or both sides added
// or both deleted.
func isConflict(fs *gogit.FileStatus) bool {
	return fs.Staging == gogit.UpdatedButUnmerged || fs.Worktree == gogit.UpdatedButUnmerged ||
		(fs.Staging == gogit.Added && fs.Worktree == gogit.Added) ||
		(fs.Staging == gogit.Deleted && fs.Worktree == gogit.Deleted)
}

func fileChange(path string, code gogit.StatusCode, extra string) (FileChange, bool) {
	var kind ChangeKind
	switch code {
	case gogit.Added:
		kind = ChangeAdded
	case gogit.Modified:
		kind = ChangeModified
	case gogit.Deleted:
		kind = ChangeDeleted
	case gogit.Renamed:
		kind = ChangeRenamed
	case gogit.Copied:
		kind = ChangeCopied
	case typeChanged:
		kind = ChangeTypeChanged
	case gogit.UpdatedButUnmerged:
		kind = ChangeUnmerged
	default:
		return FileChange{}, false
	}

	change := FileChange{Path: path, Kind: kind}
	if kind == ChangeRenamed || kind == ChangeCopied {
		change.OldPath = extra
	}
	return change, true
}

// translateDiff converts full-file patches to diff entries with context
// hunks.
func translateDiff(patches []engine.FilePatch) []DiffEntry {
	entries := make([]DiffEntry, 0, len(patches))
	for _, p := range patches {
		entry := DiffEntry{Binary: p.Binary}
		switch {
		case p.From == "":
			entry.Path, entry.Change = p.To, ChangeAdded
		case p.To == "":
			entry.Path, entry.Change = p.From, ChangeDeleted
		case p.From != p.To:
			entry.Path, entry.OldPath, entry.Change = p.To, p.From, ChangeRenamed
		default:
			entry.Path, entry.Change = p.To, ChangeModified
		}
		if !p.Binary {
			entry.Hunks = buildHunks(p.Chunks, contextLines)
		}
		entries = append(entries, entry)
	}

	slices.SortFunc(entries, func(a, b DiffEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
	return entries
}

// translateBranches picks branches out of a reference list. Symbolic
// references such as refs/remotes/origin/HEAD are skipped.
func translateBranches(refs []*plumbing.Reference) []Branch {
	var current plumbing.ReferenceName
	for _, ref := range refs {
		if ref.Name() == plumbing.HEAD && ref.Type() == plumbing.SymbolicReference {
			current = ref.Target()
		}
	}

	var branches []Branch
	for _, ref := range refs {
		if ref.Type() != plumbing.HashReference {
			continue
		}
		name := ref.Name()
		switch {
		case name.IsBranch():
			branches = append(branches, Branch{
				Name:      name.Short(),
				Hash:      ref.Hash(),
				IsCurrent: name == current,
			})
		case name.IsRemote():
			branches = append(branches, Branch{
				Name:     name.Short(),
				Hash:     ref.Hash(),
				IsRemote: true,
			})
		}
	}

	slices.SortFunc(branches, func(a, b Branch) int {
		if a.IsRemote != b.IsRemote {
			if a.IsRemote {
				return 1
			}
			return -1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return branches
}

// translateCommit copies the fields of a go-git commit into a Commit.
func translateCommit(c *object.Commit) Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return Commit{
		Hash:           c.Hash.String(),
		Parents:        parents,
		Author:         c.Author.Name,
		Email:          c.Author.Email,
		Committer:      c.Committer.Name,
		CommitterEmail: c.Committer.Email,
		Message:        strings.TrimRight(c.Message, "\n"),
		Timestamp:      c.Author.When,
	}
}

func translateHead(info engine.HeadInfo) Head {
	h := Head{
		Hash:     info.Hash,
		Detached: info.Detached,
		Unborn:   info.Unborn,
	}
	if !info.Detached {
		h.Branch = info.Branch.Short()
	}
	return h
}
