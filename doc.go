// Package nanogit provides a simplified, command-line-like view of a git
// repository whose read queries are cached without ever returning stale
// answers.
//
// # Architecture
//
// A Repository sits in front of an engine.Engine, the object-store capability
// that actually scans the worktree, computes diffs and walks history. Two
// engines ship with the module: engine/gogit (in-process go-git, the default)
// and engine/gitcli (the git binary, selected with WithGitCLI).
//
// Every read follows the same path:
//
//  1. Capture a Fingerprint: cheap on-disk signals (HEAD, index stamp,
//     worktree stat digest, refs digest) plus a counter bumped by every
//     mutation made through the Repository.
//  2. Build a QueryKey from the query kind, its parameters and the
//     fingerprint.
//  3. Look the key up in the cache store, computing it at most once when it
//     is missing.
//
// Keys with different fingerprints never share an entry, so changes made by
// other tools are picked up on the next read. Mutations (Stage, Unstage,
// Commit) always go to the engine, then bump the counter and drop the entry
// classes they affect.
//
// Commit details are immutable, so Log caches them by commit hash in a second
// store that survives fingerprint changes. Only the ordering of a range is
// recomputed per fingerprint.
//
// # Result Types
//
// Status, DiffEntry, Branch and Commit are plain values in git's own
// vocabulary. Values returned by a Repository may be shared with other
// callers and must be treated as read-only.
//
// # Concurrency
//
// Reads may run concurrently. They only wait on each other when they ask for
// the same uncached key, in which case one engine call serves all of them.
// Mutations are serialized and never overlap a fingerprint capture.
//
// Open one Repository per repository path. Two handles on the same path keep
// independent caches that cannot see each other's mutation counter.
//
// # Example
//
//	repo, err := nanogit.Open("/path/to/repo")
//	if err != nil {
//	    return err
//	}
//	defer repo.Close()
//
//	status, err := repo.Status(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, path := range status.Untracked {
//	    fmt.Println("untracked:", path)
//	}
package nanogit
