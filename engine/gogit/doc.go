// Package gogit implements engine.Engine in-process with go-git over a
// go-billy filesystem.
//
// The worktree filesystem defaults to the local disk rooted at the repository
// path. WithFilesystem swaps in any billy filesystem, which makes memfs-backed
// repositories possible in tests:
//
//	e, err := gogit.Init("/", gogit.WithFilesystem(memfs.New()))
//
// Index writes take git's index.lock, so the engine cooperates with a git
// process working on the same repository and reports engine.KindLocked when
// the lock is held elsewhere.
package gogit
