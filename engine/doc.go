// Package engine defines the object-store capability behind a cached
// repository and the raw shapes it produces.
//
// An Engine answers status, diff, reference and history queries straight
// from the repository on disk and applies index mutations. It never caches.
// Two implementations exist: engine/gogit runs in-process on go-git and a
// billy filesystem, engine/gitcli shells out to the git binary.
//
// Engine failures are PlatformErrors from github.com/jmgilman/go/errors and
// carry a Kind (see KindOf) so callers can tell a missing repository from a
// held lock, a corrupted store or a filesystem failure.
//
// The package also provides the stat digests (StampTree, StampFile, Digest)
// both engines use to report fingerprint Signals.
package engine
