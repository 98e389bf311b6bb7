// Package testutil provides helpers for building throwaway repositories in
// tests. Repositories live either in memory (memfs) or in a temporary
// directory on disk, and are driven through the go-git engine.
package testutil

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	gitengine "github.com/jmgilman/go/nanogit/engine/gogit"
)

// NewMemoryRepo creates an empty repository on an in-memory filesystem. HEAD
// points at an unborn main branch.
//
// Example:
//
//	e, fs, err := testutil.NewMemoryRepo()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	_ = testutil.CreateTestFile(fs, "README.md", testutil.TestFileContent)
func NewMemoryRepo() (*gitengine.Engine, billy.Filesystem, error) {
	e, err := gitengine.Init("/", gitengine.WithFilesystem(memfs.New()))
	if err != nil {
		//nolint:wrapcheck // Test utility - engine errors are already wrapped
		return nil, nil, err
	}
	return e, e.Filesystem(), nil
}

// NewDiskRepo creates an empty repository in dir on the local disk, usually a
// t.TempDir(). Files are fingerprinted by modification time like any real
// checkout.
func NewDiskRepo(dir string) (*gitengine.Engine, billy.Filesystem, error) {
	e, err := gitengine.Init(dir)
	if err != nil {
		//nolint:wrapcheck // Test utility - engine errors are already wrapped
		return nil, nil, err
	}
	return e, e.Filesystem(), nil
}

// CreateTestFile writes content to path, creating parent directories and
// truncating any existing file.
func CreateTestFile(fs billy.Filesystem, path, content string) error {
	file, err := fs.Create(path)
	if err != nil {
		//nolint:wrapcheck // Test utility - simple file operation error
		return err
	}
	defer func() {
		_ = file.Close() // Ignore close error in test utility
	}()

	_, err = file.Write([]byte(content))
	//nolint:wrapcheck // Test utility - simple file operation error
	return err
}

// CreateTestCommitWithFile writes a file, stages it and commits it with the
// test author. It returns the new commit hash.
func CreateTestCommitWithFile(e *gitengine.Engine, fs billy.Filesystem, path, content, message string) (string, error) {
	return CreateTestCommitWithTimestamp(e, fs, path, content, message, time.Now())
}

// CreateTestCommitWithTimestamp is CreateTestCommitWithFile with a fixed
// author and committer time. History is ordered by committer time, so tests
// that check log order should space their commits out with this helper.
func CreateTestCommitWithTimestamp(e *gitengine.Engine, fs billy.Filesystem, path, content, message string, when time.Time) (string, error) {
	if err := CreateTestFile(fs, path, content); err != nil {
		return "", err
	}

	wt, err := e.Underlying().Worktree()
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from go-git are transparent
		return "", err
	}

	if _, err := wt.Add(path); err != nil {
		//nolint:wrapcheck // Test utility - errors from go-git are transparent
		return "", err
	}

	sig := &object.Signature{Name: TestAuthor, Email: TestEmail, When: when}
	hash, err := wt.Commit(message, &gogit.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from go-git are transparent
		return "", err
	}
	return hash.String(), nil
}
