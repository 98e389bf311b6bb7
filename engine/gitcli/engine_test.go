package gitcli_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/exec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/nanogit/engine"
	"github.com/jmgilman/go/nanogit/engine/gitcli"
)

const (
	headHash  = "1111111111111111111111111111111111111111"
	otherHash = "2222222222222222222222222222222222222222"
)

// fakeExecutor records git invocations and answers them with respond.
type fakeExecutor struct {
	mu      sync.Mutex
	dir     string
	env     map[string]string
	calls   [][]string
	dirs    []string
	respond func(args []string) (*exec.Result, error)
}

func (f *fakeExecutor) WithEnv(env map[string]string) exec.Executor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.env = env
	return f
}

func (f *fakeExecutor) WithDir(dir string) exec.Executor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dir = dir
	return f
}

func (f *fakeExecutor) WithContext(context.Context) exec.Executor { return f }
func (f *fakeExecutor) WithDisableColors() exec.Executor          { return f }
func (f *fakeExecutor) WithTimeout(string) exec.Executor          { return f }
func (f *fakeExecutor) WithInheritEnv() exec.Executor             { return f }
func (f *fakeExecutor) WithStdout(io.Writer) exec.Executor        { return f }
func (f *fakeExecutor) WithStderr(io.Writer) exec.Executor        { return f }
func (f *fakeExecutor) WithPassthrough() exec.Executor            { return f }
func (f *fakeExecutor) Clone() exec.Executor                      { return f }

func (f *fakeExecutor) Run(args ...string) (*exec.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.dirs = append(f.dirs, f.dir)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return &exec.Result{}, nil
	}
	return respond(args)
}

// subcommands returns the git subcommand of every call, skipping -c pairs.
func (f *fakeExecutor) subcommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var subs []string
	for _, call := range f.calls {
		args := call[1:]
		for len(args) >= 2 && args[0] == "-c" {
			args = args[2:]
		}
		if len(args) > 0 {
			subs = append(subs, args[0])
		}
	}
	return subs
}

func (f *fakeExecutor) call(sub string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		for _, a := range c {
			if a == sub {
				return c
			}
		}
	}
	return nil
}

func succeed(stdout string) (*exec.Result, error) {
	return &exec.Result{Stdout: stdout}, nil
}

func fail(code int, stderr string) (*exec.Result, error) {
	return &exec.Result{Stderr: stderr, ExitCode: code}, &exec.ExecError{ExitCode: code, Stderr: stderr}
}

// withHead answers HEAD queries for branch main and passes every other
// call to next. A zero headAt means the branch has no commits yet.
func withHead(headAt string, next func(args []string) (*exec.Result, error)) func(args []string) (*exec.Result, error) {
	return func(args []string) (*exec.Result, error) {
		switch {
		case contains(args, "symbolic-ref"):
			return succeed("refs/heads/main\n")
		case contains(args, "rev-parse") && headAt == "":
			return fail(1, "")
		case contains(args, "rev-parse"):
			return succeed(headAt + "\n")
		case next == nil:
			return succeed("")
		}
		return next(args)
	}
}

func contains(args []string, s string) bool {
	for _, a := range args {
		if a == s {
			return true
		}
	}
	return false
}

// newRepoDir creates a worktree with a minimal .git directory on branch main.
func newRepoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "refs", "heads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	return dir
}

func openFake(t *testing.T, respond func(args []string) (*exec.Result, error)) (*gitcli.Engine, *fakeExecutor, string) {
	t.Helper()
	dir := newRepoDir(t)
	fake := &fakeExecutor{respond: respond}
	e, err := gitcli.Open(dir, gitcli.WithExecutor(fake))
	require.NoError(t, err)
	return e, fake, dir
}

func TestOpen(t *testing.T) {
	t.Run("not a repository", func(t *testing.T) {
		_, err := gitcli.Open(t.TempDir(), gitcli.WithExecutor(&fakeExecutor{}))
		require.Error(t, err)
		kind, ok := engine.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, engine.KindNotARepository, kind)
	})

	t.Run("git directory", func(t *testing.T) {
		dir := newRepoDir(t)
		e, err := gitcli.Open(dir, gitcli.WithExecutor(&fakeExecutor{}))
		require.NoError(t, err)
		assert.Equal(t, dir, e.Path())
	})

	t.Run("gitdir file", func(t *testing.T) {
		main := newRepoDir(t)
		linked := t.TempDir()
		gitDir := filepath.Join(main, ".git", "worktrees", "linked")
		require.NoError(t, os.MkdirAll(gitDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte(headHash+"\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(gitDir, "commondir"), []byte("../..\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(linked, ".git"), []byte("gitdir: "+gitDir+"\n"), 0o644))

		e, err := gitcli.Open(linked, gitcli.WithExecutor(&fakeExecutor{}))
		require.NoError(t, err)

		signals, err := e.Signals(context.Background())
		require.NoError(t, err)
		assert.Equal(t, headHash, signals.Head)
	})

	t.Run("malformed gitdir file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("garbage"), 0o644))
		_, err := gitcli.Open(dir, gitcli.WithExecutor(&fakeExecutor{}))
		kind, ok := engine.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, engine.KindNotARepository, kind)
	})

	t.Run("nil executor", func(t *testing.T) {
		_, err := gitcli.Open(newRepoDir(t), gitcli.WithExecutor(nil))
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeInvalidInput, platformerrors.GetCode(err))
	})
}

func TestReadStatus(t *testing.T) {
	e, fake, dir := openFake(t, func(args []string) (*exec.Result, error) {
		return succeed(" M a.txt\x00?? b.txt\x00")
	})

	status, err := e.ReadStatus(context.Background())
	require.NoError(t, err)
	assert.Len(t, status, 2)

	call := fake.call("status")
	require.NotNil(t, call)
	assert.Equal(t, "git", call[0])
	assert.Contains(t, call, "--porcelain=v1")
	assert.Contains(t, call, "-z")
	assert.Equal(t, dir, fake.dirs[0])
	assert.Equal(t, "0", fake.env["GIT_OPTIONAL_LOCKS"])
}

func TestReadStatus_NotARepository(t *testing.T) {
	e, _, _ := openFake(t, func(args []string) (*exec.Result, error) {
		return fail(128, "fatal: not a git repository (or any of the parent directories): .git")
	})

	_, err := e.ReadStatus(context.Background())
	kind, ok := engine.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, engine.KindNotARepository, kind)
}

func TestHead(t *testing.T) {
	t.Run("branch", func(t *testing.T) {
		e, _, _ := openFake(t, withHead(headHash, nil))
		head, err := e.Head(context.Background())
		require.NoError(t, err)
		assert.Equal(t, plumbing.NewBranchReferenceName("main"), head.Branch)
		assert.Equal(t, plumbing.NewHash(headHash), head.Hash)
		assert.False(t, head.Detached)
		assert.False(t, head.Unborn)
	})

	t.Run("unborn", func(t *testing.T) {
		e, _, _ := openFake(t, withHead("", nil))
		head, err := e.Head(context.Background())
		require.NoError(t, err)
		assert.True(t, head.Unborn)
		assert.True(t, head.Hash.IsZero())
	})

	t.Run("detached", func(t *testing.T) {
		e, _, _ := openFake(t, func(args []string) (*exec.Result, error) {
			if contains(args, "symbolic-ref") {
				return fail(1, "")
			}
			return succeed(otherHash + "\n")
		})
		head, err := e.Head(context.Background())
		require.NoError(t, err)
		assert.True(t, head.Detached)
		assert.Equal(t, plumbing.NewHash(otherHash), head.Hash)
	})
}

func TestComputeDiff(t *testing.T) {
	diffOut := "diff --git a/a.txt b/a.txt\n--- a/a.txt\n+++ b/a.txt\n@@ -1 +1 @@\n-old\n+new\n"

	t.Run("staged against HEAD", func(t *testing.T) {
		e, fake, _ := openFake(t, withHead(headHash, func([]string) (*exec.Result, error) {
			return succeed(diffOut)
		}))

		patches, err := e.ComputeDiff(context.Background(), engine.DiffScope{
			Mode:  engine.DiffStaged,
			Paths: []string{"a.txt"},
		})
		require.NoError(t, err)
		require.Len(t, patches, 1)

		call := fake.call("diff")
		require.NotNil(t, call)
		assert.Contains(t, call, "--cached")
		assert.Contains(t, call, headHash)
		assert.Equal(t, ":(literal)a.txt", call[len(call)-1])
	})

	t.Run("unborn HEAD uses the empty tree", func(t *testing.T) {
		e, fake, _ := openFake(t, withHead("", nil))

		_, err := e.ComputeDiff(context.Background(), engine.DiffScope{Mode: engine.DiffHead})
		require.NoError(t, err)
		assert.Contains(t, fake.call("diff"), "4b825dc642cb6eb9a060e54bf8d69288fbee4904")
	})

	t.Run("unstaged has no base", func(t *testing.T) {
		e, fake, _ := openFake(t, func(args []string) (*exec.Result, error) {
			return succeed("")
		})

		_, err := e.ComputeDiff(context.Background(), engine.DiffScope{Mode: engine.DiffUnstaged})
		require.NoError(t, err)
		assert.Equal(t, []string{"diff"}, fake.subcommands())
		assert.NotContains(t, fake.call("diff"), "--cached")
	})
}

func TestListRefs(t *testing.T) {
	e, _, _ := openFake(t, withHead(headHash, func([]string) (*exec.Result, error) {
		return succeed("refs/heads/main\x00" + headHash + "\x00\nrefs/heads/feature\x00" + otherHash + "\x00\n")
	}))

	refs, err := e.ListRefs(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 3)

	last := refs[2]
	assert.Equal(t, plumbing.HEAD, last.Name())
	assert.Equal(t, plumbing.SymbolicReference, last.Type())
	assert.Equal(t, plumbing.NewBranchReferenceName("main"), last.Target())
}

func TestReadLog(t *testing.T) {
	t.Run("range and limit", func(t *testing.T) {
		e, fake, _ := openFake(t, func(args []string) (*exec.Result, error) {
			return succeed(headHash + "\n" + otherHash + "\n")
		})

		hashes, err := e.ReadLog(context.Background(), engine.LogRange{From: "v1", To: "main", Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []plumbing.Hash{plumbing.NewHash(headHash), plumbing.NewHash(otherHash)}, hashes)

		call := fake.call("rev-list")
		assert.Contains(t, call, "--max-count=2")
		assert.Contains(t, call, "main")
		assert.Contains(t, call, "^v1")
	})

	t.Run("unborn HEAD", func(t *testing.T) {
		e, fake, _ := openFake(t, withHead("", nil))

		hashes, err := e.ReadLog(context.Background(), engine.LogRange{})
		require.NoError(t, err)
		assert.Empty(t, hashes)
		assert.NotContains(t, fake.subcommands(), "rev-list")
	})

	t.Run("unknown revision", func(t *testing.T) {
		e, _, _ := openFake(t, func(args []string) (*exec.Result, error) {
			return fail(128, "fatal: bad revision 'nope'")
		})

		_, err := e.ReadLog(context.Background(), engine.LogRange{To: "nope"})
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	})
}

func TestApplyStage(t *testing.T) {
	e, fake, _ := openFake(t, nil)

	require.NoError(t, e.ApplyStage(context.Background(), []string{"a.txt", "dir/"}))

	call := fake.call("add")
	assert.Equal(t, []string{"git", "add", "-A", "--", ":(literal)a.txt", ":(literal)dir"}, call)
}

func TestApplyUnstage(t *testing.T) {
	t.Run("resets to HEAD", func(t *testing.T) {
		e, fake, _ := openFake(t, withHead(headHash, nil))

		require.NoError(t, e.ApplyUnstage(context.Background(), []string{"a.txt"}))
		assert.Equal(t, []string{"git", "reset", "-q", "HEAD", "--", ":(literal)a.txt"}, fake.call("reset"))
	})

	t.Run("unborn removes from the index", func(t *testing.T) {
		e, fake, _ := openFake(t, withHead("", nil))

		require.NoError(t, e.ApplyUnstage(context.Background(), []string{"a.txt"}))
		assert.Contains(t, fake.subcommands(), "rm")
		assert.NotContains(t, fake.subcommands(), "reset")
	})

	t.Run("locked index", func(t *testing.T) {
		e, _, _ := openFake(t, withHead(headHash, func([]string) (*exec.Result, error) {
			return fail(128, "fatal: Unable to create '/repo/.git/index.lock': File exists.")
		}))

		err := e.ApplyUnstage(context.Background(), []string{"a.txt"})
		kind, ok := engine.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, engine.KindLocked, kind)
		assert.True(t, platformerrors.IsRetryable(err))
	})
}

func TestCreateCommit(t *testing.T) {
	t.Run("with author", func(t *testing.T) {
		e, fake, _ := openFake(t, func(args []string) (*exec.Result, error) {
			if contains(args, "rev-parse") {
				return succeed(otherHash + "\n")
			}
			return succeed("")
		})

		hash, err := e.CreateCommit(context.Background(), engine.CommitRequest{
			Message:     "Add file",
			AuthorName:  "Test User",
			AuthorEmail: "test@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, plumbing.NewHash(otherHash), hash)

		call := fake.call("commit")
		require.NotNil(t, call)
		joined := strings.Join(call, " ")
		assert.Contains(t, joined, "-c user.name=Test User")
		assert.Contains(t, joined, "-c user.email=test@example.com")
		assert.Contains(t, joined, "-m Add file")
		assert.NotContains(t, call, "--allow-empty")
	})

	t.Run("hash unavailable after commit", func(t *testing.T) {
		e, fake, _ := openFake(t, func(args []string) (*exec.Result, error) {
			if contains(args, "rev-parse") {
				return fail(128, "fatal: unable to read HEAD")
			}
			return succeed("")
		})

		hash, err := e.CreateCommit(context.Background(), engine.CommitRequest{Message: "Add file"})
		require.NoError(t, err)
		assert.True(t, hash.IsZero())
		assert.NotNil(t, fake.call("commit"))
	})

	t.Run("nothing to commit", func(t *testing.T) {
		e, _, _ := openFake(t, func(args []string) (*exec.Result, error) {
			return &exec.Result{Stdout: "nothing to commit, working tree clean", ExitCode: 1},
				&exec.ExecError{ExitCode: 1, Stdout: "nothing to commit, working tree clean"}
		})

		_, err := e.CreateCommit(context.Background(), engine.CommitRequest{Message: "empty"})
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeConflict, platformerrors.GetCode(err))
	})

	t.Run("missing message", func(t *testing.T) {
		e, fake, _ := openFake(t, nil)

		_, err := e.CreateCommit(context.Background(), engine.CommitRequest{})
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeInvalidInput, platformerrors.GetCode(err))
		assert.Empty(t, fake.subcommands())
	})
}

func TestSignals(t *testing.T) {
	e, fake, dir := openFake(t, nil)
	ctx := context.Background()

	first, err := e.Signals(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/main@absent", first.Head)
	assert.Equal(t, engine.Absent, first.Index)
	assert.Empty(t, fake.subcommands(), "signals must not start git")

	again, err := e.Signals(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "refs", "heads", "main"), []byte(headHash+"\n"), 0o644))
	afterCommit, err := e.Signals(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Head, afterCommit.Head)
	assert.NotEqual(t, first.Refs, afterCommit.Refs)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello\n"), 0o644))
	afterWrite, err := e.Signals(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, afterCommit.Worktree, afterWrite.Worktree)
	assert.Equal(t, afterCommit.Head, afterWrite.Head)
}

func TestCanceledContext(t *testing.T) {
	e, fake, _ := openFake(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ReadStatus(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = e.Signals(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.subcommands())
}
