package nanogit_test

import (
	"context"
	"strconv"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/nanogit/engine"
)

// fakeEngine is an in-memory engine that counts calls. Its signals only
// change when a test changes them, so the tests can tell the mutation
// counter apart from on-disk signals.
type fakeEngine struct {
	mu       sync.Mutex
	signals  engine.Signals
	head     engine.HeadInfo
	status   gogit.Status
	patches  []engine.FilePatch
	refs     []*plumbing.Reference
	history  []plumbing.Hash
	commits  map[plumbing.Hash]*object.Commit
	calls    map[string]int
	failures map[string][]error
	gates    map[string]chan struct{}
	clock    time.Time

	// hideHash makes CreateCommit record the commit but report a zero hash.
	hideHash bool
}

var _ engine.Engine = (*fakeEngine)(nil)

// newFakeEngine returns an engine on branch main with one root commit and one
// untracked file, a.txt.
func newFakeEngine() *fakeEngine {
	f := &fakeEngine{
		signals: engine.Signals{Head: "ref: refs/heads/main", Index: "index-1", Worktree: 1, Refs: 1},
		status: gogit.Status{
			"a.txt": {Staging: gogit.Untracked, Worktree: gogit.Untracked},
		},
		commits:  make(map[plumbing.Hash]*object.Commit),
		calls:    make(map[string]int),
		failures: make(map[string][]error),
		gates:    make(map[string]chan struct{}),
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	root := f.addCommit("Initial commit\n")
	f.head = engine.HeadInfo{Branch: plumbing.NewBranchReferenceName("main"), Hash: root}
	f.refs = []*plumbing.Reference{
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), root),
		plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main")),
	}
	f.patches = []engine.FilePatch{{
		From:   "b.txt",
		To:     "b.txt",
		Chunks: []engine.Chunk{{Op: fdiff.Delete, Content: "old\n"}, {Op: fdiff.Add, Content: "new\n"}},
	}}
	return f
}

// addCommit records a commit on top of the current history. Callers hold mu
// or own f exclusively.
func (f *fakeEngine) addCommit(message string) plumbing.Hash {
	f.clock = f.clock.Add(time.Minute)
	sig := object.Signature{Name: "Test User", Email: "test@example.com", When: f.clock}

	c := &object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   message,
		TreeHash:  plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904"),
	}
	if len(f.history) > 0 {
		c.ParentHashes = []plumbing.Hash{f.history[0]}
	}
	obj := &plumbing.MemoryObject{}
	_ = c.Encode(obj)
	c.Hash = obj.Hash()

	f.commits[c.Hash] = c
	f.history = append([]plumbing.Hash{c.Hash}, f.history...)
	return c.Hash
}

// enter counts a call, returns a queued failure and waits on a gate. A
// gated call gives up when ctx ends, like a killed git process.
func (f *fakeEngine) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	var err error
	if queued := f.failures[method]; len(queued) > 0 {
		err, f.failures[method] = queued[0], queued[1:]
	}
	gate := f.gates[method]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// count returns how often method was called.
func (f *fakeEngine) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// failNext makes the next call of method fail with err.
func (f *fakeEngine) failNext(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = append(f.failures[method], err)
}

// block holds calls of method until the returned release is called.
func (f *fakeEngine) block(method string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[method] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, method)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// touchWorktree simulates an external edit that changes no status.
func (f *fakeEngine) touchWorktree() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals.Worktree++
}

func (f *fakeEngine) Signals(context.Context) (engine.Signals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["signals"]++
	return f.signals, nil
}

func (f *fakeEngine) Head(context.Context) (engine.HeadInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeEngine) ReadStatus(ctx context.Context) (gogit.Status, error) {
	if err := f.enter(ctx, "status"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(gogit.Status, len(f.status))
	for path, fs := range f.status {
		copied := *fs
		out[path] = &copied
	}
	return out, nil
}

func (f *fakeEngine) ComputeDiff(ctx context.Context, scope engine.DiffScope) ([]engine.FilePatch, error) {
	if err := f.enter(ctx, "diff"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []engine.FilePatch
	for _, p := range f.patches {
		if scope.Matches(p.To) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeEngine) ListRefs(ctx context.Context) ([]*plumbing.Reference, error) {
	if err := f.enter(ctx, "refs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*plumbing.Reference(nil), f.refs...), nil
}

func (f *fakeEngine) ReadLog(ctx context.Context, rng engine.LogRange) ([]plumbing.Hash, error) {
	if err := f.enter(ctx, "log"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	hashes := append([]plumbing.Hash(nil), f.history...)
	if rng.Limit > 0 && len(hashes) > rng.Limit {
		hashes = hashes[:rng.Limit]
	}
	return hashes, nil
}

func (f *fakeEngine) ReadCommit(ctx context.Context, hash plumbing.Hash) (*object.Commit, error) {
	if err := f.enter(ctx, "commit-details"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.commits[hash]
	if !ok {
		return nil, engine.NewError(engine.KindCorrupted, plumbing.ErrObjectNotFound, "missing commit "+hash.String())
	}
	return c, nil
}

func (f *fakeEngine) ApplyStage(ctx context.Context, paths []string) error {
	if err := f.enter(ctx, "stage"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range paths {
		fs, ok := f.status[p]
		if !ok {
			return platformerrors.New(platformerrors.CodeNotFound, "path not found: "+p)
		}
		switch {
		case fs.Staging == gogit.Untracked:
			fs.Staging, fs.Worktree = gogit.Added, gogit.Unmodified
		case fs.Worktree != gogit.Unmodified:
			fs.Staging, fs.Worktree = fs.Worktree, gogit.Unmodified
		}
	}
	return nil
}

func (f *fakeEngine) ApplyUnstage(ctx context.Context, paths []string) error {
	if err := f.enter(ctx, "unstage"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range paths {
		fs, ok := f.status[p]
		if !ok {
			continue
		}
		if fs.Staging == gogit.Added {
			fs.Staging, fs.Worktree = gogit.Untracked, gogit.Untracked
			continue
		}
		if fs.Staging != gogit.Unmodified {
			fs.Staging, fs.Worktree = gogit.Unmodified, fs.Staging
		}
	}
	return nil
}

func (f *fakeEngine) CreateCommit(ctx context.Context, req engine.CommitRequest) (plumbing.Hash, error) {
	if err := f.enter(ctx, "create-commit"); err != nil {
		return plumbing.ZeroHash, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	staged := 0
	for path, fs := range f.status {
		if fs.Staging == gogit.Untracked || fs.Staging == gogit.Unmodified {
			continue
		}
		staged++
		if fs.Worktree == gogit.Unmodified {
			delete(f.status, path)
		} else {
			fs.Staging = gogit.Unmodified
		}
	}
	if staged == 0 && !req.AllowEmpty {
		return plumbing.ZeroHash, platformerrors.New(platformerrors.CodeConflict, "nothing to commit")
	}

	hash := f.addCommit(req.Message + "\n")
	f.head.Hash = hash
	f.refs[0] = plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)
	f.signals.Head = "ref: refs/heads/main@" + strconv.Itoa(len(f.history))
	if f.hideHash {
		return plumbing.ZeroHash, nil
	}
	return hash, nil
}
