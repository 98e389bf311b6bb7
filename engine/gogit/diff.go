package gogit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"time"

	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/binary"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/jmgilman/go/nanogit/engine"
)

// diffTimeout bounds the line diff of a single file.
const diffTimeout = time.Minute

// ComputeDiff returns a full-file patch for every changed, tracked path in
// scope. Untracked files are not part of any diff.
func (e *Engine) ComputeDiff(ctx context.Context, scope engine.DiffScope) ([]engine.FilePatch, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	status, err := e.status()
	if err != nil {
		return nil, err
	}

	src, err := e.sources()
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(status))
	for path := range status {
		if scope.Matches(path) {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)

	var patches []engine.FilePatch
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		patch, ok, err := src.patch(path, status[path], scope.Mode)
		if err != nil {
			return nil, err
		}
		if ok {
			patches = append(patches, patch)
		}
	}
	return patches, nil
}

// sources reads file contents from the three trees a diff can compare.
type sources struct {
	e     *Engine
	head  *object.Tree
	index *index.Index
}

func (e *Engine) sources() (*sources, error) {
	src := &sources{e: e}

	idx, err := e.repo.Storer.Index()
	if err != nil {
		return nil, engine.Wrap(err, "failed to read index")
	}
	src.index = idx

	ref, err := e.repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return src, nil
	case err != nil:
		return nil, engine.Wrap(err, "failed to resolve HEAD")
	}

	commit, err := e.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, engine.Wrap(err, "failed to load HEAD commit")
	}
	src.head, err = commit.Tree()
	if err != nil {
		return nil, engine.Wrap(err, "failed to load HEAD tree")
	}
	return src, nil
}

func (s *sources) patch(path string, fs *gogit.FileStatus, mode engine.DiffMode) (engine.FilePatch, bool, error) {
	if fs.Staging == gogit.Untracked {
		return engine.FilePatch{}, false, nil
	}

	oldPath := path
	if fs.Staging == gogit.Renamed && fs.Extra != "" && mode != engine.DiffUnstaged {
		oldPath = fs.Extra
	}

	var (
		oldData, newData []byte
		oldOK, newOK     bool
		err              error
	)
	switch mode {
	case engine.DiffStaged:
		if fs.Staging == gogit.Unmodified {
			return engine.FilePatch{}, false, nil
		}
		if oldData, oldOK, err = s.fromHead(oldPath); err != nil {
			return engine.FilePatch{}, false, err
		}
		newData, newOK, err = s.fromIndex(path)
	case engine.DiffUnstaged:
		if fs.Worktree == gogit.Unmodified {
			return engine.FilePatch{}, false, nil
		}
		if oldData, oldOK, err = s.fromIndex(path); err != nil {
			return engine.FilePatch{}, false, err
		}
		newData, newOK, err = s.fromWorktree(path)
	default:
		if oldData, oldOK, err = s.fromHead(oldPath); err != nil {
			return engine.FilePatch{}, false, err
		}
		newData, newOK, err = s.fromWorktree(path)
	}
	if err != nil {
		return engine.FilePatch{}, false, err
	}

	if !oldOK && !newOK {
		return engine.FilePatch{}, false, nil
	}
	if oldOK && newOK && oldPath == path && bytes.Equal(oldData, newData) {
		return engine.FilePatch{}, false, nil
	}

	patch := engine.FilePatch{}
	if oldOK {
		patch.From = oldPath
	}
	if newOK {
		patch.To = path
	}

	if isBinary(oldData) || isBinary(newData) {
		patch.Binary = true
		return patch, true, nil
	}
	patch.Chunks = lineChunks(string(oldData), string(newData))
	return patch, true, nil
}

func (s *sources) fromHead(path string) ([]byte, bool, error) {
	if s.head == nil {
		return nil, false, nil
	}
	f, err := s.head.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, false, nil
		}
		return nil, false, engine.Wrap(err, "failed to read "+path+" from HEAD")
	}
	return s.readBlob(&f.Blob, path)
}

func (s *sources) fromIndex(path string) ([]byte, bool, error) {
	entry, err := s.index.Entry(path)
	if err != nil {
		if errors.Is(err, index.ErrEntryNotFound) {
			return nil, false, nil
		}
		return nil, false, engine.Wrap(err, "failed to read index entry "+path)
	}
	blob, err := s.e.repo.BlobObject(entry.Hash)
	if err != nil {
		return nil, false, engine.Wrap(err, "failed to load blob for "+path)
	}
	return s.readBlob(blob, path)
}

func (s *sources) readBlob(blob *object.Blob, path string) ([]byte, bool, error) {
	r, err := blob.Reader()
	if err != nil {
		return nil, false, engine.Wrap(err, "failed to open blob for "+path)
	}
	defer func() {
		_ = r.Close()
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, engine.Wrap(err, "failed to read blob for "+path)
	}
	return data, true, nil
}

func (s *sources) fromWorktree(path string) ([]byte, bool, error) {
	fi, err := s.e.fs.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, engine.Wrap(err, "failed to stat "+path)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := s.e.fs.Readlink(path)
		if err != nil {
			return nil, false, engine.Wrap(err, "failed to read link "+path)
		}
		return []byte(target), true, nil
	}

	data, err := util.ReadFile(s.e.fs, path)
	if err != nil {
		return nil, false, engine.Wrap(err, "failed to read "+path)
	}
	return data, true, nil
}

func isBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	ok, err := binary.IsBinary(bytes.NewReader(data))
	return err == nil && ok
}

// lineChunks diffs two texts line by line and returns chunks that cover both
// texts completely.
func lineChunks(from, to string) []engine.Chunk {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = diffTimeout
	a, b, lines := dmp.DiffLinesToRunes(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(a, b, false), lines)

	var chunks []engine.Chunk
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		op := fdiff.Equal
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = fdiff.Add
		case diffmatchpatch.DiffDelete:
			op = fdiff.Delete
		}

		if n := len(chunks); n > 0 && chunks[n-1].Op == op {
			chunks[n-1].Content += d.Text
			continue
		}
		chunks = append(chunks, engine.Chunk{Op: op, Content: d.Text})
	}
	return chunks
}
