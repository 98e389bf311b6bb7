package gogit

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jmgilman/go/nanogit/engine"
)

const indexLock = "index.lock"

// acquireIndexLock takes git's index lock so the engine never writes the
// index while another git process does. It fails with KindLocked when the
// lock is already held.
func (e *Engine) acquireIndexLock() (func(), error) {
	f, err := e.dotgit.OpenFile(indexLock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, engine.NewError(engine.KindLocked, err, "index is locked by another process")
		}
		return nil, engine.NewError(engine.KindIO, err, "failed to create index lock")
	}
	_ = f.Close()

	return func() {
		_ = e.dotgit.Remove(indexLock)
	}, nil
}

// ApplyStage adds each path to the index. Directories are added recursively
// and deleted files are removed from the index.
func (e *Engine) ApplyStage(ctx context.Context, paths []string) error {
	unlock, err := e.lockWrite(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	release, err := e.acquireIndexLock()
	if err != nil {
		return err
	}
	defer release()

	wt, err := e.worktree()
	if err != nil {
		return err
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := cleanPath(p)
		if target == "" {
			target = "."
		}
		if _, err := wt.Add(target); err != nil {
			return engine.Wrap(err, "failed to stage "+p)
		}
	}
	return nil
}

// ApplyUnstage resets the index entries of paths to their HEAD state. Paths
// absent from HEAD are removed from the index and become untracked again.
func (e *Engine) ApplyUnstage(ctx context.Context, paths []string) error {
	unlock, err := e.lockWrite(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	release, err := e.acquireIndexLock()
	if err != nil {
		return err
	}
	defer release()

	src, err := e.sources()
	if err != nil {
		return err
	}
	idx := src.index

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		p = cleanPath(p)

		headFiles, err := headFilesUnder(src.head, p)
		if err != nil {
			return err
		}

		for _, name := range indexNamesUnder(idx, p) {
			if _, inHead := headFiles[name]; !inHead {
				if _, err := idx.Remove(name); err != nil {
					return engine.Wrap(err, "failed to unstage "+name)
				}
			}
		}
		for name, f := range headFiles {
			resetEntry(idx, name, f)
		}
	}

	if err := e.repo.Storer.SetIndex(idx); err != nil {
		return engine.Wrap(err, "failed to write index")
	}
	return nil
}

func resetEntry(idx *index.Index, name string, f *object.File) {
	entry, err := idx.Entry(name)
	if err != nil {
		entry = idx.Add(name)
	}
	if entry.Hash == f.Hash && entry.Mode == f.Mode {
		return
	}
	*entry = index.Entry{
		Name: name,
		Hash: f.Hash,
		Mode: f.Mode,
		Size: uint32(f.Size),
	}
}

// headFilesUnder returns the HEAD files at p or below it.
func headFilesUnder(tree *object.Tree, p string) (map[string]*object.File, error) {
	files := make(map[string]*object.File)
	if tree == nil {
		return files, nil
	}

	if p == "" {
		err := tree.Files().ForEach(func(f *object.File) error {
			files[f.Name] = f
			return nil
		})
		if err != nil {
			return nil, engine.Wrap(err, "failed to list HEAD files")
		}
		return files, nil
	}

	entry, err := tree.FindEntry(p)
	if err != nil {
		if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return files, nil
		}
		return nil, engine.Wrap(err, "failed to look up "+p+" in HEAD")
	}

	if entry.Mode != filemode.Dir {
		f, err := tree.TreeEntryFile(entry)
		if err != nil {
			return nil, engine.Wrap(err, "failed to load "+p+" from HEAD")
		}
		files[p] = f
		return files, nil
	}

	sub, err := tree.Tree(p)
	if err != nil {
		return nil, engine.Wrap(err, "failed to load directory "+p+" from HEAD")
	}
	err = sub.Files().ForEach(func(f *object.File) error {
		files[path.Join(p, f.Name)] = f
		return nil
	})
	if err != nil {
		return nil, engine.Wrap(err, "failed to list "+p+" in HEAD")
	}
	return files, nil
}

func indexNamesUnder(idx *index.Index, p string) []string {
	var names []string
	for _, e := range idx.Entries {
		if p == "" || e.Name == p || strings.HasPrefix(e.Name, p+"/") {
			names = append(names, e.Name)
		}
	}
	return names
}

// cleanPath normalizes a worktree-relative path. The repository root is "".
func cleanPath(p string) string {
	p = path.Clean(strings.TrimPrefix(p, "/"))
	if p == "." {
		return ""
	}
	return p
}
