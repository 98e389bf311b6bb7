package gitcli

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/nanogit/engine"
)

// ReadLog lists commit ids with git rev-list, newest first. An unborn HEAD
// has an empty history.
func (e *Engine) ReadLog(ctx context.Context, rng engine.LogRange) ([]plumbing.Hash, error) {
	target := rng.Target()
	if target == "HEAD" {
		head, err := e.Head(ctx)
		if err != nil {
			return nil, err
		}
		if head.Unborn {
			return nil, nil
		}
	}

	args := []string{"rev-list"}
	if rng.Limit > 0 {
		args = append(args, "--max-count="+strconv.Itoa(rng.Limit))
	}
	args = append(args, "--end-of-options", target)
	if rng.From != "" {
		args = append(args, "^"+rng.From)
	}
	args = append(args, "--")

	result, err := e.run(ctx, args...)
	if err != nil {
		return nil, mapExecError(err, "failed to walk history")
	}

	var hashes []plumbing.Hash
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		hashes = append(hashes, plumbing.NewHash(line))
	}
	return hashes, nil
}

// ReadCommit reads the raw commit object with git cat-file and decodes it.
func (e *Engine) ReadCommit(ctx context.Context, hash plumbing.Hash) (*object.Commit, error) {
	result, err := e.run(ctx, "cat-file", "commit", hash.String())
	if err != nil {
		return nil, mapExecError(err, "failed to load commit "+hash.String())
	}
	return decodeCommit(hash, result.Stdout)
}

// decodeCommit parses a raw commit object body. The decoded hash must match
// the requested one.
func decodeCommit(hash plumbing.Hash, raw string) (*object.Commit, error) {
	obj := &plumbing.MemoryObject{}
	obj.SetType(plumbing.CommitObject)
	if _, err := obj.Write([]byte(raw)); err != nil {
		return nil, engine.NewError(engine.KindCorrupted, err, "failed to buffer commit "+hash.String())
	}

	c := &object.Commit{}
	if err := c.Decode(obj); err != nil {
		return nil, engine.NewError(engine.KindCorrupted, err, "failed to decode commit "+hash.String())
	}
	if c.Hash != hash {
		return nil, platformerrors.WithContext(
			engine.NewError(engine.KindCorrupted, nil, "commit content does not match its id"),
			"commit", hash.String(),
		)
	}
	return c, nil
}
