package gitcli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/exec"

	"github.com/jmgilman/go/nanogit/engine"
)

const refFormat = "--format=%(refname)%00%(objectname)%00%(symref)"

// ListRefs lists every reference with git for-each-ref and adds HEAD.
func (e *Engine) ListRefs(ctx context.Context) ([]*plumbing.Reference, error) {
	result, err := e.run(ctx, "for-each-ref", refFormat)
	if err != nil {
		return nil, mapExecError(err, "failed to list references")
	}
	refs, err := parseRefs(result.Stdout)
	if err != nil {
		return nil, err
	}

	head, err := e.Head(ctx)
	if err != nil {
		return nil, err
	}
	if head.Detached {
		refs = append(refs, plumbing.NewHashReference(plumbing.HEAD, head.Hash))
	} else {
		refs = append(refs, plumbing.NewSymbolicReference(plumbing.HEAD, head.Branch))
	}
	return refs, nil
}

// parseRefs decodes one "name\0hash\0symref" record per line.
func parseRefs(out string) ([]*plumbing.Reference, error) {
	var refs []*plumbing.Reference
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\x00")
		if len(fields) != 3 {
			return nil, platformerrors.New(platformerrors.CodeInternal, "malformed reference record "+strconv.Quote(line))
		}

		name := plumbing.ReferenceName(fields[0])
		if fields[2] != "" {
			refs = append(refs, plumbing.NewSymbolicReference(name, plumbing.ReferenceName(fields[2])))
			continue
		}
		refs = append(refs, plumbing.NewHashReference(name, plumbing.NewHash(fields[1])))
	}
	return refs, nil
}

// Head describes HEAD using git symbolic-ref and git rev-parse.
func (e *Engine) Head(ctx context.Context) (engine.HeadInfo, error) {
	var info engine.HeadInfo

	result, err := e.run(ctx, "symbolic-ref", "-q", "HEAD")
	switch {
	case err == nil:
		info.Branch = plumbing.ReferenceName(strings.TrimSpace(result.Stdout))
	case exitCode(err) == 1:
		// HEAD holds a commit id.
		info.Detached = true
	default:
		return engine.HeadInfo{}, mapExecError(err, "failed to read HEAD")
	}

	result, err = e.run(ctx, "rev-parse", "-q", "--verify", "HEAD^{commit}")
	switch {
	case err == nil:
		info.Hash = plumbing.NewHash(strings.TrimSpace(result.Stdout))
	case exitCode(err) == 1 && !info.Detached:
		info.Unborn = true
	default:
		return engine.HeadInfo{}, mapExecError(err, "failed to resolve HEAD")
	}
	return info, nil
}

// exitCode returns the exit status of a failed git command, or -1.
func exitCode(err error) int {
	var execErr *exec.ExecError
	if errors.As(err, &execErr) {
		return execErr.ExitCode
	}
	return -1
}
