package gitcli

import (
	"context"
	"strings"
)

// ApplyStage runs git add -A, which also records deletions.
func (e *Engine) ApplyStage(ctx context.Context, paths []string) error {
	args := append([]string{"add", "-A", "--"}, pathspecs(paths)...)
	if _, err := e.run(ctx, args...); err != nil {
		return mapExecError(err, "failed to stage paths")
	}
	return nil
}

// ApplyUnstage runs git reset for paths. While HEAD is unborn there is
// nothing to reset to, so the paths are removed from the index instead.
func (e *Engine) ApplyUnstage(ctx context.Context, paths []string) error {
	head, err := e.Head(ctx)
	if err != nil {
		return err
	}

	args := []string{"reset", "-q", "HEAD", "--"}
	if head.Unborn {
		args = []string{"rm", "--cached", "-r", "-q", "--ignore-unmatch", "--"}
	}
	args = append(args, pathspecs(paths)...)

	if _, err := e.run(ctx, args...); err != nil {
		return mapExecError(err, "failed to unstage paths")
	}
	return nil
}

// pathspecs converts worktree-relative paths to literal pathspecs. The
// repository root becomes ".".
func pathspecs(paths []string) []string {
	specs := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.Trim(p, "/")
		if p == "" || p == "." {
			specs = append(specs, ".")
			continue
		}
		specs = append(specs, ":(literal)"+p)
	}
	return specs
}
