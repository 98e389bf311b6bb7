package gitcli

import (
	"context"
	"strconv"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	platformerrors "github.com/jmgilman/go/errors"
)

// ReadStatus runs git status in porcelain v1 form. Untracked files are
// listed individually and ignored files are omitted.
func (e *Engine) ReadStatus(ctx context.Context) (gogit.Status, error) {
	result, err := e.run(ctx,
		"-c", "core.quotePath=false",
		"status", "--porcelain=v1", "-z", "--untracked-files=all",
	)
	if err != nil {
		return nil, mapExecError(err, "failed to read status")
	}
	return parseStatus(result.Stdout)
}

// parseStatus decodes NUL-separated porcelain v1 records. Each record is
// "XY PATH"; renames and copies are followed by a second field holding the
// original path.
func parseStatus(out string) (gogit.Status, error) {
	status := make(gogit.Status)
	fields := strings.Split(out, "\x00")

	for i := 0; i < len(fields); i++ {
		record := fields[i]
		if record == "" {
			continue
		}
		if len(record) < 4 || record[2] != ' ' {
			return nil, platformerrors.New(platformerrors.CodeInternal, "malformed status record "+strconv.Quote(record))
		}

		fs := &gogit.FileStatus{
			Staging:  gogit.StatusCode(record[0]),
			Worktree: gogit.StatusCode(record[1]),
		}
		path := record[3:]

		if fs.Staging == gogit.Renamed || fs.Staging == gogit.Copied ||
			fs.Worktree == gogit.Renamed || fs.Worktree == gogit.Copied {
			i++
			if i >= len(fields) || fields[i] == "" {
				return nil, platformerrors.New(platformerrors.CodeInternal, "status record for "+path+" is missing its original path")
			}
			fs.Extra = fields[i]
		}
		status[path] = fs
	}
	return status, nil
}
