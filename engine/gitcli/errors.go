package gitcli

import (
	"errors"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/exec"

	"github.com/jmgilman/go/nanogit/engine"
)

// outputPattern maps a fragment of git's error output to a failure.
type outputPattern struct {
	fragments []string
	kind      engine.Kind
	code      platformerrors.ErrorCode
}

// patterns are checked in order; the first match wins. A pattern with a
// kind produces an engine error, otherwise a plain platform error with code.
var patterns = []outputPattern{
	{fragments: []string{"not a git repository"}, kind: engine.KindNotARepository},
	{fragments: []string{"index.lock", "Unable to create", "File exists"}, kind: engine.KindLocked},
	{fragments: []string{"corrupt", "bad object", "bad file", "Not a valid object name", "loose object", "index file smaller than expected", "bad signature", "bad index file"}, kind: engine.KindCorrupted},
	{fragments: []string{"Permission denied", "permission denied"}, kind: engine.KindIO},
	{fragments: []string{"nothing to commit", "nothing added to commit", "no changes added to commit"}, code: platformerrors.CodeConflict},
	{fragments: []string{"Please tell me who you are", "empty ident name", "unable to auto-detect email address"}, code: platformerrors.CodeInvalidInput},
	{fragments: []string{"did not match any file", "bad revision", "unknown revision", "ambiguous argument", "Needed a single revision", "invalid reference"}, code: platformerrors.CodeNotFound},
}

// mapExecError converts a failed git invocation to a platform error by
// matching its output against known git messages. Errors that are not
// *exec.ExecError are returned unchanged.
func mapExecError(err error, message string) error {
	var execErr *exec.ExecError
	if !errors.As(err, &execErr) {
		return err
	}

	output := execErr.Stderr + "\n" + execErr.Stdout
	for _, p := range patterns {
		if !containsAny(output, p.fragments) {
			continue
		}
		if p.kind != "" {
			return withOutput(engine.NewError(p.kind, err, message), execErr)
		}
		return withOutput(platformerrors.Wrap(err, p.code, message), execErr)
	}

	return withOutput(platformerrors.Wrap(err, platformerrors.CodeExecutionFailed, message), execErr)
}

func withOutput(err error, execErr *exec.ExecError) error {
	var pe platformerrors.PlatformError
	if !errors.As(err, &pe) {
		return err
	}
	stderr := strings.TrimSpace(execErr.Stderr)
	if stderr == "" {
		stderr = strings.TrimSpace(execErr.Stdout)
	}
	return platformerrors.WithContextMap(pe, map[string]interface{}{
		"stderr":    stderr,
		"exit_code": execErr.ExitCode,
	})
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
