// Package gitcli implements engine.Engine by running the git binary.
//
// Every query runs one or more git commands in the worktree through the
// github.com/jmgilman/go/exec wrapper and parses their machine-readable
// output. Commands run with GIT_OPTIONAL_LOCKS=0 so that read queries never
// rewrite the index, and with LC_ALL=C so that error output can be matched.
//
// Fingerprint signals are read straight from the .git directory without
// spawning a process.
//
// Example:
//
//	e, err := gitcli.Open("/path/to/worktree")
//	if err != nil {
//	    return err
//	}
//	status, err := e.ReadStatus(ctx)
package gitcli
