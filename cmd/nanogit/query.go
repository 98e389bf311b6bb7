package main

import (
	"context"
	"fmt"
	"io"

	"github.com/maruel/subcommands"

	"github.com/jmgilman/go/nanogit"
)

var cmdStatus = &subcommands.Command{
	UsageLine: "status",
	ShortDesc: "shows staged, unstaged, untracked and conflicted files",
	CommandRun: func() subcommands.CommandRun {
		r := &statusRun{}
		r.registerFlags()
		return r
	},
}

type statusRun struct {
	baseRun
}

func (r *statusRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 0 {
		return r.done(a, usageError("unexpected arguments: %q", args))
	}
	return r.run(a, func(ctx context.Context, repo *nanogit.Repository) error {
		status, err := repo.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(a.GetOut(), status)
		return nil
	})
}

func printStatus(w io.Writer, s nanogit.Status) {
	if s.Clean() {
		fmt.Fprintln(w, "nothing to commit, working tree clean")
		return
	}
	printChanges(w, "Staged", s.Staged)
	printChanges(w, "Unstaged", s.Unstaged)
	printPaths(w, "Untracked", s.Untracked)
	printPaths(w, "Conflicted", s.Conflicted)
}

func printChanges(w io.Writer, title string, changes []nanogit.FileChange) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, c := range changes {
		if c.OldPath != "" {
			fmt.Fprintf(w, "  %-12s %s -> %s\n", c.Kind, c.OldPath, c.Path)
			continue
		}
		fmt.Fprintf(w, "  %-12s %s\n", c.Kind, c.Path)
	}
}

func printPaths(w io.Writer, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

var cmdDiff = &subcommands.Command{
	UsageLine: "diff [-staged|-unstaged] [path...]",
	ShortDesc: "prints changes as a unified diff",
	LongDesc:  "Prints the changes between HEAD and the worktree. -staged compares HEAD with the index and -unstaged compares the index with the worktree.",
	CommandRun: func() subcommands.CommandRun {
		r := &diffRun{}
		r.registerFlags()
		r.Flags.BoolVar(&r.staged, "staged", false, "compare HEAD with the index")
		r.Flags.BoolVar(&r.unstaged, "unstaged", false, "compare the index with the worktree")
		return r
	},
}

type diffRun struct {
	baseRun
	staged   bool
	unstaged bool
}

func (r *diffRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	scope := nanogit.DiffScope{Paths: args}
	switch {
	case r.staged && r.unstaged:
		return r.done(a, usageError("-staged and -unstaged are mutually exclusive"))
	case r.staged:
		scope.Mode = nanogit.DiffStaged
	case r.unstaged:
		scope.Mode = nanogit.DiffUnstaged
	}

	return r.run(a, func(ctx context.Context, repo *nanogit.Repository) error {
		entries, err := repo.Diff(ctx, scope)
		if err != nil {
			return err
		}
		_, err = io.WriteString(a.GetOut(), nanogit.Unified(entries))
		return err
	})
}

var cmdBranches = &subcommands.Command{
	UsageLine: "branches",
	ShortDesc: "lists local and remote-tracking branches",
	CommandRun: func() subcommands.CommandRun {
		r := &branchesRun{}
		r.registerFlags()
		return r
	},
}

type branchesRun struct {
	baseRun
}

func (r *branchesRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 0 {
		return r.done(a, usageError("unexpected arguments: %q", args))
	}
	return r.run(a, func(ctx context.Context, repo *nanogit.Repository) error {
		branches, err := repo.Branches(ctx)
		if err != nil {
			return err
		}
		for _, b := range branches {
			marker := " "
			if b.IsCurrent {
				marker = "*"
			}
			fmt.Fprintf(a.GetOut(), "%s %s %s\n", marker, b.Hash.String()[:7], b.Name)
		}
		return nil
	})
}

var cmdLog = &subcommands.Command{
	UsageLine: "log [-n count] [-from rev] [rev]",
	ShortDesc: "lists commits, newest first",
	LongDesc:  "Lists the commits reachable from rev (HEAD by default) and not from -from.",
	CommandRun: func() subcommands.CommandRun {
		r := &logRun{}
		r.registerFlags()
		r.Flags.IntVar(&r.limit, "n", 0, "maximum number of commits, 0 for all")
		r.Flags.StringVar(&r.from, "from", "", "exclude commits reachable from this revision")
		r.Flags.BoolVar(&r.long, "long", false, "print full hashes, authors and messages")
		return r
	},
}

type logRun struct {
	baseRun
	limit int
	from  string
	long  bool
}

func (r *logRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) > 1 {
		return r.done(a, usageError("at most one revision expected, got %q", args))
	}
	if r.limit < 0 {
		return r.done(a, usageError("-n must not be negative"))
	}

	rng := nanogit.LogRange{From: r.from, Limit: r.limit}
	if len(args) == 1 {
		rng.To = args[0]
	}

	return r.run(a, func(ctx context.Context, repo *nanogit.Repository) error {
		commits, err := repo.Log(ctx, rng)
		if err != nil {
			return err
		}
		w := a.GetOut()
		for _, c := range commits {
			if !r.long {
				fmt.Fprintf(w, "%s %s\n", c.Hash[:7], c.Summary())
				continue
			}
			fmt.Fprintf(w, "commit %s\n", c.Hash)
			fmt.Fprintf(w, "Author: %s <%s>\n", c.Author, c.Email)
			fmt.Fprintf(w, "Date:   %s\n\n", c.Timestamp.Format("Mon Jan 2 15:04:05 2006 -0700"))
			fmt.Fprintf(w, "    %s\n\n", c.Message)
		}
		return nil
	})
}
