package main

import (
	"context"
	"fmt"

	"github.com/maruel/subcommands"

	"github.com/jmgilman/go/nanogit"
)

var cmdStage = &subcommands.Command{
	UsageLine: "stage path...",
	ShortDesc: "adds the worktree state of paths to the index",
	CommandRun: func() subcommands.CommandRun {
		r := &indexRun{stage: true}
		r.registerFlags()
		return r
	},
}

var cmdUnstage = &subcommands.Command{
	UsageLine: "unstage path...",
	ShortDesc: "resets the index entries of paths to HEAD",
	CommandRun: func() subcommands.CommandRun {
		r := &indexRun{}
		r.registerFlags()
		return r
	},
}

type indexRun struct {
	baseRun
	stage bool
}

func (r *indexRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) == 0 {
		return r.done(a, usageError("at least one path is required"))
	}
	return r.run(a, func(ctx context.Context, repo *nanogit.Repository) error {
		if r.stage {
			return repo.Stage(ctx, args)
		}
		return repo.Unstage(ctx, args)
	})
}

var cmdCommit = &subcommands.Command{
	UsageLine: "commit -m message",
	ShortDesc: "records the index as a new commit",
	CommandRun: func() subcommands.CommandRun {
		r := &commitRun{}
		r.registerFlags()
		r.Flags.StringVar(&r.message, "m", "", "commit message")
		r.Flags.StringVar(&r.author, "author", "", "author name, defaults to user.name")
		r.Flags.StringVar(&r.email, "email", "", "author email, defaults to user.email")
		return r
	},
}

type commitRun struct {
	baseRun
	message string
	author  string
	email   string
}

func (r *commitRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 0 {
		return r.done(a, usageError("unexpected arguments: %q", args))
	}
	if r.message == "" {
		return r.done(a, usageError("-m is required"))
	}
	if r.author != "" || r.email != "" {
		r.options = append(r.options, nanogit.WithSignature(r.author, r.email))
	}

	return r.run(a, func(ctx context.Context, repo *nanogit.Repository) error {
		hash, err := repo.Commit(ctx, r.message)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.GetOut(), hash)
		return nil
	})
}
