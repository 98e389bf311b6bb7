package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/maruel/subcommands"

	"github.com/jmgilman/go/nanogit"
)

// baseRun holds the flags shared by every command.
type baseRun struct {
	subcommands.CommandRunBase
	dir     string
	engine  string
	verbose bool
	options []nanogit.Option
}

func (r *baseRun) registerFlags() {
	r.Flags.StringVar(&r.dir, "C", ".", "run as if started in this directory")
	r.Flags.StringVar(&r.engine, "engine", "go-git", "engine answering queries: go-git or git")
	r.Flags.BoolVar(&r.verbose, "v", false, "log cache activity to stderr")
}

// open opens the repository selected by the flags.
func (r *baseRun) open(a subcommands.Application) (*nanogit.Repository, error) {
	level := slog.LevelWarn
	if r.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(a.GetErr(), &slog.HandlerOptions{Level: level}))

	opts := append([]nanogit.Option{nanogit.WithLogger(logger)}, r.options...)
	switch r.engine {
	case "go-git":
	case "git":
		opts = append(opts, nanogit.WithGitCLI())
	default:
		return nil, platformerrors.WithContext(
			platformerrors.New(platformerrors.CodeInvalidInput, "unknown engine"),
			"engine", r.engine,
		)
	}
	return nanogit.Open(r.dir, opts...)
}

// run opens the repository, calls fn with a context canceled on interrupt
// and turns the outcome into an exit code.
func (r *baseRun) run(a subcommands.Application, fn func(ctx context.Context, repo *nanogit.Repository) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	repo, err := r.open(a)
	if err != nil {
		return r.done(a, err)
	}
	defer func() { _ = repo.Close() }()

	return r.done(a, fn(ctx, repo))
}

func (r *baseRun) done(a subcommands.Application, err error) int {
	if err != nil {
		fmt.Fprintf(a.GetErr(), "%s: %s\n", a.GetName(), err)
		return 1
	}
	return 0
}

// usageError reports a command line mistake.
func usageError(format string, args ...any) error {
	return platformerrors.New(platformerrors.CodeInvalidInput, fmt.Sprintf(format, args...))
}
