// Command nanogit prints a simplified view of a git repository and stages
// and commits changes through the cached repository layer.
//
//	nanogit status
//	nanogit diff -staged src/
//	nanogit log -n 10
//	nanogit stage README.md && nanogit commit -m "Update README"
package main

import (
	"os"

	"github.com/maruel/subcommands"
)

var application = &subcommands.DefaultApplication{
	Name:  "nanogit",
	Title: "Simplified, cached view of a git repository.",
	// Keep in alphabetical order of their name.
	Commands: []*subcommands.Command{
		cmdBranches,
		cmdCommit,
		cmdDiff,
		subcommands.CmdHelp,
		cmdLog,
		cmdStage,
		cmdStatus,
		cmdUnstage,
	},
}

func main() {
	os.Exit(subcommands.Run(application, nil))
}
