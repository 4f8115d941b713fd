// Package cli exposes the poolhistory command line interface.
package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
)

// Run builds the poolhistory command tree and executes it with the process
// arguments. The start command hands its parsed options to l.
func Run(ctx context.Context, l Launcher) error {
	return newApp(l).Run(ctx, os.Args)
}

func newApp(l Launcher) *cli.Command {
	return &cli.Command{
		EnableShellCompletion: true,
		Name:                  "poolhistory",
		Description:           "Gathers mempool transactions from a node and records when each transaction was first seen.",
		Usage:                 "poolhistory [command] [flags]",
		Commands: []*cli.Command{
			startCommand(l),
		},
	}
}
