package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabapcia/poolhistory/internal/mempool"
	"github.com/gabapcia/poolhistory/internal/pkg/validator"

	"github.com/urfave/cli/v3"
)

const (
	rpcURLFlag        = "rpc-url"
	lookupURLFlag     = "lookup-url"
	showOldTxsFlag    = "show-old-txs"
	queueCapacityFlag = "queue-capacity"
)

// RunOptions are the arguments of the start command.
type RunOptions struct {
	RPCURL        string `validate:"required,wsurl"`    // websocket endpoint used for the subscription
	LookupURL     string `validate:"omitempty,nodeurl"` // optional HTTP endpoint used for lookups
	ShowOldTxs    bool   // also surface transactions already included in a block
	QueueCapacity int    `validate:"gt=0"`
}

// Launcher runs the pipeline for the parsed options until ctx is done.
type Launcher interface {
	Launch(ctx context.Context, opts RunOptions) error
}

func writeBanner(w io.Writer, opts RunOptions) {
	fmt.Fprintln(w, "Thanks for using poolhistory, the mempool arrival recorder!")
	fmt.Fprintf(w, "Watching pending transactions on %s\n", opts.RPCURL)
}

// startCommand returns the command that runs the pipeline.
//
// Usage example:
//
//	poolhistory start --rpc-url wss://localhost:8546 --show-old-txs
//
// The process runs until the subscription ends, a fatal error occurs or it
// receives SIGINT or SIGTERM.
func startCommand(l Launcher) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Subscribes to pending transactions and records when each one was first seen.",
		Usage:       "Runs the mempool pipeline. Terminates gracefully on Ctrl+C or termination signals.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     rpcURLFlag,
				Aliases:  []string{"r"},
				Usage:    "The websocket provider URL (e.g. wss://localhost:8546)",
				Sources:  cli.EnvVars("ETH_RPC_URL"),
				Required: true,
			},
			&cli.StringFlag{
				Name:  lookupURLFlag,
				Usage: "HTTP provider URL used for transaction lookups. Defaults to the websocket connection",
			},
			&cli.BoolFlag{
				Name:    showOldTxsFlag,
				Aliases: []string{"s"},
				Usage:   "Whether or not to print transactions that have already been included in a block",
			},
			&cli.IntFlag{
				Name:  queueCapacityFlag,
				Usage: "Capacity of the queue between hash capture and resolution",
				Value: mempool.DefaultQueueCapacity,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			opts := RunOptions{
				RPCURL:        c.String(rpcURLFlag),
				LookupURL:     c.String(lookupURLFlag),
				ShowOldTxs:    c.Bool(showOldTxsFlag),
				QueueCapacity: c.Int(queueCapacityFlag),
			}

			if err := validator.Validate(opts); err != nil {
				return err
			}

			w := c.Root().Writer
			if w == nil {
				w = os.Stdout
			}
			writeBanner(w, opts)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return l.Launch(ctx, opts)
		},
	}
}
