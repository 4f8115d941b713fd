// Command poolhistory subscribes to the pending transaction feed of an
// Ethereum node and records, for every transaction, how long after start it
// was first seen.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gabapcia/poolhistory/internal/config"
	"github.com/gabapcia/poolhistory/internal/handlers/cli"
	"github.com/gabapcia/poolhistory/internal/pkg/logger"
	"github.com/gabapcia/poolhistory/internal/pkg/telemetry"
)

func main() {
	os.Exit(run(context.Background(), os.Stderr))
}

// run returns the process exit code. Deferred cleanups, telemetry flushing
// included, have completed by the time it returns.
func run(ctx context.Context, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "load configuration:", err)
		return 1
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			fmt.Fprintln(stderr, "start telemetry:", err)
			return 1
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				fmt.Fprintln(stderr, "shutdown telemetry:", err)
			}
		}()
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		fmt.Fprintln(stderr, "start logger:", err)
		return 1
	}
	defer logger.Sync()

	if err := cli.Run(ctx, newLauncher(cfg)); err != nil {
		logger.Error(ctx, "poolhistory stopped", "error", err)
		return 1
	}

	return 0
}
