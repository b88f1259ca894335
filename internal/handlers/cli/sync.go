package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// syncCommand returns a CLI command that connects to a node and runs the
// event synchronizer until the process is interrupted.
//
// Usage example:
//
//	claddash sync --endpoint ws://127.0.0.1:9944
//
// The process runs indefinitely until it receives an interrupt (SIGINT or
// SIGTERM).
func syncCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:        "sync",
		Description: "Connects to the chain node and keeps the local event log synchronized.",
		Usage:       "Runs the event synchronizer. Terminates gracefully on Ctrl+C or termination signals.",
		Flags: []cli.Flag{
			endpointFlag(deps.Endpoint),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			if err := deps.Sync.Start(ctx); err != nil {
				return err
			}
			defer deps.Sync.Close()

			if _, err := deps.Nodes.Connect(ctx, c.String("endpoint")); err != nil {
				return err
			}
			defer deps.Nodes.Disconnect()

			<-quit
			return nil
		},
	}
}
