package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// testConnectionTimeout bounds the node reachability probe.
const testConnectionTimeout = 10 * time.Second

// statusCommand returns a CLI command that probes the chain node and the
// coordination backend and reports both states, without disturbing any
// long-lived connection a running synchronizer might hold.
//
// Usage example:
//
//	claddash status --endpoint ws://127.0.0.1:9944
func statusCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:        "status",
		Description: "Probes the chain node and the coordination backend and reports reachability.",
		Usage:       "Checks both remote systems. Exits zero even when a probe fails; failures are printed.",
		Flags: []cli.Flag{
			endpointFlag(deps.Endpoint),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := deps.Nodes.TestConnection(ctx, c.String("endpoint"), testConnectionTimeout); err != nil {
				fmt.Printf("node:     unreachable (%v)\n", err)
			} else {
				fmt.Printf("node:     reachable\n")
			}

			if err := deps.Backend.CheckHealth(ctx); err != nil {
				fmt.Printf("backend:  %s (%v)\n", deps.Backend.StateCell().Current().State, err)
			} else {
				fmt.Printf("backend:  %s\n", deps.Backend.StateCell().Current().State)
			}
			return nil
		},
	}
}
