// Package cli wires the dashboard services into a command-line surface.
package cli

import (
	"context"
	"os"

	"github.com/clad-sovereign/clad-dashboard/internal/backend"
	"github.com/clad-sovereign/clad-dashboard/internal/eventsync"
	"github.com/clad-sovereign/clad-dashboard/internal/infra/node/substrate"
	"github.com/clad-sovereign/clad-dashboard/internal/multisig"
	"github.com/clad-sovereign/clad-dashboard/internal/nodeconn"

	"github.com/urfave/cli/v3"
)

// Deps carries the fully wired services the commands operate on.
type Deps struct {
	Nodes     nodeconn.Service
	Sync      eventsync.Service
	Approvals multisig.Service
	Backend   backend.Store
	Source    *substrate.LiveSource

	// Endpoint is the default node endpoint, from configuration or the
	// stored preference.
	Endpoint string
}

// Run initializes and executes the claddash CLI application.
//
// It registers all available commands, including:
//
//   - `sync`: Runs the event synchronizer against a node until interrupted.
//   - `approvals`: Lists the pending multisig approvals.
//   - `decode`: Decodes a SCALE call payload offline.
//   - `lookup`: Reads an account's token and native balances.
//   - `status`: Probes the node and backend connections.
func Run(ctx context.Context, deps Deps) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "claddash",
		Description:           "Command-line interface for the CLAD token monitoring dashboard.",
		Usage:                 "claddash [command] [flags]",
		Commands: []*cli.Command{
			syncCommand(deps),
			approvalsCommand(deps),
			decodeCommand(),
			lookupCommand(deps),
			statusCommand(deps),
		},
	}

	return app.Run(ctx, os.Args)
}

// endpointFlag is shared by every command that talks to a node.
func endpointFlag(defaultEndpoint string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "endpoint",
		Usage: "WebSocket RPC endpoint of the chain node (e.g., ws://127.0.0.1:9944)",
		Value: defaultEndpoint,
	}
}
