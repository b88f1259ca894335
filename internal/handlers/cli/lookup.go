package cli

import (
	"context"
	"fmt"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"

	"github.com/urfave/cli/v3"
)

// lookupCommand returns a CLI command that reads an account's ledger-token
// and native balances from the connected node.
//
// Usage example:
//
//	claddash lookup --endpoint ws://127.0.0.1:9944 --address 5GrwvaEF...
func lookupCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:        "lookup",
		Description: "Reads an account's token and native balances at the latest block.",
		Usage:       "Looks up the balances of one account address.",
		Flags: []cli.Flag{
			endpointFlag(deps.Endpoint),
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Account address to look up",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if _, err := deps.Nodes.Connect(ctx, c.String("endpoint")); err != nil {
				return err
			}
			defer deps.Nodes.Disconnect()

			address := c.String("address")

			token, err := deps.Source.TokenBalance(ctx, address)
			if err != nil {
				return err
			}
			native, err := deps.Source.NativeBalance(ctx, address)
			if err != nil {
				return err
			}

			profile := deps.Source.Profile()
			if profile == nil {
				profile = callcodec.DefaultProfile()
			}

			fmt.Printf("%s  %s %s\n", callcodec.TruncateAddress(address),
				callcodec.FormatAmount(token, profile.TokenDecimals), profile.TokenSymbol)
			fmt.Printf("%s  %s %s\n", callcodec.TruncateAddress(address),
				callcodec.FormatAmount(native, profile.NativeDecimals), profile.NativeSymbol)
			return nil
		},
	}
}
