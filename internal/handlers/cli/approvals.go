package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
	"github.com/clad-sovereign/clad-dashboard/internal/multisig"

	"github.com/urfave/cli/v3"
)

// approvalsCommand returns a CLI command that lists the multisig calls still
// awaiting signatures, newest proposal first.
//
// Usage example:
//
//	claddash approvals --endpoint ws://127.0.0.1:9944 --account 5F3sa2...
func approvalsCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:        "approvals",
		Description: "Lists pending multisig approvals read from chain storage.",
		Usage:       "Fetches the outstanding multisig calls, optionally filtered to one multisig account.",
		Flags: []cli.Flag{
			endpointFlag(deps.Endpoint),
			&cli.StringFlag{
				Name:  "account",
				Usage: "Multisig account address to filter by",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if _, err := deps.Nodes.Connect(ctx, c.String("endpoint")); err != nil {
				return err
			}
			defer deps.Nodes.Disconnect()

			approvals, err := deps.Approvals.FetchPendingApprovals(ctx, c.String("account"))
			if errors.Is(err, multisig.ErrMultisigUnsupported) {
				fmt.Println("the connected chain has no multisig pallet")
				return nil
			}
			if err != nil {
				return err
			}

			if len(approvals) == 0 {
				fmt.Println("no pending approvals")
				return nil
			}

			for _, a := range approvals {
				printApproval(a)
			}
			return nil
		},
	}
}

func printApproval(a multisig.PendingApproval) {
	fmt.Printf("%s\n", a.Operation.Summary)
	fmt.Printf("  multisig:   %s\n", callcodec.TruncateAddress(a.MultisigAccount))
	fmt.Printf("  call hash:  %s\n", a.CallHash)
	fmt.Printf("  approvals:  %d/%d\n", len(a.Approvals), a.Threshold)
	fmt.Printf("  proposed:   block %d", a.ProposedAt.Height)
	if a.ProposedTime != nil {
		fmt.Printf(" (%s)", a.ProposedTime.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Println()
}
