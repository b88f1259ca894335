package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"

	"github.com/urfave/cli/v3"
)

// decodeCommand returns a CLI command that decodes a SCALE call payload
// against the built-in runtime layout, without contacting a node.
//
// Usage example:
//
//	claddash decode --payload 0x0a00d43593c7...
func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:        "decode",
		Description: "Decodes a hex-encoded call payload and prints its summary and hash.",
		Usage:       "Decodes a call payload offline using the known runtime layout.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "payload",
				Usage:    "Hex-encoded SCALE call payload (0x prefix optional)",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			raw, err := hex.DecodeString(strings.TrimPrefix(c.String("payload"), "0x"))
			if err != nil {
				return fmt.Errorf("invalid payload hex: %w", err)
			}

			profile := callcodec.DefaultProfile()
			decoded := callcodec.Decode(profile, raw)

			fmt.Printf("summary:  %s\n", decoded.Summary)
			fmt.Printf("hash:     %s\n", callcodec.CallHash(raw))
			if decoded.Success {
				fmt.Printf("call:     %s.%s\n", decoded.Pallet, decoded.Call)
			} else {
				fmt.Printf("error:    %s\n", decoded.ErrorDetail)
			}
			return nil
		},
	}
}
