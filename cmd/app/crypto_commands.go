package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/keepsakevault/keepsake/cmd/app/commands"
)

func getCryptoCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-signing-seed",
			Usage: "Generate a new audit record signing seed",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "service-key-uri",
					Aliases: []string{"k"},
					Value:   "",
					Usage:   "Service key URI used to encrypt the seed (e.g., gcpkms://..., base64key://...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateSigningSeed(
					ctx,
					commands.DefaultIO().Writer,
					cmd.String("service-key-uri"),
				)
			},
		},
		{
			Name:  "check-passphrase",
			Usage: "Score a candidate vault passphrase",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				io := commands.DefaultIO()
				return commands.RunCheckPassphrase(io.Reader, io.Writer, cmd.String("format"))
			},
		},
	}
}
