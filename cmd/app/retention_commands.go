package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/scenespin/voiceconsent/cmd/app/commands"
	"github.com/scenespin/voiceconsent/internal/app"
	"github.com/scenespin/voiceconsent/internal/config"
)

func getRetentionCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "enforce-retention",
			Usage: "Run a retention enforcement pass over expired consent records",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "now",
					Aliases: []string{"t"},
					Value:   "",
					Usage:   "Reference time in RFC3339 format (defaults to current time)",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Report which records would be deleted without deleting",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				retentionUseCase, err := container.RetentionUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunEnforceRetention(
					ctx,
					retentionUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("now"),
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
	}
}
