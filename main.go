package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/PiotrWarzachowski/go-anonymizer/actions"
	"github.com/PiotrWarzachowski/go-anonymizer/actions/jobs"
	"github.com/PiotrWarzachowski/go-anonymizer/actions/login"
	"github.com/PiotrWarzachowski/go-anonymizer/actions/webhooks"
)

func main() {
	cmd := &cli.Command{
		Name:    "go-anonymizer",
		Usage:   "Anonymize faces and license plates in images and videos",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  actions.ConfigFlag,
				Usage: "Path to config.toml (default ~/.config/go-anonymizer/config.toml)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "Load ANONYMIZER_* variables from this file when it exists",
			},
			&cli.BoolFlag{
				Name:    actions.DebugFlag,
				Aliases: []string{"d"},
				Usage:   "Enable debug output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			path := cmd.String("env-file")
			if _, err := os.Stat(path); err != nil {
				return ctx, nil
			}
			if err := godotenv.Load(path); err != nil {
				return ctx, fmt.Errorf("failed to load %s: %w", path, err)
			}
			return ctx, nil
		},
		Action: func(context.Context, *cli.Command) error {
			fmt.Println("go-anonymizer - Use 'go-anonymizer help' for available commands")
			return nil
		},
		Commands: []*cli.Command{
			login.LoginCommand,
			login.LogoutCommand,
			login.StatusCommand,
			login.RefreshCommand,
			jobs.JobsCommand,
			webhooks.WebhooksCommand,
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
