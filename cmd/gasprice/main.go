package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "gasprice",
		Usage: "Compare crowdsourced fuel prices and report new ones",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file to load",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Database file",
			},
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "Fuel price API base URL",
			},
			&cli.StringFlag{
				Name:  "lang",
				Usage: "Notice language (pt, en)",
			},
			&cli.Float64Flag{
				Name:  "lat",
				Usage: "Device latitude",
			},
			&cli.Float64Flag{
				Name:  "lng",
				Usage: "Device longitude",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log debug output to stderr",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			signupCommand(),
			logoutCommand(),
			welcomeCommand(),
			searchCommand(),
			calcCommand(),
			stationsCommand(),
			addPriceCommand(),
			mapCommand(),
			deleteAccountCommand(),
			pruneCommand(),
			locationsCommand(),
			serveCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
