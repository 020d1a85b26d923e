package main

import (
	"errors"

	"github.com/urfave/cli/v2"
)

func deleteAccountCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete-account",
		Usage: "Delete your account",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Confirm the deletion",
			},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return errors.New("this deletes your account, pass --yes to confirm")
			}

			e, err := newEnv(c, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.requireSession(c); err != nil {
				return err
			}
			return e.app.DeleteAccount(c.Context)
		},
	}
}
