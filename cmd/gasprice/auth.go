package main

import (
	"github.com/urfave/cli/v2"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the session token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "Account password",
				Required: true,
				EnvVars:  []string{"GASPRICE_PASSWORD"},
			},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			return e.app.Login(c.Context, c.String("email"), c.String("password"))
		},
	}
}

func signupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Your name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "email",
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "Account password, at least 6 characters",
				Required: true,
				EnvVars:  []string{"GASPRICE_PASSWORD"},
			},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			return e.app.Register(c.Context, c.String("name"), c.String("email"), c.String("password"))
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session token",
		Action: func(c *cli.Context) error {
			e, err := newEnv(c, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			return e.app.Logout(c.Context)
		},
	}
}
