package main

import (
	"fmt"

	"github.com/rubiojr/gasprice/pkg/api"
	"github.com/rubiojr/gasprice/pkg/fuel"
	"github.com/urfave/cli/v2"
)

func welcomeCommand() *cli.Command {
	return &cli.Command{
		Name:   "welcome",
		Usage:  "Show your profile, the cheapest and the latest reported price",
		Action: welcomeAction,
	}
}

func welcomeAction(c *cli.Context) error {
	e, err := newEnv(c, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.requireSession(c); err != nil {
		return err
	}

	user, err := e.app.UserProfile(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Olá, %s!\n\n", user.Name)

	if err := e.loadPrices(c, api.Filters{}); err != nil {
		return err
	}
	records := e.app.Store.Records()

	if r, ok := fuel.Cheapest(records); ok {
		fmt.Println("Cheapest price:")
		printRecord(r)
	}
	if r, ok := fuel.MostRecent(records); ok {
		fmt.Println("Latest report:")
		printRecord(r)
	}

	lastUpdate, err := e.app.LastUpdate(c.Context)
	if err != nil {
		e.log.Warn("error reading last update", "error", err)
	}
	if lastUpdate != nil {
		fmt.Printf("📅 Prices last saved: %s\n", lastUpdate.Format("2006-01-02"))
	}
	return nil
}
