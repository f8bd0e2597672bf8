package main

import (
	"github.com/urfave/cli/v2"
	"github.com/usnistgov/tgenctl/mgmt/logmgmt"
)

func init() {
	defineCommand(&cli.Command{
		Category: "log",
		Name:     "list-log-levels",
		Usage:    "List per-package log levels",
		Action: func(c *cli.Context) error {
			return clientDoPrint("Log.List", struct{}{})
		},
	})
}

func init() {
	var arg logmgmt.LevelInfo
	defineCommand(&cli.Command{
		Category: "log",
		Name:     "set-log-level",
		Usage:    "Change log level of a package",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "package",
				Usage:       "package `name`",
				Destination: &arg.Package,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "level",
				Usage:       "log `level` letter (V D I W E F N)",
				Destination: &arg.Level,
				Required:    true,
			},
		},
		Action: func(c *cli.Context) error {
			return clientDoPrint("Log.Set", arg)
		},
	})
}
