package main

import (
	"github.com/urfave/cli/v2"
	"github.com/usnistgov/tgenctl/core/nnduration"
	"github.com/usnistgov/tgenctl/mgmt/tgenmgmt"
)

func init() {
	defineCommand(&cli.Command{
		Category: "engine",
		Name:     "show-engine",
		Usage:    "Show engine connection and controller state",
		Action: func(c *cli.Context) error {
			return clientDoPrint("Engine.State", struct{}{})
		},
	})
}

func init() {
	var uri string
	var timeout int
	defineCommand(&cli.Command{
		Category: "engine",
		Name:     "connect-engine",
		Usage:    "Connect to the engine and start the controller",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "uri",
				Usage:       "engine `URI`, default from service configuration",
				Destination: &uri,
			},
			&cli.IntFlag{
				Name:        "timeout",
				Usage:       "RPC timeout in `milliseconds`, default from service configuration",
				Destination: &timeout,
			},
		},
		Action: func(c *cli.Context) error {
			return clientDoPrint("Engine.Connect", tgenmgmt.ConnectArgs{
				URI:     uri,
				Timeout: nnduration.Milliseconds(timeout),
			})
		},
	})
}

func init() {
	defineCommand(&cli.Command{
		Category: "engine",
		Name:     "disconnect-engine",
		Usage:    "Stop the controller and disconnect from the engine",
		Action: func(c *cli.Context) error {
			return clientDoPrint("Engine.Disconnect", struct{}{})
		},
	})
}
