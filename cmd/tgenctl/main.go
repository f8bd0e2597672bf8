// Command tgenctl controls the tgenctl service.
package main

import (
	"log"
	"os"
	"sort"

	"github.com/powerman/rpc-codec/jsonrpc2"
	"github.com/urfave/cli/v2"
	"github.com/usnistgov/tgenctl/core/version"
	"github.com/usnistgov/tgenctl/mgmt"
)

var (
	mgmtURI string
	cmdout  bool
	client  *jsonrpc2.Client
)

var app = &cli.App{
	Version: version.V.String(),
	Usage:   "Control tgenctl service.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "mgmt",
			Value:       mgmt.DefaultURI,
			Usage:       "management `URI` of tgenctl service",
			EnvVars:     []string{"TGENCTL_MGMT"},
			Destination: &mgmtURI,
		},
		&cli.BoolFlag{
			Name:        "cmdout",
			Value:       false,
			Usage:       "print command line instead of executing",
			Destination: &cmdout,
		},
	},
	Before: func(c *cli.Context) (e error) {
		if cmdout {
			return nil
		}
		network, addr, e := mgmt.ParseURI(mgmtURI)
		if e != nil {
			return e
		}
		client, e = jsonrpc2.Dial(network, addr)
		return e
	},
	After: func(c *cli.Context) error {
		if client != nil {
			return client.Close()
		}
		return nil
	},
}

func main() {
	sort.Sort(cli.CommandsByName(app.Commands))
	e := app.Run(os.Args)
	if e != nil {
		log.Fatal(e)
	}
}

func init() {
	defineCommand(&cli.Command{
		Name:  "show-version",
		Usage: "Show daemon version",
		Action: func(c *cli.Context) error {
			return clientDoPrint("Version.Version", struct{}{})
		},
	})
}
