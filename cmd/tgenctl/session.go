package main

import (
	"fmt"
	"os"

	"github.com/rickb777/plural"
	"github.com/urfave/cli/v2"
	"github.com/usnistgov/tgenctl/mgmt/tgenmgmt"
)

var sessionPlurals = plural.FromZero("no sessions", "%d session", "%d sessions")

func init() {
	defineCommand(&cli.Command{
		Category: "session",
		Name:     "list-sessions",
		Usage:    "List traffic generator sessions",
		Action: func(c *cli.Context) error {
			if cmdout {
				return clientDoPrint("Session.List", struct{}{})
			}
			value, e := clientCall("Session.List", struct{}{})
			if e != nil {
				return e
			}
			list, _ := value.([]any)
			fmt.Fprintln(os.Stderr, sessionPlurals.FormatInt(len(list)))
			printValue(list)
			return nil
		},
	})
}

func definePortCommand(name, usage, method string) {
	var port string
	defineCommand(&cli.Command{
		Category: "session",
		Name:     name,
		Usage:    usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "port",
				Usage:       "traffic generator `port`",
				Destination: &port,
				Required:    true,
			},
		},
		Action: func(c *cli.Context) error {
			return clientDoPrint(method, tgenmgmt.PortArg{Port: port})
		},
	})
}

func init() {
	definePortCommand("get-session", "Show a session", "Session.Get")
	definePortCommand("stop-session", "Stop a session", "Session.Stop")
}

func init() {
	defineStdinJSONCommand(stdinJSONCommand{
		Category:   "session",
		Name:       "start-session",
		Usage:      "Start a session",
		SchemaName: "start-session",
		Action: func(c *cli.Context, arg map[string]any) error {
			return clientDoPrint("Session.Start", arg)
		},
	})
}

func init() {
	defineCommand(&cli.Command{
		Category: "session",
		Name:     "reset-sessions",
		Usage:    "Stop every session",
		Action: func(c *cli.Context) error {
			if cmdout {
				return clientDoPrint("Session.Reset", struct{}{})
			}
			var reply tgenmgmt.ResetReply
			if e := client.Call("Session.Reset", struct{}{}, &reply); e != nil {
				return e
			}
			fmt.Println("stopped", sessionPlurals.FormatInt(reply.Removed))
			return nil
		},
	})
}
