package main

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/urfave/cli/v2"
	"github.com/usnistgov/tgenctl/mgmt"
	"github.com/xeipuuv/gojsonschema"
)

func defineCommand(command *cli.Command) {
	app.Commands = append(app.Commands, command)
}

type schemaError struct {
	*gojsonschema.Result
	SchemaName string
}

func (e schemaError) Error() string {
	var b strings.Builder
	fmt.Fprintln(&b, "JSON document failed schema validation:")
	for _, desc := range e.Result.Errors() {
		fmt.Fprintln(&b, "-", desc)
	}
	fmt.Fprintln(&b, "Schema", e.SchemaName)
	return b.String()
}

func checkSchema(input gojsonschema.JSONLoader, schemaName string) error {
	schemaJSON, e := schemas.ReadFile(schemaName + ".schema.json")
	if e != nil {
		return e
	}

	result, e := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), input)
	if e != nil {
		fmt.Fprintln(os.Stderr, "JSON schema validator error:", e)
		return e
	}

	if !result.Valid() {
		return schemaError{Result: result, SchemaName: schemaName}
	}
	return nil
}

type stdinJSONCommand struct {
	Category   string
	Name       string
	Usage      string
	SchemaName string
	Flags      []cli.Flag
	Action     func(c *cli.Context, arg map[string]any) error
}

func defineStdinJSONCommand(opts stdinJSONCommand) {
	var skipSchema bool
	defineCommand(&cli.Command{
		Category: opts.Category,
		Name:     opts.Name,
		Usage:    opts.Usage + " (pass parameters via stdin)",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:        "skip-schema",
				Usage:       "do not check JSON schema",
				Value:       false,
				Destination: &skipSchema,
			},
		}, opts.Flags...),
		Action: func(c *cli.Context) error {
			arg := make(map[string]any)
			loader, stdin := gojsonschema.NewReaderLoader(os.Stdin)
			decoder := json.NewDecoder(stdin)

			hasInput := make(chan bool, 1)
			go func() {
				delay := time.NewTimer(2 * time.Second)
				defer delay.Stop()
				select {
				case <-hasInput:
				case <-delay.C:
					fmt.Fprintln(os.Stderr, "Hint: pass parameters via stdin")
				}
			}()

			e := decoder.Decode(&arg)
			hasInput <- true
			if e != nil {
				return e
			}

			if !skipSchema {
				if e := checkSchema(loader, opts.SchemaName); e != nil {
					return e
				}
			}
			return opts.Action(c, arg)
		},
	})
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

// socatAddress converts management URI to socat address.
func socatAddress(uri string) (string, error) {
	network, addr, e := mgmt.ParseURI(uri)
	if e != nil {
		return "", e
	}
	if network == "unix" {
		return "UNIX-CONNECT:" + addr, nil
	}
	return strings.ToUpper(network) + ":" + addr, nil
}

func clientCall(method string, args any) (value any, e error) {
	e = client.Call(method, args, &value)
	return
}

func clientDoPrint(method string, args any) error {
	if cmdout {
		j, e := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: []any{args}, ID: 1})
		if e != nil {
			return e
		}
		socat, e := socatAddress(mgmtURI)
		if e != nil {
			return e
		}
		fmt.Println("echo", shellquote.Join(string(j)), "|", "socat", shellquote.Join("-", socat), "|", "jq", shellquote.Join("-c", ".result"))
		return nil
	}

	value, e := clientCall(method, args)
	if e != nil {
		return e
	}
	printValue(value)
	return nil
}

func printValue(value any) {
	if val := reflect.ValueOf(value); val.Kind() == reflect.Slice {
		for i, last := 0, val.Len(); i < last; i++ {
			j, _ := json.Marshal(val.Index(i).Interface())
			fmt.Println(string(j))
		}
	} else {
		j, _ := json.Marshal(value)
		fmt.Println(string(j))
	}
}
