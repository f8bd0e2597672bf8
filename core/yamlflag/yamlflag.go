// Package yamlflag provides a command line flag that accepts a YAML document.
package yamlflag

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"
)

// New creates a flag.Getter that decodes a YAML document into value.
//
// The YAML document can be specified directly on the command line:
//
//	--config="engine: {uri: tcp://127.0.0.1:10514}"
//
// Or it can be read from a file, when the flag value starts with '@':
//
//	--config=@/etc/tgenctl/svc.yaml
//
// ${VAR} references in the document are expanded from the environment.
// Unknown keys are rejected.
// value must be a pointer to a struct; otherwise this function panics.
func New(value any) flag.Getter {
	if val := reflect.ValueOf(value); val.Kind() != reflect.Pointer {
		panic(val.Kind())
	}
	return &yamlFlagValue{value}
}

type yamlFlagValue struct {
	value any
}

func (v *yamlFlagValue) Get() any {
	return v.value
}

func (v *yamlFlagValue) Set(s string) error {
	doc := []byte(s)
	if len(s) >= 1 && s[0] == '@' {
		file, e := os.ReadFile(s[1:])
		if e != nil {
			return e
		}
		doc = file
	}

	doc = []byte(os.ExpandEnv(string(doc)))
	decoder := yaml.NewDecoder(bytes.NewReader(doc))
	decoder.KnownFields(true)
	if e := decoder.Decode(v.value); e != nil && !errors.Is(e, io.EOF) {
		return e
	}
	return nil
}

func (v *yamlFlagValue) String() string {
	if v == nil || v.value == nil {
		return ""
	}
	j, _ := json.Marshal(v.value)
	return string(j)
}
