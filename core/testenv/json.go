package testenv

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// FromJSON unmarshals from JSON string.
// Error causes panic.
func FromJSON(j string, ptr any) {
	if e := json.Unmarshal([]byte(j), ptr); e != nil {
		panic(e)
	}
}

// ToJSON marshals a value as JSON string.
func ToJSON(v any) string {
	j, e := json.Marshal(v)
	if e != nil {
		return "ERROR: " + e.Error()
	}
	return string(j)
}

// FromYAML unmarshals from YAML string.
// Error causes panic.
func FromYAML(y string, ptr any) {
	if e := yaml.Unmarshal([]byte(y), ptr); e != nil {
		panic(e)
	}
}
