package tgspec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Cores is a list of core indices.
// Duplicates are permitted and order is irrelevant.
//
// In JSON, it may be written as an array of integers or a space-separated string.
type Cores []int

// ParseCores parses a space-separated list of core indices.
func ParseCores(input string) (list Cores, e error) {
	list = Cores{}
	for _, token := range strings.Fields(input) {
		core, e := strconv.Atoi(token)
		if e != nil {
			return nil, fmt.Errorf("bad core index %q", token)
		}
		list = append(list, core)
	}
	return list, nil
}

// Distinct returns sorted distinct core indices.
func (list Cores) Distinct() (distinct []int) {
	sorted := append([]int{}, list...)
	sort.Ints(sorted)
	for i, core := range sorted {
		if i == 0 || core != sorted[i-1] {
			distinct = append(distinct, core)
		}
	}
	return distinct
}

func (list Cores) String() string {
	tokens := make([]string, len(list))
	for i, core := range list {
		tokens[i] = strconv.Itoa(core)
	}
	return strings.Join(tokens, " ")
}

// UnmarshalJSON implements json.Unmarshaler.
func (list *Cores) UnmarshalJSON(data []byte) (e error) {
	if string(data) == "null" {
		return nil
	}

	var s string
	if json.Unmarshal(data, &s) == nil {
		*list, e = ParseCores(s)
		return e
	}

	var a []int
	if e = json.Unmarshal(data, &a); e != nil {
		return e
	}
	if a == nil {
		a = []int{}
	}
	*list = a
	return nil
}
