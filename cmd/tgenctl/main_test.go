package main

import (
	"strings"
	"testing"

	"github.com/usnistgov/tgenctl/core/testenv"
	"github.com/xeipuuv/gojsonschema"
)

var makeAR = testenv.MakeAR

func TestSocatAddress(t *testing.T) {
	assert, _ := makeAR(t)

	addr, e := socatAddress("tcp://127.0.0.1:6345")
	assert.NoError(e)
	assert.Equal("TCP:127.0.0.1:6345", addr)

	addr, e = socatAddress("unix:///run/tgenctl.sock")
	assert.NoError(e)
	assert.Equal("UNIX-CONNECT:/run/tgenctl.sock", addr)

	_, e = socatAddress("http://127.0.0.1")
	assert.Error(e)
}

func TestStartSessionSchema(t *testing.T) {
	assert, _ := makeAR(t)

	for input, valid := range map[string]bool{
		`{"port":"p0","spec":{"lossRate":0.01,"pps":1000},"tx":{"0":{"modules":["src0"],"tc":"tc0"}}}`: true,
		`{"port":"p0","spec":{"kind":"udp","cores":"0 1"},"tx":{"0":{"modules":[]}},"rx":{}}`:         true,
		`{"port":"p0","spec":{},"tx":{}}`:                                                              false,
		`{"port":"","spec":{},"tx":{"0":{"modules":[]}}}`:                                              false,
		`{"port":"p0","spec":{"lossRate":2},"tx":{"0":{"modules":[]}}}`:                                false,
		`{"port":"p0","spec":{"kind":"icmp"},"tx":{"0":{"modules":[]}}}`:                               false,
		`{"port":"p0","spec":{},"tx":{"x":{"modules":[]}}}`:                                            false,
		`{"port":"p0","spec":{},"tx":{"0":{"modules":[]}},"extra":1}`:                                  false,
	} {
		e := checkSchema(gojsonschema.NewStringLoader(input), "start-session")
		if valid {
			assert.NoError(e, input)
		} else if assert.Error(e, input) {
			assert.True(strings.HasPrefix(e.Error(), "JSON document failed schema validation"), input)
		}
	}
}
