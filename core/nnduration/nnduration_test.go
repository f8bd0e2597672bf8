package nnduration_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/usnistgov/tgenctl/core/nnduration"
	"github.com/usnistgov/tgenctl/core/testenv"
)

var (
	makeAR   = testenv.MakeAR
	fromJSON = testenv.FromJSON
	toJSON   = testenv.ToJSON
	fromYAML = testenv.FromYAML
)

func TestMilliseconds(t *testing.T) {
	assert, _ := makeAR(t)

	assert.Equal(2816*time.Millisecond, nnduration.Milliseconds(0).DurationOr(2816))

	ms := nnduration.Milliseconds(5274)
	assert.Equal(5274*time.Millisecond, ms.DurationOr(2816))
	assert.Equal(`5274`, toJSON(ms))

	var decoded nnduration.Milliseconds
	fromJSON(`5274`, &decoded)
	assert.Equal(ms, decoded)

	fromJSON(`"5274"`, &decoded)
	assert.Equal(ms, decoded)

	fromJSON(`"6s"`, &decoded)
	assert.Equal(nnduration.Milliseconds(6000), decoded)
	assert.Equal(6*time.Second, decoded.Duration())

	assert.ErrorIs(json.Unmarshal([]byte(`"-1s"`), &decoded), nnduration.ErrNegative)
}

func TestMicroseconds(t *testing.T) {
	assert, _ := makeAR(t)

	assert.Equal(time.Second, nnduration.Microseconds(0).DurationOr(1000000))

	var cfg struct {
		Window nnduration.Microseconds `json:"window" yaml:"window"`
	}
	fromJSON(`{"window":"250ms"}`, &cfg)
	assert.Equal(nnduration.Microseconds(250000), cfg.Window)

	fromYAML("window: 1500000\n", &cfg)
	assert.Equal(1500*time.Millisecond, cfg.Window.Duration())

	fromYAML("window: 2s\n", &cfg)
	assert.Equal(nnduration.Microseconds(2000000), cfg.Window)
}

func TestNanoseconds(t *testing.T) {
	assert, _ := makeAR(t)

	assert.Equal(1652*time.Nanosecond, nnduration.Nanoseconds(0).DurationOr(1652))

	ns := nnduration.Nanoseconds(7011)
	assert.Equal(7011*time.Nanosecond, ns.DurationOr(1652))
	assert.Equal(`7011`, toJSON(ns))

	var decoded nnduration.Nanoseconds
	fromJSON(`7011`, &decoded)
	assert.Equal(ns, decoded)

	fromJSON(`"3us"`, &decoded)
	assert.Equal(nnduration.Nanoseconds(3000), decoded)
	assert.Equal(3*time.Microsecond, decoded.Duration())
}
