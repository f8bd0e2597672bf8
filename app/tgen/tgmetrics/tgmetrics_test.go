package tgmetrics_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/usnistgov/tgenctl/app/tgen"
	"github.com/usnistgov/tgenctl/app/tgen/tgmetrics"
	"github.com/usnistgov/tgenctl/core/events"
	"github.com/usnistgov/tgenctl/core/testenv"
	"github.com/usnistgov/tgenctl/engine"
)

var makeAR = testenv.MakeAR

type emitterSource struct {
	*events.Emitter
}

func (src emitterSource) On(event string, listener any) io.Closer {
	return src.Emitter.On(event, listener)
}

func TestCollector(t *testing.T) {
	assert, require := makeAR(t)

	reg := prometheus.NewPedanticRegistry()
	c, e := tgmetrics.New(reg)
	require.NoError(e)
	_, e = tgmetrics.New(reg)
	assert.Error(e)

	src := emitterSource{events.NewEmitter()}
	c.Subscribe(src)

	src.Emit(tgen.EventTick, tgen.TickReport{
		Seq:       1,
		Time:      time.Now(),
		APIErrors: 2,
		Sessions: []tgen.SessionReport{
			{Port: "p0", Mode: tgen.ModeThroughput, TargetRate: 925, ObservedRate: 850, Adjusted: true},
			{Port: "p1", Mode: tgen.ModeLatency, RTT: engine.RttSample{Count: 3, Min: 1e6, Mean: 2e6, Max: 3e6}},
		},
	})

	assert.NoError(testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP tgenctl_target_rate_pps Target transmission rate of a session.
# TYPE tgenctl_target_rate_pps gauge
tgenctl_target_rate_pps{port="p0"} 925
# HELP tgenctl_observed_rate_pps Observed incoming rate of a throughput session.
# TYPE tgenctl_observed_rate_pps gauge
tgenctl_observed_rate_pps{port="p0"} 850
# HELP tgenctl_rtt_seconds Round-trip time of a latency session.
# TYPE tgenctl_rtt_seconds gauge
tgenctl_rtt_seconds{port="p1",stat="max"} 0.003
tgenctl_rtt_seconds{port="p1",stat="mean"} 0.002
tgenctl_rtt_seconds{port="p1",stat="min"} 0.001
# HELP tgenctl_engine_api_errors_total Count of engine API errors contained by the controller.
# TYPE tgenctl_engine_api_errors_total counter
tgenctl_engine_api_errors_total 2
`), "tgenctl_target_rate_pps", "tgenctl_observed_rate_pps", "tgenctl_rtt_seconds", "tgenctl_engine_api_errors_total"))

	src.Emit(tgen.EventTick, tgen.TickReport{
		Seq:      2,
		Sessions: []tgen.SessionReport{{Port: "p1", Mode: tgen.ModeLatency}},
	})
	count, e := testutil.GatherAndCount(reg, "tgenctl_target_rate_pps")
	require.NoError(e)
	assert.Zero(count)
	count, e = testutil.GatherAndCount(reg, "tgenctl_adjustments_total")
	require.NoError(e)
	assert.Equal(1, count)

	src.Emit(tgen.EventFatal, errors.New("connection reset"))
	assert.NoError(c.Close())
	src.Emit(tgen.EventFatal, errors.New("connection reset"))
	src.Emit(tgen.EventTick, tgen.TickReport{Seq: 3})

	assert.NoError(testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP tgenctl_controller_fatal_total Count of controller loops stopped by an error.
# TYPE tgenctl_controller_fatal_total counter
tgenctl_controller_fatal_total 1
# HELP tgenctl_ticks_total Count of completed controller ticks.
# TYPE tgenctl_ticks_total counter
tgenctl_ticks_total 2
# HELP tgenctl_sessions Number of sessions seen in the last tick.
# TYPE tgenctl_sessions gauge
tgenctl_sessions 1
`), "tgenctl_controller_fatal_total", "tgenctl_ticks_total", "tgenctl_sessions"))
}
