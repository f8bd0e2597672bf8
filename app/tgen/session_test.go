package tgen_test

import (
	"context"
	"testing"

	"github.com/usnistgov/tgenctl/app/tgen"
	"github.com/usnistgov/tgenctl/engine"
	"github.com/usnistgov/tgenctl/engine/enginemock"
)

func TestNewSession(t *testing.T) {
	assert, require := makeAR(t)
	spec := parseSpec(t, `{"lossRate":0.1,"pps":1000}`)

	_, e := tgen.NewSession("", spec, tcPipelines("p0", 0), nil, t0)
	assert.ErrorIs(e, tgen.ErrNoPort)
	_, e = tgen.NewSession("p0", nil, tcPipelines("p0", 0), nil, t0)
	assert.ErrorIs(e, tgen.ErrNoSpec)
	_, e = tgen.NewSession("p0", spec, nil, nil, t0)
	assert.ErrorIs(e, tgen.ErrNoTxPipeline)
	_, e = tgen.NewSession("p0", spec, map[int]tgen.Pipeline{0: {}}, nil, t0)
	assert.ErrorIs(e, tgen.ErrPipelineModule)

	tx := tcPipelines("p0", 0, 1)
	sess, e := tgen.NewSession("p0", spec, tx, modulePipelines("p0", 0), t0)
	require.NoError(e)
	assert.Equal("p0", sess.Port())
	assert.Equal(tgen.ModeThroughput, sess.Mode())
	assert.Equal(2, sess.CoreCount())
	assert.InDelta(1000.0, sess.TargetRate(), 0)
	assert.Equal(t0, sess.Now())
	assert.Equal(t0, sess.LastCheck())

	tx[0].Modules[0] = "modified"
	p, ok := sess.TxPipeline(0)
	require.True(ok)
	assert.Equal(engine.ModuleHandle("p0-src"), p.Modules[0])
	_, ok = sess.RxPipeline(0)
	assert.True(ok)
	_, ok = sess.TxPipeline(5)
	assert.False(ok)

	latency, e := tgen.NewSession("p1", parseSpec(t, `{"latency":true}`), tcPipelines("p1", 0), nil, t0)
	require.NoError(e)
	assert.Equal(tgen.ModeLatency, latency.Mode())
	assert.Zero(latency.TargetRate())
}

func TestUpdateStats(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()
	mock := enginemock.New("p0")

	sess, e := tgen.NewSession("p0", parseSpec(t, `{"lossRate":0.1,"pps":1000}`), tcPipelines("p0", 0), nil, t0)
	require.NoError(e)

	mock.AddIncoming("p0", 100)
	require.NoError(sess.UpdateStats(ctx, mock, at(1)))
	assert.EqualValues(100, sess.CurrStats().Inc.Packets)
	assert.Equal(sess.CurrStats(), sess.LastStats())
	assert.Equal(t0, sess.LastCheck())
	assert.Equal(at(1), sess.Now())

	mock.AddIncoming("p0", 50)
	require.NoError(sess.UpdateStats(ctx, mock, at(2)))
	assert.EqualValues(100, sess.LastStats().Inc.Packets)
	assert.EqualValues(150, sess.CurrStats().Inc.Packets)
	assert.Equal(at(1), sess.LastCheck())
	assert.Equal(at(2), sess.Now())

	mock.AddIncoming("p0", 25)
	require.NoError(sess.UpdateStats(ctx, mock, at(3)))
	assert.EqualValues(150, sess.LastStats().Inc.Packets)
	assert.EqualValues(175, sess.CurrStats().Inc.Packets)

	missing, e := tgen.NewSession("p9", parseSpec(t, `{}`), tcPipelines("p9", 0), nil, t0)
	require.NoError(e)
	e = missing.UpdateStats(ctx, mock, at(1))
	assert.True(engine.IsAPIError(e))
	assert.Equal(t0, missing.Now())
}

func TestAdjustScenario(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()
	mock := enginemock.New("p0")

	sess, e := tgen.NewSession("p0", parseSpec(t, `{"lossRate":0.1,"pps":1000}`), tcPipelines("p0", 0, 1), nil, t0)
	require.NoError(e)

	// first sample: no adjustment
	require.NoError(sess.UpdateStats(ctx, mock, at(1)))
	adjusted, e := sess.AdjustTxRate(ctx, mock)
	require.NoError(e)
	assert.False(adjusted)
	mock.Calls()

	// observed 850 < threshold 900: back-off to (1000+850)/2
	mock.AddIncoming("p0", 850)
	require.NoError(sess.UpdateStats(ctx, mock, at(2)))
	mock.Calls()
	adjusted, e = sess.AdjustTxRate(ctx, mock)
	require.NoError(e)
	assert.True(adjusted)
	assert.InDelta(925.0, sess.TargetRate(), 1e-9)

	calls := mock.Calls()
	require.Len(calls, 2)
	assert.Equal(engine.MethodUpdateTc, calls[0].Method)
	assert.Equal("p0-tc0", calls[0].Target)
	assert.EqualValues(462, calls[0].Value)
	assert.Equal("p0-tc1", calls[1].Target)
	assert.EqualValues(462, calls[1].Value)

	// observed 1000 > threshold 832.5: growth by AdjustFactor
	prev := sess.TargetRate()
	mock.AddIncoming("p0", 1000)
	require.NoError(sess.UpdateStats(ctx, mock, at(3)))
	mock.Calls()
	_, e = sess.AdjustTxRate(ctx, mock)
	require.NoError(e)
	assert.Equal(prev*tgen.AdjustFactor, sess.TargetRate())
	assert.InDelta(1017.5, sess.TargetRate(), 1e-9)

	calls = mock.Calls()
	require.Len(calls, 2)
	assert.EqualValues(508, calls[0].Value)
	assert.EqualValues(508, calls[1].Value)
}

func TestAdjustElapsed(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()
	mock := enginemock.New("p0")

	sess, e := tgen.NewSession("p0", parseSpec(t, `{"lossRate":0.5,"pps":1000}`), modulePipelines("p0", 0), nil, t0)
	require.NoError(e)

	// 1000 packets over 2 seconds equals threshold 500: no change
	require.NoError(sess.UpdateStats(ctx, mock, at(1)))
	mock.AddIncoming("p0", 1000)
	require.NoError(sess.UpdateStats(ctx, mock, at(3)))
	adjusted, e := sess.AdjustTxRate(ctx, mock)
	require.NoError(e)
	assert.True(adjusted)
	assert.InDelta(1000.0, sess.TargetRate(), 0)

	// idle port: observed 0 backs off
	require.NoError(sess.UpdateStats(ctx, mock, at(4)))
	_, e = sess.AdjustTxRate(ctx, mock)
	require.NoError(e)
	assert.InDelta(500.0, sess.TargetRate(), 0)

	// non-positive elapsed time violates the contract
	require.NoError(sess.UpdateStats(ctx, mock, at(4)))
	assert.Panics(func() { sess.AdjustTxRate(ctx, mock) })
}

func TestAdjustModulePerCore(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()
	mock := enginemock.New("p0")

	sess, e := tgen.NewSession("p0", parseSpec(t, `{"lossRate":0.1,"pps":1000,"cores":"0"}`), modulePipelines("p0", 4, 2, 7), nil, t0)
	require.NoError(e)
	assert.Equal(3, sess.CoreCount())
	require.NoError(sess.UpdateStats(ctx, mock, at(1)))
	mock.AddIncoming("p0", 1300)
	require.NoError(sess.UpdateStats(ctx, mock, at(2)))
	mock.Calls()

	_, e = sess.AdjustTxRate(ctx, mock)
	require.NoError(e)
	assert.InDelta(1100.0, sess.TargetRate(), 1e-9)

	calls := mock.Calls()
	require.Len(calls, 3)
	sum := 0.0
	for i, target := range []string{"p0-src2", "p0-src4", "p0-src7"} {
		assert.Equal(engine.MethodUpdateModule, calls[i].Method)
		assert.Equal(target, calls[i].Target)
		sum += calls[i].Value
	}
	assert.InDelta(sess.TargetRate(), sum, 1e-9)
}

func TestAdjustNotApplicable(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()
	mock := enginemock.New("p0", "p1")

	for _, j := range []string{`{"latency":true}`, `{"pps":1000}`, `{"lossRate":0.1}`} {
		sess, e := tgen.NewSession("p0", parseSpec(t, j), tcPipelines("p0", 0), nil, t0)
		require.NoError(e)
		require.NoError(sess.UpdateStats(ctx, mock, at(1)))
		mock.AddIncoming("p0", 100)
		require.NoError(sess.UpdateStats(ctx, mock, at(2)))
		mock.Calls()

		adjusted, e := sess.AdjustTxRate(ctx, mock)
		assert.NoError(e, j)
		assert.False(adjusted, j)
		assert.Empty(mock.Calls(), j)
	}

	latency, e := tgen.NewSession("p1", parseSpec(t, `{"latency":true}`), tcPipelines("p1", 0), nil, t0)
	require.NoError(e)
	mock.SetRTT("p1", engine.RttSample{Count: 10, Min: 1000, Mean: 2000, Max: 3000})
	require.NoError(latency.UpdateRTT(ctx, mock))
	mock.SetRTT("p1", engine.RttSample{Count: 10, Min: 3000, Mean: 4000, Max: 5000})
	require.NoError(latency.UpdateRTT(ctx, mock))
	mock.SetRTT("p1", engine.RttSample{})
	require.NoError(latency.UpdateRTT(ctx, mock))

	info := latency.Info()
	assert.EqualValues(2, info.RTT.Count)
	assert.InDelta(3000.0, info.RTT.Mean, 1e-9)
	assert.Zero(info.LastRTT.Count)
	assert.Zero(info.TargetRate)
}
