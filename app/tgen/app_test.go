package tgen_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gabstv/freeport"
	"github.com/usnistgov/tgenctl/app/tgen"
	"github.com/usnistgov/tgenctl/core/nnduration"
	"github.com/usnistgov/tgenctl/engine"
	"github.com/usnistgov/tgenctl/engine/enginemock"
)

func TestAppSessions(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()
	app := tgen.NewApp(tgen.Config{AdjustWindow: nnduration.Microseconds(time.Hour / time.Microsecond)})
	defer app.Close()

	ticked := make(chan struct{}, 1)
	cancel := app.On(tgen.EventTick, func(tgen.TickReport) {
		select {
		case ticked <- struct{}{}:
		default:
		}
	})
	defer cancel.Close()

	mock := enginemock.New("p0", "p1")
	require.NoError(app.Attach(mock))
	<-ticked
	assert.ErrorIs(app.Attach(enginemock.New()), tgen.ErrConnected)
	info := app.EngineInfo()
	assert.Equal(engine.StateConnected, info.State)
	assert.Equal("enginemock", info.Peer)
	assert.Equal(tgen.StateRunning, info.Controller)
	mock.Calls()

	si, e := app.StartSession(ctx, "p0", parseSpec(t, `{"lossRate":0.05,"pps":3000}`), tcPipelines("p0", 0, 1, 2), nil)
	require.NoError(e)
	assert.Equal("p0", si.Port)
	assert.InDelta(3000.0, si.TargetRate, 0)
	assert.True(app.Registry().IsRunning("p0"))

	calls := mock.Calls()
	require.Len(calls, 5)
	assert.Equal(engine.MethodPauseAll, calls[0].Method)
	for i, call := range calls[1:4] {
		assert.Equal(engine.MethodUpdateTc, call.Method)
		assert.Equal(fmt.Sprintf("p0-tc%d", i), call.Target)
		assert.EqualValues(1000, call.Value)
		assert.True(call.Paused)
	}
	assert.Equal(engine.MethodResumeAll, calls[4].Method)

	_, e = app.StartSession(ctx, "p0", parseSpec(t, `{"pps":10}`), tcPipelines("p0", 0), nil)
	assert.ErrorIs(e, tgen.ErrPortRunning)

	_, e = app.StartSession(ctx, "p1", parseSpec(t, `{"latency":true}`), modulePipelines("p1", 0), nil)
	require.NoError(e)
	assert.Empty(mock.Calls())

	mock.Fail(engine.MethodUpdateModule, "", engine.NewAPIError(22, "bad module", nil))
	_, e = app.StartSession(ctx, "p2", parseSpec(t, `{"pps":10}`), modulePipelines("p2", 0), nil)
	assert.True(engine.IsAPIError(e))
	assert.False(app.Registry().IsRunning("p2"))
	assert.False(mock.Paused())
	assert.Equal(engine.StateConnected, app.EngineInfo().State)

	list := app.Registry().Snapshot()
	require.Len(list, 2)
	assert.Equal(tgen.ModeLatency, list[1].Mode)

	si, e = app.StopSession("p1")
	require.NoError(e)
	assert.Equal("p1", si.Port)
	_, e = app.StopSession("p1")
	assert.ErrorIs(e, tgen.ErrPortNotRunning)

	assert.Equal(1, app.Reset())
	assert.Zero(app.Registry().Len())

	assert.NoError(app.Disconnect())
	assert.NoError(app.Disconnect())
	info = app.EngineInfo()
	assert.Equal(engine.StateDisconnected, info.State)
	assert.Equal(tgen.StateStopped, info.Controller)
	assert.Equal(engine.StateDisconnected, mock.State())
}

func TestAppDisconnected(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()
	app := tgen.NewApp(tgen.Config{})
	defer app.Close()

	info := app.EngineInfo()
	assert.Equal(engine.StateDisconnected, info.State)
	assert.Equal(tgen.StateIdle, info.Controller)

	_, e := app.StartSession(ctx, "p0", parseSpec(t, `{"pps":100}`), tcPipelines("p0", 0), nil)
	assert.ErrorIs(e, engine.ErrDisconnected)
	assert.False(app.Registry().IsRunning("p0"))

	_, e = app.StartSession(ctx, "p1", parseSpec(t, `{"latency":true}`), tcPipelines("p1", 0), nil)
	require.NoError(e)
	assert.True(app.Registry().IsRunning("p1"))

	_, e = app.StartSession(ctx, "p2", parseSpec(t, `{"pps":100}`), nil, nil)
	assert.ErrorIs(e, tgen.ErrNoTxPipeline)

	ticks := make(chan tgen.TickReport, 16)
	cancel := app.On(tgen.EventTick, func(rpt tgen.TickReport) {
		select {
		case ticks <- rpt:
		default:
		}
	})
	defer cancel.Close()

	mock := enginemock.New("p1")
	require.NoError(app.Attach(mock))
	select {
	case rpt := <-ticks:
		require.Len(rpt.Sessions, 1)
		assert.Equal("p1", rpt.Sessions[0].Port)
		assert.Equal(tgen.ModeLatency, rpt.Sessions[0].Mode)
	case <-time.After(5 * time.Second):
		require.FailNow("tick timeout")
	}
}

func TestAppUnknownError(t *testing.T) {
	assert, require := makeAR(t)
	app := tgen.NewApp(tgen.Config{AdjustWindow: 1000})
	defer app.Close()

	mock := enginemock.New("p0")
	_, e := app.StartSession(context.Background(), "p0", parseSpec(t, `{"latency":true}`), tcPipelines("p0", 0), nil)
	require.NoError(e)

	boom := errors.New("boom")
	mock.Fail(engine.MethodGetRtt, "p0", boom)
	fatal := make(chan error, 1)
	cancel := app.On(tgen.EventFatal, func(e error) { fatal <- e })
	defer cancel.Close()

	require.NoError(app.Attach(mock))
	select {
	case e := <-fatal:
		assert.ErrorIs(e, boom)
	case <-time.After(5 * time.Second):
		require.FailNow("fatal timeout")
	}

	assert.Eventually(func() bool {
		return app.EngineInfo().Controller == tgen.StateStopped
	}, 5*time.Second, 10*time.Millisecond)
	info := app.EngineInfo()
	assert.Equal(engine.StateConnected, info.State)
	assert.Equal(engine.StateConnected, mock.State())
	assert.ErrorIs(app.ControllerErr(), boom)
	assert.True(app.Registry().IsRunning("p0"))

	require.NoError(app.Disconnect())
	assert.Equal(engine.StateDisconnected, app.EngineInfo().State)
}

func TestAppBroken(t *testing.T) {
	assert, require := makeAR(t)
	app := tgen.NewApp(tgen.Config{AdjustWindow: 1000})
	defer app.Close()

	mock := enginemock.New("p0")
	_, e := app.StartSession(context.Background(), "p0", parseSpec(t, `{"latency":true}`), tcPipelines("p0", 0), nil)
	require.NoError(e)

	broken := &engine.ConnError{Op: engine.MethodGetRtt, Err: errors.New("EOF")}
	mock.Fail(engine.MethodGetRtt, "p0", broken)
	fatal := make(chan error, 1)
	cancel := app.On(tgen.EventFatal, func(e error) { fatal <- e })
	defer cancel.Close()

	require.NoError(app.Attach(mock))
	select {
	case e := <-fatal:
		assert.ErrorIs(e, broken)
	case <-time.After(5 * time.Second):
		require.FailNow("fatal timeout")
	}

	assert.Eventually(func() bool {
		return app.EngineInfo().State == engine.StateDisconnected
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(engine.StateDisconnected, mock.State())
	assert.ErrorIs(app.ControllerErr(), broken)
	assert.True(app.Registry().IsRunning("p0"))

	mock2 := enginemock.New("p0")
	require.NoError(app.Attach(mock2))
	assert.Equal(tgen.StateRunning, app.EngineInfo().Controller)
	assert.NoError(app.ControllerErr())
}

func TestAppConnect(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()

	port, e := freeport.TCP()
	require.NoError(e)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	listener, e := net.Listen("tcp", addr)
	require.NoError(e)
	defer listener.Close()
	mock := enginemock.New("p0")
	go enginemock.Service{Engine: mock}.Serve(listener)

	app := tgen.NewApp(tgen.Config{AdjustWindow: 2000})
	defer app.Close()

	mock.AddIncoming("p0", 1)
	require.NoError(app.Connect(engine.Config{URI: "tcp://" + addr}))
	assert.ErrorIs(app.Connect(engine.Config{URI: "tcp://" + addr}), tgen.ErrConnected)
	info := app.EngineInfo()
	assert.Equal(engine.StateConnected, info.State)
	assert.Equal(addr, info.Peer)

	_, e = app.StartSession(ctx, "p0", parseSpec(t, `{"lossRate":0.1,"pps":1000}`), modulePipelines("p0", 0), nil)
	require.NoError(e)

	ticks := make(chan tgen.TickReport, 16)
	cancel := app.On(tgen.EventTick, func(rpt tgen.TickReport) {
		select {
		case ticks <- rpt:
		default:
		}
	})
	defer cancel.Close()
	for adjusted := false; !adjusted; {
		select {
		case rpt := <-ticks:
			adjusted = len(rpt.Sessions) == 1 && rpt.Sessions[0].Adjusted
		case <-time.After(5 * time.Second):
			require.FailNow("tick timeout")
		}
	}

	require.NoError(app.Disconnect())
	assert.Equal(engine.StateDisconnected, app.EngineInfo().State)
	assert.Greater(len(filterCalls(mock.Calls(), engine.MethodUpdateModule)), 1)
}
