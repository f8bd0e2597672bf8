package tgen

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/usnistgov/tgenctl/app/tgen/tgspec"
	"github.com/usnistgov/tgenctl/core/events"
	"github.com/usnistgov/tgenctl/engine"
	"go.uber.org/zap"
)

// EngineConn is an engine connection owned by App.
// *engine.Client satisfies this interface.
type EngineConn interface {
	engine.Engine
	io.Closer
	Peer() string
	State() engine.State
}

// EngineInfo describes engine connection and controller state.
type EngineInfo struct {
	State      engine.State `json:"state"`
	Peer       string       `json:"peer,omitempty"`
	Controller State        `json:"controller"`
	RunID      string       `json:"runId,omitempty"`
}

// App couples a session registry, an engine connection, and a controller.
// It is the object that foreground commands operate on.
type App struct {
	cfg      Config
	reg      *Registry
	eng      *engine.Serial
	emitter  *events.Emitter
	onFatal  io.Closer
	dial     func(engine.Config) (EngineConn, error)
	mu       sync.Mutex
	conn     EngineConn
	ctrl     *Controller
	lastCtrl *Controller
}

// NewApp creates an App in disconnected state.
func NewApp(cfg Config) *App {
	app := &App{
		cfg:     cfg,
		reg:     NewRegistry(),
		eng:     engine.NewSerial(nil),
		emitter: events.NewEmitter(),
		dial: func(cfg engine.Config) (EngineConn, error) {
			c, e := engine.Dial(cfg)
			if e != nil {
				return nil, e
			}
			return c, nil
		},
	}
	app.onFatal = app.emitter.On(EventFatal, app.handleFatal)
	return app
}

// Registry returns the session registry.
func (app *App) Registry() *Registry {
	return app.reg
}

// On registers a callback on a controller event.
// Returns an io.Closer that cancels the callback registration.
func (app *App) On(event string, listener any) io.Closer {
	return app.emitter.On(event, listener)
}

// Connect dials the engine and launches a controller.
func (app *App) Connect(cfg engine.Config) error {
	conn, e := app.dial(cfg)
	if e != nil {
		return e
	}
	if e = app.Attach(conn); e != nil {
		conn.Close()
		return e
	}
	return nil
}

// Attach adopts an established engine connection and launches a controller.
func (app *App) Attach(conn EngineConn) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.conn != nil {
		return ErrConnected
	}

	app.conn = conn
	app.eng.Swap(conn)
	app.ctrl = NewController(app.cfg, app.reg, app.eng, app.emitter)
	app.lastCtrl = app.ctrl
	logger.Info("engine attached", zap.String("peer", conn.Peer()), zap.Stringer("controller", app.ctrl.ID()))
	return app.ctrl.Launch()
}

// Disconnect stops the controller and closes the engine connection.
// Sessions stay registered. It is safe to call Disconnect when already disconnected.
func (app *App) Disconnect() error {
	app.mu.Lock()
	conn, ctrl := app.conn, app.ctrl
	app.conn, app.ctrl = nil, nil
	app.mu.Unlock()
	if conn == nil {
		return nil
	}

	if e := ctrl.Stop(); e != nil {
		logger.Info("controller had stopped with error", zap.Error(e))
	}
	app.eng.Swap(nil)
	e := conn.Close()
	logger.Info("engine detached", zap.String("peer", conn.Peer()), zap.Error(e))
	return e
}

func (app *App) handleFatal(err error) {
	if !engine.IsConnError(err) {
		return
	}

	app.mu.Lock()
	stale := app.ctrl == nil || app.ctrl.State() != StateStopped
	app.mu.Unlock()
	if stale {
		return
	}

	logger.Warn("engine connection broken, disconnecting", zap.Error(err))
	app.Disconnect()
}

// EngineInfo returns engine connection and controller state.
func (app *App) EngineInfo() (info EngineInfo) {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.conn != nil {
		info.State = app.conn.State()
		info.Peer = app.conn.Peer()
	}
	if ctrl := app.lastCtrl; ctrl != nil {
		info.Controller = ctrl.State()
		info.RunID = ctrl.ID().String()
	}
	return info
}

// ControllerErr returns the error that stopped the most recent controller, if any.
func (app *App) ControllerErr() error {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.lastCtrl == nil {
		return nil
	}
	return app.lastCtrl.Err()
}

// StartSession creates and registers a session.
// If the spec has a pps target, the initial rate is pushed to every TX pipeline within one pause/resume bracket
// before the session becomes visible to the controller.
//
// While the engine is disconnected, a session with a pps target is rejected with engine.ErrDisconnected,
// because its initial rate cannot be pushed. A latency session, or one without a pps target, needs no engine call
// and is registered; the controller picks it up after the next Connect.
func (app *App) StartSession(ctx context.Context, port string, spec tgspec.Spec, tx, rx map[int]Pipeline) (info SessionInfo, e error) {
	sess, e := NewSession(port, spec, tx, rx, time.Now())
	if e != nil {
		return info, e
	}

	app.reg.withLock(func(sessions map[string]*Session) {
		if sessions[port] != nil {
			e = ErrPortRunning
			return
		}
		if spec.GetCommon().Pps != nil {
			e = app.eng.Do(func(eng engine.Engine) error {
				return engine.WithPaused(ctx, eng, func() error { return sess.PushRate(ctx, eng) })
			})
			if e != nil {
				return
			}
		}
		sessions[port] = sess
		info = sess.Info()
	})
	if e = app.checkConn(e); e != nil {
		return info, e
	}

	logger.Info("session started",
		zap.String("port", port),
		zap.String("kind", string(spec.GetKind())),
		zap.String("mode", string(sess.Mode())),
		zap.Int("cores", sess.CoreCount()),
	)
	return info, nil
}

// StopSession removes the session on a port.
func (app *App) StopSession(port string) (info SessionInfo, e error) {
	app.reg.withLock(func(sessions map[string]*Session) {
		sess := sessions[port]
		if sess == nil {
			e = ErrPortNotRunning
			return
		}
		delete(sessions, port)
		info = sess.Info()
	})
	if e == nil {
		logger.Info("session stopped", zap.String("port", port))
	}
	return info, e
}

// Reset removes every session.
func (app *App) Reset() (n int) {
	n = app.reg.Clear()
	logger.Info("sessions cleared", zap.Int("n", n))
	return n
}

// Close disconnects the engine and removes every session.
func (app *App) Close() error {
	e := app.Disconnect()
	app.reg.Clear()
	app.onFatal.Close()
	return e
}

// checkConn disconnects the engine upon a connection error.
// It must be called without holding the registry or engine lock.
func (app *App) checkConn(e error) error {
	if e != nil && engine.IsConnError(e) && !errors.Is(e, engine.ErrDisconnected) {
		logger.Warn("engine connection broken, disconnecting", zap.Error(e))
		app.Disconnect()
	}
	return e
}
