package tgen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/usnistgov/tgenctl/core/events"
	"github.com/usnistgov/tgenctl/engine"
	"go.uber.org/zap"
)

// State indicates Controller lifecycle state.
type State int

// State values.
const (
	StateIdle State = iota
	StateRunning
	StateStopRequested
	StateStopped
)

func (st State) String() string {
	switch st {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop-requested"
	default:
		return "stopped"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (st State) MarshalText() ([]byte, error) {
	return []byte(st.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (st *State) UnmarshalText(text []byte) error {
	for _, v := range []State{StateIdle, StateRunning, StateStopRequested, StateStopped} {
		if v.String() == string(text) {
			*st = v
			return nil
		}
	}
	return fmt.Errorf("unknown controller state %q", text)
}

// Controller periodically samples every session and adjusts transmission rates.
type Controller struct {
	cfg     Config
	reg     *Registry
	eng     *engine.Serial
	emitter *events.Emitter
	id      uuid.UUID
	seq     uint64

	mu       sync.Mutex
	state    State
	err      error
	stop     chan struct{}
	stopOnce sync.Once
	exited   chan struct{}
}

// NewController creates a Controller.
// Events are emitted on emitter.
func NewController(cfg Config, reg *Registry, eng *engine.Serial, emitter *events.Emitter) *Controller {
	return &Controller{
		cfg:     cfg,
		reg:     reg,
		eng:     eng,
		emitter: emitter,
		id:      uuid.New(),
		stop:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

// ID returns a random identifier of this controller instance.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// State returns lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that stopped the loop, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Launch starts the loop in a new goroutine.
// A Controller can be launched only once.
func (c *Controller) Launch() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrLaunched
	}
	c.state = StateRunning
	logger.Info("controller launched", zap.Stringer("id", c.id), zap.Duration("window", c.cfg.Window()))
	go c.run()
	return nil
}

// Stop requests the loop to stop and waits for it to exit.
// Returns the error that stopped the loop, if any.
//
// It is safe to call Stop repeatedly, after the loop has stopped by itself, or before Launch.
func (c *Controller) Stop() error {
	c.mu.Lock()
	switch c.state {
	case StateIdle:
		c.state = StateStopped
		close(c.exited)
	case StateRunning:
		c.state = StateStopRequested
	}
	c.mu.Unlock()

	c.stopOnce.Do(func() { close(c.stop) })
	<-c.exited
	return c.Err()
}

func (c *Controller) run() {
	e := c.loop()

	c.mu.Lock()
	c.err = e
	c.state = StateStopped
	c.mu.Unlock()
	close(c.exited)

	if e != nil {
		logger.Error("controller stopped", zap.Stringer("id", c.id), zap.Error(e))
		c.emitter.Emit(EventFatal, e)
	} else {
		logger.Info("controller stopped", zap.Stringer("id", c.id))
	}
}

func (c *Controller) loop() error {
	timer := time.NewTimer(c.cfg.Window())
	defer timer.Stop()
	for {
		select {
		case <-c.stop:
			return nil
		default:
		}

		if e := c.Tick(time.Now()); e != nil {
			return e
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.cfg.Window())
		select {
		case <-c.stop:
			return nil
		case <-timer.C:
		}
	}
}

// Tick performs one sampling and adjustment pass at the given time.
// Engine API errors are contained and counted in the TickReport; any other error aborts the tick and is returned.
// EventTick is emitted after a successful tick, when the registry lock has been released.
//
// The loop invokes Tick on its own; it is exported for deterministic testing without Launch.
func (c *Controller) Tick(now time.Time) error {
	rpt := TickReport{
		RunID: c.id,
		Time:  now,
	}

	var e error
	c.reg.withLock(func(sessions map[string]*Session) {
		c.seq++
		rpt.Seq = c.seq
		e = c.tick(sessions, now, &rpt)
	})
	if e != nil {
		return e
	}

	c.emitter.Emit(EventTick, rpt)
	return nil
}

func (c *Controller) tick(sessions map[string]*Session, now time.Time, rpt *TickReport) error {
	ctx := context.Background()
	ports := sortedPorts(sessions)
	rpt.Sessions = make([]SessionReport, len(ports))

	contain := func(i int, op string, err error) error {
		if err == nil || !engine.IsAPIError(err) {
			return err
		}
		rpt.APIErrors++
		rpt.Sessions[i].Error = err.Error()
		logger.Warn(op+" error", zap.String("port", ports[i]), zap.Error(err))
		return nil
	}

	e := c.eng.Do(func(eng engine.Engine) error {
		sampled := make([]bool, len(ports))
		for i, port := range ports {
			sess := sessions[port]
			var err error
			if sess.Mode() == ModeLatency {
				err = sess.UpdateRTT(ctx, eng)
			} else {
				err = sess.UpdateStats(ctx, eng, now)
			}
			sampled[i] = err == nil
			if err = contain(i, "refresh", err); err != nil {
				return err
			}
		}

		err := engine.WithPaused(ctx, eng, func() error {
			rpt.Paused = true
			for i, port := range ports {
				sess := sessions[port]
				if !sampled[i] || sess.Mode() != ModeThroughput {
					continue
				}
				adjusted, err := sess.AdjustTxRate(ctx, eng)
				rpt.Sessions[i].Adjusted = adjusted
				if err = contain(i, "adjust", err); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil && engine.IsAPIError(err) {
			rpt.APIErrors++
			logger.Warn("pause/resume error", zap.Bool("adjusted", rpt.Paused), zap.Error(err))
			return nil
		}
		return err
	})
	if e != nil {
		return e
	}

	for i, port := range ports {
		sess := sessions[port]
		sr := &rpt.Sessions[i]
		sr.Port = port
		sr.Mode = sess.Mode()
		sr.TargetRate = sess.targetRate
		sr.ObservedRate = sess.observedRate
		sr.RTT = sess.lastRTT
	}
	return nil
}
