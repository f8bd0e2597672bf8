// Package enginemock provides an in-memory engine for unit testing.
package enginemock

import (
	"context"
	"sync"
	"syscall"

	"github.com/usnistgov/tgenctl/engine"
)

// Call records an RPC call received by Engine.
type Call struct {
	Method string
	// Target is the port, traffic class, or module name.
	Target string
	// Value is the requested rate, if applicable.
	Value float64
	// Paused indicates whether the engine was paused when the call was received.
	Paused bool
}

type failKey struct {
	method string
	target string
}

// Engine is an in-memory engine.Engine implementation.
// It is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	ports   map[string]*engine.PortStats
	rtt     map[string]engine.RttSample
	fails   map[failKey]error
	calls   []Call
	paused  bool
	nPause  int
	nResume int
	closed  bool
}

var _ engine.Engine = (*Engine)(nil)

// New creates Engine with the given ports.
func New(ports ...string) *Engine {
	m := &Engine{
		ports: map[string]*engine.PortStats{},
		rtt:   map[string]engine.RttSample{},
		fails: map[failKey]error{},
	}
	for _, port := range ports {
		m.ports[port] = &engine.PortStats{}
	}
	return m
}

// SetPortStats overwrites port statistics, creating the port if necessary.
func (m *Engine) SetPortStats(port string, st engine.PortStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ports[port] = &st
}

// AddIncoming increments incoming packet counter of a port.
func (m *Engine) AddIncoming(port string, packets uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.ports[port]
	if st == nil {
		st = &engine.PortStats{}
		m.ports[port] = st
	}
	st.Inc.Packets += packets
}

// SetRTT sets round-trip time sample of a port.
func (m *Engine) SetRTT(port string, rtt engine.RttSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rtt[port] = rtt
}

// Fail causes subsequent calls of method on target to return err.
// Empty target matches every target. Passing nil err clears the failure.
func (m *Engine) Fail(method, target string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := failKey{method, target}
	if err == nil {
		delete(m.fails, key)
	} else {
		m.fails[key] = err
	}
}

// Calls returns recorded calls and clears the record.
func (m *Engine) Calls() (calls []Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls, m.calls = m.calls, nil
	return calls
}

// Paused reports whether the engine is currently paused.
func (m *Engine) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// PauseResumeCount returns number of successful PauseAll and ResumeAll calls.
func (m *Engine) PauseResumeCount() (nPause, nResume int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nPause, m.nResume
}

// Peer returns a fixed name of the mock engine.
func (m *Engine) Peer() string {
	return "enginemock"
}

// State returns connection state.
func (m *Engine) State() engine.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return engine.StateDisconnected
	}
	return engine.StateConnected
}

// Close marks the engine disconnected.
// Subsequent calls return engine.ErrDisconnected.
func (m *Engine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Engine) record(method, target string, value float64) error {
	if m.closed {
		return engine.ErrDisconnected
	}
	m.calls = append(m.calls, Call{
		Method: method,
		Target: target,
		Value:  value,
		Paused: m.paused,
	})
	if err := m.fails[failKey{method, target}]; err != nil {
		return err
	}
	return m.fails[failKey{method, ""}]
}

// PauseAll implements engine.Engine.
func (m *Engine) PauseAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.record(engine.MethodPauseAll, "", 0); e != nil {
		return e
	}
	m.paused = true
	m.nPause++
	return nil
}

// ResumeAll implements engine.Engine.
func (m *Engine) ResumeAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.record(engine.MethodResumeAll, "", 0); e != nil {
		return e
	}
	m.paused = false
	m.nResume++
	return nil
}

// GetPortStats implements engine.Engine.
func (m *Engine) GetPortStats(ctx context.Context, port string) (engine.PortStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.record(engine.MethodGetPortStats, port, 0); e != nil {
		return engine.PortStats{}, e
	}
	st := m.ports[port]
	if st == nil {
		return engine.PortStats{}, engine.NewAPIError(syscall.ENODEV, "no such port", port)
	}
	return *st, nil
}

// GetRTT implements engine.Engine.
func (m *Engine) GetRTT(ctx context.Context, port string) (engine.RttSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.record(engine.MethodGetRtt, port, 0); e != nil {
		return engine.RttSample{}, e
	}
	if m.ports[port] == nil {
		return engine.RttSample{}, engine.NewAPIError(syscall.ENODEV, "no such port", port)
	}
	return m.rtt[port], nil
}

// UpdateRateLimiter implements engine.Engine.
func (m *Engine) UpdateRateLimiter(ctx context.Context, tc engine.TrafficClass, resource engine.Resource, limit uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.record(engine.MethodUpdateTc, string(tc), float64(limit)); e != nil {
		return e
	}
	if resource != engine.ResourcePacket && resource != engine.ResourceBit {
		return engine.NewAPIError(syscall.EINVAL, "bad resource", resource)
	}
	return nil
}

// UpdateModule implements engine.Engine.
func (m *Engine) UpdateModule(ctx context.Context, module engine.ModuleHandle, pps float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(engine.MethodUpdateModule, string(module), pps)
}
