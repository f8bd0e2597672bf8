package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/rpc"
	"net/url"
	"sync"
	"time"

	"github.com/powerman/rpc-codec/jsonrpc2"
	"github.com/usnistgov/tgenctl/core/nnduration"
	"go.uber.org/zap"
)

// State indicates connection state of Client.
type State int

// State values.
const (
	StateDisconnected State = iota
	StateConnected
	StateBroken
)

func (st State) String() string {
	switch st {
	case StateConnected:
		return "connected"
	case StateBroken:
		return "broken"
	default:
		return "disconnected"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (st State) MarshalText() ([]byte, error) {
	return []byte(st.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (st *State) UnmarshalText(text []byte) error {
	for _, v := range []State{StateDisconnected, StateConnected, StateBroken} {
		if v.String() == string(text) {
			*st = v
			return nil
		}
	}
	return fmt.Errorf("unknown connection state %q", text)
}

// Config contains Client configuration.
type Config struct {
	// URI is the engine endpoint, either tcp://host:port or unix:///path.
	// Default is tcp://127.0.0.1:10514.
	URI string `json:"uri,omitempty" yaml:"uri,omitempty"`

	// Timeout is the deadline of dialing and of each RPC call.
	// Default is 2000ms.
	Timeout nnduration.Milliseconds `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultURI is the default engine endpoint.
const DefaultURI = "tcp://127.0.0.1:10514"

func (cfg *Config) applyDefaults() {
	if cfg.URI == "" {
		cfg.URI = DefaultURI
	}
}

// Endpoint parses URI into network and address.
func (cfg Config) Endpoint() (network, address string, e error) {
	cfg.applyDefaults()
	u, e := url.Parse(cfg.URI)
	if e != nil {
		return "", "", fmt.Errorf("engine URI: %w", e)
	}
	switch u.Scheme {
	case "unix":
		return u.Scheme, u.Path, nil
	case "tcp", "tcp4", "tcp6":
		return u.Scheme, u.Host, nil
	}
	return "", "", fmt.Errorf("engine URI: unsupported scheme %q", u.Scheme)
}

func (cfg Config) timeout() time.Duration {
	return cfg.Timeout.DurationOr(defaultRPCTimeoutMilli)
}

// Client is a JSON-RPC 2.0 client of the engine.
// It implements Engine.
type Client struct {
	cfg  Config
	peer string

	mu    sync.Mutex
	rc    *jsonrpc2.Client
	state State
}

var _ Engine = (*Client)(nil)

// Dial connects to the engine.
func Dial(cfg Config) (*Client, error) {
	network, address, e := cfg.Endpoint()
	if e != nil {
		return nil, e
	}

	conn, e := net.DialTimeout(network, address, cfg.timeout())
	if e != nil {
		return nil, &ConnError{Op: "dial", Err: e}
	}

	c := &Client{
		cfg:   cfg,
		peer:  address,
		rc:    jsonrpc2.NewClient(conn),
		state: StateConnected,
	}
	logger.Info("engine connected", zap.String("network", network), zap.String("peer", address))
	return c, nil
}

// Peer returns the engine address.
func (c *Client) Peer() string {
	return c.peer
}

// State returns connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close disconnects from the engine.
// It is safe to call Close on a broken or already closed connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rc == nil {
		return nil
	}
	e := c.rc.Close()
	if errors.Is(e, rpc.ErrShutdown) {
		e = nil
	}
	c.rc, c.state = nil, StateDisconnected
	logger.Info("engine disconnected", zap.String("peer", c.peer), zap.Error(e))
	return e
}

func (c *Client) markBroken(e error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConnected {
		c.state = StateBroken
		logger.Warn("engine connection broken", zap.String("peer", c.peer), zap.Error(e))
	}
}

func (c *Client) call(ctx context.Context, method string, args, reply any) error {
	c.mu.Lock()
	rc, state := c.rc, c.state
	c.mu.Unlock()
	if rc == nil {
		return ErrDisconnected
	}
	if state == StateBroken {
		return &ConnError{Op: method, Err: errors.New("connection is broken")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout())
	defer cancel()

	call := rc.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		e := &ConnError{Op: method, Err: ctx.Err()}
		c.markBroken(e)
		return e
	case <-call.Done:
	}

	switch err := call.Error; {
	case err == nil:
		return nil
	case errors.Is(err, rpc.ErrShutdown), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
	default:
		var se rpc.ServerError
		if errors.As(err, &se) {
			return FromRPCError(jsonrpc2.ServerError(err))
		}
	}
	e := &ConnError{Op: method, Err: call.Error}
	c.markBroken(e)
	return e
}

// PauseAll implements Engine.
func (c *Client) PauseAll(ctx context.Context) error {
	return c.call(ctx, MethodPauseAll, struct{}{}, nil)
}

// ResumeAll implements Engine.
func (c *Client) ResumeAll(ctx context.Context) error {
	return c.call(ctx, MethodResumeAll, struct{}{}, nil)
}

// GetPortStats implements Engine.
func (c *Client) GetPortStats(ctx context.Context, port string) (st PortStats, e error) {
	e = c.call(ctx, MethodGetPortStats, PortArg{Port: port}, &st)
	return
}

// GetRTT implements Engine.
func (c *Client) GetRTT(ctx context.Context, port string) (rtt RttSample, e error) {
	e = c.call(ctx, MethodGetRtt, PortArg{Port: port}, &rtt)
	return
}

// UpdateRateLimiter implements Engine.
func (c *Client) UpdateRateLimiter(ctx context.Context, tc TrafficClass, resource Resource, limit uint64) error {
	return c.call(ctx, MethodUpdateTc, UpdateTcArgs{
		Name:     tc,
		Resource: resource,
		Limit:    map[Resource]uint64{resource: limit},
	}, nil)
}

// UpdateModule implements Engine.
func (c *Client) UpdateModule(ctx context.Context, module ModuleHandle, pps float64) error {
	return c.call(ctx, MethodUpdateModule, UpdateModuleArgs{
		Name: module,
		Arg:  map[string]float64{updateModuleArgPps: pps},
	}, nil)
}
