// Package mgmt serves the management API as JSON-RPC 2.0 over a stream socket.
package mgmt

import (
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/url"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/powerman/rpc-codec/jsonrpc2"
	"github.com/usnistgov/tgenctl/core/logging"
	"go.uber.org/zap"
)

var logger = logging.New("mgmt")

// DefaultURI is the default listen endpoint.
const DefaultURI = "tcp://127.0.0.1:6345"

// ErrStarted indicates the server is already listening.
var ErrStarted = errors.New("already started")

// ParseURI parses unix:///path or tcp://host:port into network and address.
func ParseURI(uri string) (network, addr string, e error) {
	u, e := url.Parse(uri)
	if e != nil {
		return "", "", fmt.Errorf("management URI parse error %w", e)
	}

	switch u.Scheme {
	case "unix":
		return u.Scheme, u.Path, nil
	case "tcp", "tcp4", "tcp6":
		return u.Scheme, u.Host, nil
	}
	return "", "", fmt.Errorf("unsupported management URI scheme %s", u.Scheme)
}

// Server is a management server.
type Server struct {
	rpc *rpc.Server

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]bool
	wg       sync.WaitGroup
}

// New creates a Server.
func New() *Server {
	return &Server{
		rpc:   rpc.NewServer(),
		conns: map[net.Conn]bool{},
	}
}

// Register publishes methods of a management type.
// The service name is the type name with "Mgmt" suffix trimmed.
func (s *Server) Register(mg any) error {
	typeName := reflect.Indirect(reflect.ValueOf(mg)).Type().Name()
	name := strings.TrimSuffix(typeName, "Mgmt")
	return s.rpc.RegisterName(name, mg)
}

// Start listens on uri and serves requests in background goroutines.
func (s *Server) Start(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return ErrStarted
	}

	network, addr, e := ParseURI(uri)
	if e != nil {
		return e
	}
	if network == "unix" {
		os.Remove(addr)
	}

	if s.listener, e = net.Listen(network, addr); e != nil {
		return fmt.Errorf("cannot listen on %s %s: %w", network, addr, e)
	}
	logger.Info("management listening", zap.String("network", network), zap.Stringer("addr", s.listener.Addr()))

	s.wg.Add(1)
	go s.serve(s.listener)
	return nil
}

// Addr returns the listen address, or nil if not started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) serve(listener net.Listener) {
	defer s.wg.Done()
	for {
		conn, e := listener.Accept()
		if e != nil {
			if ne, ok := e.(net.Error); ok && ne.Timeout() {
				continue
			}
			if !errors.Is(e, net.ErrClosed) {
				logger.Error("accept error", zap.Error(e))
			}
			return
		}

		s.mu.Lock()
		if s.listener != listener {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = true
		s.wg.Add(1)
		s.mu.Unlock()
		go func() {
			defer s.wg.Done()
			s.rpc.ServeCodec(jsonrpc2.NewServerCodec(conn, s.rpc))
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
		}()
	}
}

// Stop closes the listener and every client connection, and waits for handlers to return.
func (s *Server) Stop() error {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	if listener == nil {
		s.mu.Unlock()
		return nil
	}
	e := listener.Close()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return e
}
