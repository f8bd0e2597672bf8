package enginemock

import (
	"context"
	"errors"
	"net"
	"net/rpc"

	"github.com/powerman/rpc-codec/jsonrpc2"
	"github.com/usnistgov/tgenctl/engine"
)

// Service exposes an engine.Engine as JSON-RPC 2.0 methods.
type Service struct {
	Engine engine.Engine
}

func (svc Service) wrap(e error) error {
	var ae *engine.APIError
	if errors.As(e, &ae) {
		return ae.RPCError()
	}
	return e
}

// PauseAll serves engine.MethodPauseAll.
func (svc Service) PauseAll(args struct{}, reply *struct{}) error {
	return svc.wrap(svc.Engine.PauseAll(context.Background()))
}

// ResumeAll serves engine.MethodResumeAll.
func (svc Service) ResumeAll(args struct{}, reply *struct{}) error {
	return svc.wrap(svc.Engine.ResumeAll(context.Background()))
}

// GetPortStats serves engine.MethodGetPortStats.
func (svc Service) GetPortStats(args engine.PortArg, reply *engine.PortStats) (e error) {
	*reply, e = svc.Engine.GetPortStats(context.Background(), args.Port)
	return svc.wrap(e)
}

// GetRtt serves engine.MethodGetRtt.
func (svc Service) GetRtt(args engine.PortArg, reply *engine.RttSample) (e error) {
	*reply, e = svc.Engine.GetRTT(context.Background(), args.Port)
	return svc.wrap(e)
}

// UpdateTc serves engine.MethodUpdateTc.
func (svc Service) UpdateTc(args engine.UpdateTcArgs, reply *struct{}) error {
	return svc.wrap(svc.Engine.UpdateRateLimiter(context.Background(), args.Name, args.Resource, args.Limit[args.Resource]))
}

// UpdateModule serves engine.MethodUpdateModule.
func (svc Service) UpdateModule(args engine.UpdateModuleArgs, reply *struct{}) error {
	return svc.wrap(svc.Engine.UpdateModule(context.Background(), args.Name, args.Pps()))
}

// Serve accepts connections on listener and serves JSON-RPC 2.0 requests until listener is closed.
func (svc Service) Serve(listener net.Listener) error {
	server := rpc.NewServer()
	if e := server.RegisterName(engine.ServiceName, svc); e != nil {
		return e
	}
	for {
		conn, e := listener.Accept()
		if e != nil {
			if errors.Is(e, net.ErrClosed) {
				return nil
			}
			return e
		}
		go server.ServeCodec(jsonrpc2.NewServerCodec(conn, server))
	}
}
