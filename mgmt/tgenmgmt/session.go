// Package tgenmgmt exposes traffic generator sessions and engine connection in the management API.
package tgenmgmt

import (
	"context"
	"errors"

	"github.com/powerman/rpc-codec/jsonrpc2"
	"github.com/usnistgov/tgenctl/app/tgen"
	"github.com/usnistgov/tgenctl/engine"
)

// Error codes of management errors other than engine errors.
const (
	CodeNotRunning = -32001
	CodeRunning    = -32002
	CodeConn       = -32003
	CodeInvalid    = -32602
)

// toRPCError relays engine API errors with their code and details, and classifies other errors.
func toRPCError(e error) error {
	if e == nil {
		return nil
	}

	var ae *engine.APIError
	switch {
	case errors.As(e, &ae) && engine.IsAPIError(e):
		re := ae.RPCError()
		re.Message = e.Error()
		return re
	case errors.Is(e, tgen.ErrPortNotRunning):
		return jsonrpc2.NewError(CodeNotRunning, e.Error())
	case errors.Is(e, tgen.ErrPortRunning):
		return jsonrpc2.NewError(CodeRunning, e.Error())
	case engine.IsConnError(e):
		return jsonrpc2.NewError(CodeConn, e.Error())
	}
	return jsonrpc2.NewError(CodeInvalid, e.Error())
}

// SessionMgmt serves the Session.* methods.
type SessionMgmt struct {
	App *tgen.App
}

// List returns every session.
func (mg SessionMgmt) List(args struct{}, reply *[]tgen.SessionInfo) error {
	list := mg.App.Registry().Snapshot()
	if list == nil {
		list = []tgen.SessionInfo{}
	}
	*reply = list
	return nil
}

// Get returns a session.
func (mg SessionMgmt) Get(args PortArg, reply *tgen.SessionInfo) error {
	info, ok := mg.App.Registry().Info(args.Port)
	if !ok {
		return toRPCError(tgen.ErrPortNotRunning)
	}
	*reply = info
	return nil
}

// Start creates a session.
func (mg SessionMgmt) Start(args StartArgs, reply *tgen.SessionInfo) (e error) {
	if args.Spec.Spec == nil {
		return toRPCError(tgen.ErrNoSpec)
	}
	*reply, e = mg.App.StartSession(context.Background(), args.Port, args.Spec.Spec, args.Tx, args.Rx)
	return toRPCError(e)
}

// Stop removes a session.
func (mg SessionMgmt) Stop(args PortArg, reply *tgen.SessionInfo) (e error) {
	*reply, e = mg.App.StopSession(args.Port)
	return toRPCError(e)
}

// Reset removes every session.
func (mg SessionMgmt) Reset(args struct{}, reply *ResetReply) error {
	reply.Removed = mg.App.Reset()
	return nil
}
