package tgenmgmt

import (
	"github.com/usnistgov/tgenctl/app/tgen"
	"github.com/usnistgov/tgenctl/engine"
)

// EngineMgmt serves the Engine.* methods.
type EngineMgmt struct {
	App *tgen.App
	// Config is the default engine connection configuration.
	Config engine.Config
}

// State returns engine connection and controller state.
func (mg EngineMgmt) State(args struct{}, reply *tgen.EngineInfo) error {
	*reply = mg.App.EngineInfo()
	return nil
}

// Connect connects to the engine and launches a controller.
func (mg EngineMgmt) Connect(args ConnectArgs, reply *tgen.EngineInfo) error {
	cfg := mg.Config
	if args.URI != "" {
		cfg.URI = args.URI
	}
	if args.Timeout != 0 {
		cfg.Timeout = args.Timeout
	}

	if e := mg.App.Connect(cfg); e != nil {
		return toRPCError(e)
	}
	*reply = mg.App.EngineInfo()
	return nil
}

// Disconnect stops the controller and closes the engine connection.
func (mg EngineMgmt) Disconnect(args struct{}, reply *tgen.EngineInfo) error {
	e := mg.App.Disconnect()
	*reply = mg.App.EngineInfo()
	return toRPCError(e)
}
