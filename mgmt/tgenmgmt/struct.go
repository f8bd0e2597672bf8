package tgenmgmt

import (
	"github.com/usnistgov/tgenctl/app/tgen"
	"github.com/usnistgov/tgenctl/app/tgen/tgspec"
	"github.com/usnistgov/tgenctl/core/nnduration"
)

// PortArg identifies a session.
type PortArg struct {
	Port string `json:"port"`
}

// StartArgs contains arguments of Session.Start.
type StartArgs struct {
	Port string                `json:"port"`
	Spec tgspec.Wrapper        `json:"spec"`
	Tx   map[int]tgen.Pipeline `json:"tx"`
	Rx   map[int]tgen.Pipeline `json:"rx,omitempty"`
}

// ResetReply is the reply of Session.Reset.
type ResetReply struct {
	Removed int `json:"removed"`
}

// ConnectArgs contains arguments of Engine.Connect.
// Zero fields take values from EngineMgmt.Config.
type ConnectArgs struct {
	URI     string                  `json:"uri,omitempty"`
	Timeout nnduration.Milliseconds `json:"timeout,omitempty"`
}
