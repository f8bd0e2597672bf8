package main

import (
	"errors"
	"net"
	"os"

	"github.com/usnistgov/tgenctl/app/tgen"
	"github.com/usnistgov/tgenctl/app/tgen/tgreport"
	"github.com/usnistgov/tgenctl/engine"
	"github.com/usnistgov/tgenctl/mgmt"
)

// ErrMetricsListen indicates an invalid metrics listen address.
var ErrMetricsListen = errors.New("metrics listen address must be host:port")

// svcConfig contains daemon configuration, given as a YAML document in --config flag.
type svcConfig struct {
	// Mgmt is the management listen URI.
	// Default comes from TGENCTL_MGMT environment variable, then mgmt.DefaultURI.
	// "0" disables the management server.
	Mgmt string `yaml:"mgmt,omitempty"`

	// Engine is the default engine connection configuration, also used by Engine.Connect without arguments.
	Engine engine.Config `yaml:"engine,omitempty"`

	// Connect indicates connecting to the engine at startup.
	Connect bool `yaml:"connect,omitempty"`

	// Controller contains controller loop settings.
	Controller tgen.Config `yaml:"controller,omitempty"`

	// Metrics is the HTTP listen address of /metrics and /healthz.
	// Empty disables the HTTP server.
	Metrics string `yaml:"metrics,omitempty"`

	// NATS enables publishing tick reports to a NATS server.
	NATS *tgreport.Config `yaml:"nats,omitempty"`
}

func (cfg *svcConfig) applyDefaults() {
	if cfg.Mgmt == "" {
		cfg.Mgmt = os.Getenv("TGENCTL_MGMT")
	}
	if cfg.Mgmt == "" {
		cfg.Mgmt = mgmt.DefaultURI
	}
	if cfg.NATS != nil {
		cfg.NATS.ApplyDefaults()
	}
}

func (cfg svcConfig) Validate() error {
	if cfg.Mgmt != "0" {
		if _, _, e := mgmt.ParseURI(cfg.Mgmt); e != nil {
			return e
		}
	}
	if cfg.Metrics != "" {
		if _, _, e := net.SplitHostPort(cfg.Metrics); e != nil {
			return ErrMetricsListen
		}
	}
	return nil
}
