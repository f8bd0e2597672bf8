// Command tgenctl-svc runs the adaptive rate controller service.
package main

import (
	"bytes"
	"os"
	"os/signal"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/urfave/cli/v2"
	"github.com/usnistgov/tgenctl/app/tgen"
	"github.com/usnistgov/tgenctl/core/logging"
	"github.com/usnistgov/tgenctl/core/version"
	"github.com/usnistgov/tgenctl/core/yamlflag"
	"github.com/usnistgov/tgenctl/engine"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var logger = logging.New("main")

var cfg svcConfig

var app = &cli.App{
	Version: version.V.String(),
	Usage:   "Provide adaptive rate control service.",
	Flags: []cli.Flag{
		&cli.GenericFlag{
			Name:  "config",
			Usage: "service configuration (YAML document or @file.yaml)",
			Value: yamlflag.New(&cfg),
		},
		&cli.StringFlag{
			Name:        "mgmt",
			Usage:       "management listen `URI`, 0 disables",
			EnvVars:     []string{"TGENCTL_MGMT"},
			Destination: &cfg.Mgmt,
		},
		&cli.StringFlag{
			Name:        "engine",
			Usage:       "engine `URI`",
			Destination: &cfg.Engine.URI,
		},
		&cli.BoolFlag{
			Name:        "connect",
			Usage:       "connect to the engine at startup",
			Destination: &cfg.Connect,
		},
		&cli.StringFlag{
			Name:        "metrics",
			Usage:       "HTTP listen `address` of metrics and health endpoints",
			Destination: &cfg.Metrics,
		},
	},
	Action: func(c *cli.Context) error {
		cfg.applyDefaults()
		if e := cfg.Validate(); e != nil {
			return cli.Exit(e, 1)
		}

		svc, e := newService(cfg)
		if e != nil {
			return cli.Exit(e, 1)
		}

		svc.App.On(tgen.EventFatal, func(e error) {
			if engine.IsConnError(e) {
				return
			}
			logger.Fatal("controller failure", zap.Error(e))
		})

		if e := svc.Start(); e != nil {
			svc.Close()
			return cli.Exit(e, 1)
		}
		go systemdNotify()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, unix.SIGINT, unix.SIGTERM)
		select {
		case sig := <-sigs:
			logger.Info("shutdown requested by signal", zap.Stringer("signal", sig))
		case e := <-svc.HTTPErr:
			logger.Error("HTTP server error", zap.Error(e))
			svc.Close()
			return cli.Exit(e, 1)
		}

		daemon.SdNotify(false, daemon.SdNotifyStopping)
		if e := svc.Close(); e != nil {
			logger.Warn("shutdown error", zap.Error(e))
		}
		return nil
	},
}

func main() {
	var uname unix.Utsname
	unix.Uname(&uname)
	logger.Info("tgenctl service starting",
		zap.Any("version", version.V),
		zap.Int("uid", os.Getuid()),
		zap.ByteString("linux", bytes.TrimRight(uname.Release[:], string([]byte{0}))),
	)

	app.Run(os.Args)
}

func systemdNotify() {
	daemon.SdNotify(false, daemon.SdNotifyReady)

	d, e := daemon.SdWatchdogEnabled(false)
	if d == 0 || e != nil {
		logger.Debug("systemd watchdog not configured", zap.Error(e))
		return
	}

	d /= 2
	logger.Debug("systemd watchdog enabled", zap.Duration("duration", d))
	for range time.Tick(d) {
		daemon.SdNotify(false, daemon.SdNotifyWatchdog)
	}
}
