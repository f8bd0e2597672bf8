package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/usnistgov/tgenctl/app/tgen"
	"github.com/usnistgov/tgenctl/app/tgen/tgmetrics"
	"github.com/usnistgov/tgenctl/app/tgen/tgreport"
	"github.com/usnistgov/tgenctl/engine"
	"github.com/usnistgov/tgenctl/mgmt"
	"github.com/usnistgov/tgenctl/mgmt/logmgmt"
	"github.com/usnistgov/tgenctl/mgmt/tgenmgmt"
	"github.com/usnistgov/tgenctl/mgmt/versionmgmt"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// service holds every component of the daemon.
type service struct {
	cfg svcConfig

	App       *tgen.App
	Registry  *prometheus.Registry
	Metrics   *tgmetrics.Collector
	Publisher *tgreport.Publisher
	Mgmt      *mgmt.Server
	HTTP      *http.Server
	HTTPErr   chan error
}

func newService(cfg svcConfig) (svc *service, e error) {
	svc = &service{
		cfg:      cfg,
		App:      tgen.NewApp(cfg.Controller),
		Registry: prometheus.NewRegistry(),
		Mgmt:     mgmt.New(),
		HTTPErr:  make(chan error, 1),
	}

	e = multierr.Combine(
		svc.Registry.Register(collectors.NewGoCollector()),
		svc.Registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
	)
	if e != nil {
		return nil, e
	}
	if svc.Metrics, e = tgmetrics.New(svc.Registry); e != nil {
		return nil, e
	}
	svc.Metrics.Subscribe(svc.App)

	if cfg.NATS != nil {
		if svc.Publisher, e = tgreport.Connect(*cfg.NATS); e != nil {
			svc.Metrics.Close()
			return nil, e
		}
		svc.Publisher.Subscribe(svc.App)
	}

	e = multierr.Combine(
		svc.Mgmt.Register(versionmgmt.VersionMgmt{}),
		svc.Mgmt.Register(logmgmt.LogMgmt{}),
		svc.Mgmt.Register(tgenmgmt.SessionMgmt{App: svc.App}),
		svc.Mgmt.Register(tgenmgmt.EngineMgmt{App: svc.App, Config: cfg.Engine}),
	)
	if e != nil {
		svc.Close()
		return nil, e
	}
	return svc, nil
}

// Start starts listeners, and connects to the engine if requested.
func (svc *service) Start() error {
	if svc.cfg.Mgmt != "0" {
		if e := svc.Mgmt.Start(svc.cfg.Mgmt); e != nil {
			return e
		}
	}

	if svc.cfg.Metrics != "" {
		svc.HTTP = &http.Server{
			Addr:              svc.cfg.Metrics,
			Handler:           svc.router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server starting", zap.String("listen", svc.cfg.Metrics))
			if e := svc.HTTP.ListenAndServe(); e != nil && !errors.Is(e, http.ErrServerClosed) {
				svc.HTTPErr <- e
			}
		}()
	}

	if svc.cfg.Connect {
		if e := svc.App.Connect(svc.cfg.Engine); e != nil {
			logger.Warn("engine connect error, use Engine.Connect to retry", zap.Error(e))
		}
	}
	return nil
}

func (svc *service) router() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", svc.healthz).Methods(http.MethodGet)
	r.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Add("Content-Type", "text/plain")
		w.Write([]byte("User-Agent: *\nDisallow: /\n"))
	})
	return r
}

// healthz reports engine and controller state.
// Status is 503 unless the engine is connected and the controller is running.
func (svc *service) healthz(w http.ResponseWriter, _ *http.Request) {
	info := svc.App.EngineInfo()
	status := http.StatusOK
	if info.State != engine.StateConnected || info.Controller != tgen.StateRunning {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(info)
}

// Close stops every component.
func (svc *service) Close() (e error) {
	if svc.HTTP != nil {
		e = multierr.Append(e, svc.HTTP.Close())
	}
	e = multierr.Append(e, svc.Mgmt.Stop())
	e = multierr.Append(e, svc.App.Close())
	if svc.Publisher != nil {
		e = multierr.Append(e, svc.Publisher.Close())
	}
	return multierr.Append(e, svc.Metrics.Close())
}
