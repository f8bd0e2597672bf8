// Package tgmetrics exports controller tick reports as Prometheus metrics.
package tgmetrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/usnistgov/tgenctl/app/tgen"
	"go.uber.org/multierr"
)

const namespace = "tgenctl"

// EventSource is a source of controller events, such as *tgen.App.
type EventSource interface {
	On(event string, listener any) io.Closer
}

// Collector holds controller metrics.
type Collector struct {
	ticks     prometheus.Counter
	apiErrors prometheus.Counter
	fatal     prometheus.Counter
	sessions  prometheus.Gauge
	target    *prometheus.GaugeVec
	observed  *prometheus.GaugeVec
	rtt       *prometheus.GaugeVec
	adjusted  *prometheus.CounterVec
	cancels   []io.Closer
}

// New creates a Collector and registers its metrics.
func New(reg prometheus.Registerer) (c *Collector, e error) {
	c = &Collector{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Count of completed controller ticks.",
		}),
		apiErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_api_errors_total",
			Help:      "Count of engine API errors contained by the controller.",
		}),
		fatal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controller_fatal_total",
			Help:      "Count of controller loops stopped by an error.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Number of sessions seen in the last tick.",
		}),
		target: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_rate_pps",
			Help:      "Target transmission rate of a session.",
		}, []string{"port"}),
		observed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observed_rate_pps",
			Help:      "Observed incoming rate of a throughput session.",
		}, []string{"port"}),
		rtt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rtt_seconds",
			Help:      "Round-trip time of a latency session.",
		}, []string{"port", "stat"}),
		adjusted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjustments_total",
			Help:      "Count of rate adjustments of a session.",
		}, []string{"port"}),
	}

	for _, m := range []prometheus.Collector{c.ticks, c.apiErrors, c.fatal, c.sessions, c.target, c.observed, c.rtt, c.adjusted} {
		e = multierr.Append(e, reg.Register(m))
	}
	if e != nil {
		return nil, e
	}
	return c, nil
}

// Subscribe updates metrics upon controller events from src.
func (c *Collector) Subscribe(src EventSource) {
	c.cancels = append(c.cancels,
		src.On(tgen.EventTick, func(rpt tgen.TickReport) { c.Observe(rpt) }),
		src.On(tgen.EventFatal, func(error) { c.fatal.Inc() }),
	)
}

// Observe updates metrics from a tick report.
// Per-session gauges are reset, so that removed sessions disappear.
func (c *Collector) Observe(rpt tgen.TickReport) {
	c.ticks.Inc()
	c.apiErrors.Add(float64(rpt.APIErrors))
	c.sessions.Set(float64(len(rpt.Sessions)))

	c.target.Reset()
	c.observed.Reset()
	c.rtt.Reset()
	for _, sr := range rpt.Sessions {
		switch sr.Mode {
		case tgen.ModeThroughput:
			c.target.WithLabelValues(sr.Port).Set(sr.TargetRate)
			c.observed.WithLabelValues(sr.Port).Set(sr.ObservedRate)
		case tgen.ModeLatency:
			c.rtt.WithLabelValues(sr.Port, "min").Set(sr.RTT.Min.Duration().Seconds())
			c.rtt.WithLabelValues(sr.Port, "mean").Set(sr.RTT.Mean.Duration().Seconds())
			c.rtt.WithLabelValues(sr.Port, "max").Set(sr.RTT.Max.Duration().Seconds())
		}
		if sr.Adjusted {
			c.adjusted.WithLabelValues(sr.Port).Inc()
		}
	}
}

// Close cancels event subscriptions.
func (c *Collector) Close() (e error) {
	for _, cancel := range c.cancels {
		e = multierr.Append(e, cancel.Close())
	}
	c.cancels = nil
	return e
}

