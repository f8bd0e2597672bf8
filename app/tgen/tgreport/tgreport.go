// Package tgreport publishes controller tick reports to NATS.
package tgreport

import (
	"encoding/json"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/usnistgov/tgenctl/app/tgen"
	"github.com/usnistgov/tgenctl/core/logging"
	"github.com/usnistgov/tgenctl/core/nnduration"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var logger = logging.New("tgreport")

// DefaultSubject is the default NATS subject of tick reports.
const DefaultSubject = "tgenctl.tick"

// Config contains Publisher configuration.
type Config struct {
	// URL is the NATS server URL.
	// Default is nats://127.0.0.1:4222.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Subject is the NATS subject of tick reports.
	// Default is "tgenctl.tick".
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`

	// ConnectTimeout is the dial timeout.
	// Default is 2s.
	ConnectTimeout nnduration.Milliseconds `json:"connectTimeout,omitempty" yaml:"connectTimeout,omitempty"`
}

// ApplyDefaults replaces zero fields with defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
}

// EventSource is a source of controller events, such as *tgen.App.
type EventSource interface {
	On(event string, listener any) io.Closer
}

// Encode serializes a tick report as a message payload.
func Encode(rpt tgen.TickReport) ([]byte, error) {
	return json.Marshal(rpt)
}

// Publisher publishes tick reports to NATS.
type Publisher struct {
	nc      *nats.Conn
	subject string
	cancels []io.Closer
}

// Connect connects to the NATS server.
func Connect(cfg Config) (*Publisher, error) {
	cfg.ApplyDefaults()
	nc, e := nats.Connect(cfg.URL,
		nats.Name("tgenctl"),
		nats.Timeout(cfg.ConnectTimeout.DurationOr(2000)),
		nats.DisconnectErrHandler(func(nc *nats.Conn, e error) {
			logger.Warn("NATS disconnected", zap.Error(e))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if e != nil {
		return nil, e
	}
	logger.Info("NATS connected", zap.String("url", nc.ConnectedUrl()), zap.String("subject", cfg.Subject))
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish sends a tick report.
func (p *Publisher) Publish(rpt tgen.TickReport) error {
	data, e := Encode(rpt)
	if e != nil {
		return e
	}
	return p.nc.Publish(p.subject, data)
}

// Subscribe publishes every tick report emitted by src.
func (p *Publisher) Subscribe(src EventSource) {
	p.cancels = append(p.cancels, src.On(tgen.EventTick, func(rpt tgen.TickReport) {
		if e := p.Publish(rpt); e != nil {
			logger.Warn("publish error", zap.Uint64("seq", rpt.Seq), zap.Error(e))
		}
	}))
}

// Close cancels event subscriptions, then drains and closes the NATS connection.
func (p *Publisher) Close() (e error) {
	for _, cancel := range p.cancels {
		e = multierr.Append(e, cancel.Close())
	}
	p.cancels = nil
	return multierr.Append(e, p.nc.Drain())
}
