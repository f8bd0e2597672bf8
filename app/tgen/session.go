package tgen

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/usnistgov/tgenctl/app/tgen/tgspec"
	"github.com/usnistgov/tgenctl/core/runningstat"
	"github.com/usnistgov/tgenctl/core/subtract"
	"github.com/usnistgov/tgenctl/engine"
	"go.uber.org/zap"
)

// Session is a traffic generator session bound to an engine port.
//
// Port, spec, and pipelines are fixed at construction.
// Rolling state is mutated by the controller while holding the registry lock;
// methods reading or mutating rolling state require the caller to hold that lock or to own an unregistered Session.
type Session struct {
	port    string
	spec    tgspec.Spec
	attrs   tgspec.Common
	tx      map[int]Pipeline
	rx      map[int]Pipeline
	txCores []int

	nSamples     int
	lastStats    engine.PortStats
	currStats    engine.PortStats
	lastCheck    time.Time
	now          time.Time
	targetRate   float64
	observedRate float64
	lastRTT      engine.RttSample
	rtt          runningstat.RunningStat
}

// NewSession creates a Session.
// tx and rx map core index to pipeline; they are copied.
// Pipeline keys are authoritative: the rate is split across TX pipelines by key,
// and spec.Cores is not consulted to select or restrict them.
// now is the creation time, which becomes the reference of the first elapsed time computation.
func NewSession(port string, spec tgspec.Spec, tx, rx map[int]Pipeline, now time.Time) (*Session, error) {
	switch {
	case port == "":
		return nil, ErrNoPort
	case spec == nil:
		return nil, ErrNoSpec
	case len(tx) == 0:
		return nil, ErrNoTxPipeline
	}
	if e := spec.Validate(); e != nil {
		return nil, fmt.Errorf("spec: %w", e)
	}

	s := &Session{
		port:      port,
		spec:      spec,
		attrs:     spec.GetCommon(),
		tx:        map[int]Pipeline{},
		rx:        map[int]Pipeline{},
		lastCheck: now,
		now:       now,
	}
	s.targetRate = s.attrs.InitialRate()
	for core, p := range tx {
		if e := p.Validate(); e != nil {
			return nil, fmt.Errorf("tx[%d]: %w", core, e)
		}
		s.tx[core] = p.clone()
		s.txCores = append(s.txCores, core)
	}
	sort.Ints(s.txCores)
	for core, p := range rx {
		s.rx[core] = p.clone()
	}
	return s, nil
}

// Port returns the engine port.
func (s *Session) Port() string {
	return s.port
}

// Spec returns the traffic spec.
func (s *Session) Spec() tgspec.Spec {
	return s.spec
}

// Mode returns the control mode.
func (s *Session) Mode() Mode {
	if s.attrs.Latency {
		return ModeLatency
	}
	return ModeThroughput
}

// CoreCount returns the number of TX pipelines.
func (s *Session) CoreCount() int {
	return len(s.tx)
}

// TxPipeline returns the TX pipeline on a core.
func (s *Session) TxPipeline(core int) (p Pipeline, ok bool) {
	p, ok = s.tx[core]
	return p.clone(), ok
}

// RxPipeline returns the RX pipeline on a core.
func (s *Session) RxPipeline(core int) (p Pipeline, ok bool) {
	p, ok = s.rx[core]
	return p.clone(), ok
}

// TargetRate returns the current target rate in packets per second.
func (s *Session) TargetRate() float64 {
	return s.targetRate
}

// LastStats returns the sample preceding CurrStats.
// It equals CurrStats when only one sample has been taken.
func (s *Session) LastStats() engine.PortStats {
	return s.lastStats
}

// CurrStats returns the most recent sample.
func (s *Session) CurrStats() engine.PortStats {
	return s.currStats
}

// LastCheck returns the time of the sample preceding the most recent one.
func (s *Session) LastCheck() time.Time {
	return s.lastCheck
}

// Now returns the time of the most recent sample.
func (s *Session) Now() time.Time {
	return s.now
}

// UpdateStats retrieves port statistics and shifts the sample window.
func (s *Session) UpdateStats(ctx context.Context, eng engine.Engine, now time.Time) error {
	st, e := eng.GetPortStats(ctx, s.port)
	if e != nil {
		return e
	}

	if s.nSamples == 0 {
		s.lastStats, s.currStats = st, st
	} else {
		s.lastStats, s.currStats = s.currStats, st
	}
	s.nSamples++
	s.lastCheck, s.now = s.now, now
	return nil
}

// UpdateRTT retrieves a round-trip time sample.
func (s *Session) UpdateRTT(ctx context.Context, eng engine.Engine) error {
	rtt, e := eng.GetRTT(ctx, s.port)
	if e != nil {
		return e
	}

	s.lastRTT = rtt
	if rtt.Count > 0 {
		s.rtt.Push(float64(rtt.Mean))
	}
	return nil
}

// AdjustTxRate recomputes target rate from the two most recent samples and pushes it to every TX pipeline.
// It has no effect unless the session has both loss rate and pps targets and at least two samples have been taken.
func (s *Session) AdjustTxRate(ctx context.Context, eng engine.Engine) (adjusted bool, e error) {
	if !s.attrs.IsAdjustable() || s.nSamples < 2 {
		return false, nil
	}

	elapsed := s.now.Sub(s.lastCheck)
	if elapsed <= 0 {
		logger.Panic("elapsed time must be positive",
			zap.String("port", s.port),
			zap.Time("lastCheck", s.lastCheck),
			zap.Time("now", s.now),
		)
	}

	diff := subtract.Sub(s.currStats, s.lastStats)
	s.observedRate = float64(diff.Inc.Packets) / elapsed.Seconds()
	threshold := s.targetRate * (1 - *s.attrs.LossRate)
	switch {
	case s.observedRate < threshold:
		s.targetRate = (s.targetRate + s.observedRate) / 2
	case s.observedRate > threshold:
		s.targetRate *= AdjustFactor
	}

	logger.Debug("adjust",
		zap.String("port", s.port),
		zap.Float64("observed", s.observedRate),
		zap.Float64("threshold", threshold),
		zap.Float64("target", s.targetRate),
	)
	return true, s.PushRate(ctx, eng)
}

// PushRate sets every TX pipeline to an equal share of the target rate.
// Pipelines are visited in ascending core order; the first failure stops the iteration.
func (s *Session) PushRate(ctx context.Context, eng engine.Engine) error {
	perCore := s.targetRate / float64(len(s.txCores))
	for _, core := range s.txCores {
		if e := s.tx[core].SetRate(ctx, eng, perCore); e != nil {
			return fmt.Errorf("tx[%d]: %w", core, e)
		}
	}
	return nil
}

// SessionInfo is a snapshot of a Session.
type SessionInfo struct {
	Port         string               `json:"port"`
	Mode         Mode                 `json:"mode"`
	Spec         tgspec.Wrapper       `json:"spec"`
	Tx           map[int]Pipeline     `json:"tx"`
	Rx           map[int]Pipeline     `json:"rx,omitempty"`
	Samples      int                  `json:"samples"`
	TargetRate   float64              `json:"targetRate"`
	ObservedRate float64              `json:"observedRate"`
	LastStats    engine.PortStats     `json:"lastStats"`
	CurrStats    engine.PortStats     `json:"currStats"`
	LastCheck    time.Time            `json:"lastCheck"`
	Now          time.Time            `json:"now"`
	LastRTT      engine.RttSample     `json:"lastRtt"`
	RTT          runningstat.Snapshot `json:"rtt"`
}

// Info returns a snapshot of the Session.
func (s *Session) Info() (info SessionInfo) {
	info = SessionInfo{
		Port:         s.port,
		Mode:         s.Mode(),
		Spec:         tgspec.Wrapper{Spec: s.spec},
		Tx:           map[int]Pipeline{},
		Rx:           map[int]Pipeline{},
		Samples:      s.nSamples,
		TargetRate:   s.targetRate,
		ObservedRate: s.observedRate,
		LastStats:    s.lastStats,
		CurrStats:    s.currStats,
		LastCheck:    s.lastCheck,
		Now:          s.now,
		LastRTT:      s.lastRTT,
		RTT:          s.rtt.Read(),
	}
	for core, p := range s.tx {
		info.Tx[core] = p.clone()
	}
	for core, p := range s.rx {
		info.Rx[core] = p.clone()
	}
	return info
}
