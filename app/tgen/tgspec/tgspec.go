// Package tgspec describes traffic workloads of a traffic generator session.
package tgspec

import (
	"errors"
	"fmt"
)

// Kind identifies a Spec variant.
type Kind string

// Spec variants.
const (
	KindGeneric Kind = "generic"
	KindUDP     Kind = "udp"
	KindHTTP    Kind = "http"
	KindFlowGen Kind = "flowgen"
)

// Error conditions.
var (
	ErrLossRate   = errors.New("lossRate must be in [0,1)")
	ErrPps        = errors.New("pps must be positive")
	ErrLatencyPps = errors.New("latency mode cannot have pps target")
	ErrNoCores    = errors.New("cores must not be empty")
	ErrCoreIndex  = errors.New("core index cannot be negative")
)

// Spec describes the traffic workload of a session.
//
// Implementations embed Common. The set of implementations is closed: *Generic, *UDP, *HTTP, *FlowGen.
type Spec interface {
	GetKind() Kind
	GetCommon() Common

	// Validate checks whether fields are correct.
	Validate() error

	common() *Common
	applyDefaults()
}

// Common contains attributes shared by every Spec variant.
type Common struct {
	Kind Kind `json:"kind"`

	// LossRate is the target loss rate, a fraction in [0,1).
	// Rate adjustment requires both LossRate and Pps.
	LossRate *float64 `json:"lossRate,omitempty"`

	// Latency selects latency probing mode, in which the session reports round-trip time and its rate is never adjusted.
	Latency bool `json:"latency,omitempty"`

	// Pps is the initial target transmission rate in packets per second.
	Pps *float64 `json:"pps,omitempty"`

	// Cores lists cores requested for the session. TX pipeline keys decide where the rate is applied.
	// Default is core 0.
	Cores Cores `json:"cores,omitempty"`
}

// GetKind returns the variant kind.
func (c Common) GetKind() Kind {
	return c.Kind
}

// GetCommon returns a copy of the shared attributes.
func (c Common) GetCommon() Common {
	return c
}

func (c *Common) common() *Common {
	return c
}

func (c *Common) applyDefaults() {
	if c.Cores == nil {
		c.Cores = Cores{0}
	}
}

// IsAdjustable determines whether the session should have its transmission rate adjusted.
func (c Common) IsAdjustable() bool {
	return !c.Latency && c.LossRate != nil && c.Pps != nil
}

// InitialRate returns the initial target rate, or zero if there is no pps target.
func (c Common) InitialRate() float64 {
	if c.Pps == nil {
		return 0
	}
	return *c.Pps
}

// Validate checks whether shared attributes are correct.
func (c Common) Validate() error {
	if c.LossRate != nil && !(*c.LossRate >= 0 && *c.LossRate < 1) {
		return ErrLossRate
	}
	if c.Pps != nil {
		if !(*c.Pps > 0) {
			return ErrPps
		}
		if c.Latency {
			return ErrLatencyPps
		}
	}
	if len(c.Cores) == 0 {
		return ErrNoCores
	}
	for _, core := range c.Cores {
		if core < 0 {
			return fmt.Errorf("%w (%d)", ErrCoreIndex, core)
		}
	}
	return nil
}
