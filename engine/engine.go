// Package engine is the narrow RPC surface of the packet processing engine.
package engine

import (
	"context"
	"fmt"

	"github.com/usnistgov/tgenctl/core/logging"
	"github.com/usnistgov/tgenctl/core/nnduration"
)

var logger = logging.New("engine")

// ModuleHandle identifies a processing module instantiated in the engine.
type ModuleHandle string

// TrafficClass identifies a rate limiter (traffic class) in the engine.
type TrafficClass string

// Resource is the resource type limited by a traffic class.
type Resource string

// Resource types.
const (
	ResourcePacket Resource = "packet"
	ResourceBit    Resource = "bit"
)

// PortCounters contains packet counters in one direction.
type PortCounters struct {
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
	Dropped uint64 `json:"dropped"`
}

// PortStats is a snapshot of port statistics.
// Counters are non-decreasing while the port is active.
type PortStats struct {
	Inc PortCounters `json:"inc"`
	Out PortCounters `json:"out"`
}

func (st PortStats) String() string {
	return fmt.Sprintf("inc %dpkts %dB %ddrop, out %dpkts %dB %ddrop",
		st.Inc.Packets, st.Inc.Bytes, st.Inc.Dropped, st.Out.Packets, st.Out.Bytes, st.Out.Dropped)
}

// RttSample is a round-trip time measurement on a port.
type RttSample struct {
	Count uint64                 `json:"count"`
	Min   nnduration.Nanoseconds `json:"min"`
	Mean  nnduration.Nanoseconds `json:"mean"`
	Max   nnduration.Nanoseconds `json:"max"`
}

// Engine represents the RPC operations consumed from the engine.
//
// Implementations are not required to be safe for concurrent use; see Serial.
type Engine interface {
	// PauseAll suspends all packet processing in the engine.
	PauseAll(ctx context.Context) error

	// ResumeAll resumes packet processing suspended by PauseAll.
	ResumeAll(ctx context.Context) error

	// GetPortStats retrieves port statistics.
	GetPortStats(ctx context.Context, port string) (PortStats, error)

	// GetRTT retrieves a round-trip time sample on a port.
	GetRTT(ctx context.Context, port string) (RttSample, error)

	// UpdateRateLimiter changes the limit of a traffic class.
	UpdateRateLimiter(ctx context.Context, tc TrafficClass, resource Resource, limit uint64) error

	// UpdateModule changes the transmission rate parameter of a module.
	UpdateModule(ctx context.Context, module ModuleHandle, pps float64) error
}
