package tgspec

import (
	"fmt"

	"github.com/pkg/math"
	"github.com/usnistgov/tgenctl/core/nnduration"
	"go.uber.org/multierr"
	"inet.af/netaddr"
)

// MinPktSize is the minimum packet size, an Ethernet frame excluding FCS.
const MinPktSize = 60

// Generic is a workload without variant-specific parameters.
type Generic struct {
	Common
}

// Validate implements Spec.
func (spec Generic) Validate() error {
	return spec.Common.Validate()
}

// UDP is a UDP workload.
type UDP struct {
	Common
	PktSize  int  `json:"pktSize,omitempty"`  // packet size, minimum/default is 60
	NumFlows int  `json:"numFlows,omitempty"` // number of flows, minimum/default is 1
	Imix     bool `json:"imix,omitempty"`     // use IMIX packet size distribution
}

func (spec *UDP) applyDefaults() {
	spec.Common.applyDefaults()
	spec.PktSize = math.MaxInt(MinPktSize, spec.PktSize)
	spec.NumFlows = math.MaxInt(1, spec.NumFlows)
}

// Validate implements Spec.
func (spec UDP) Validate() error {
	return spec.Common.Validate()
}

// HTTP is an HTTP-like TCP workload.
type HTTP struct {
	Common
	NumFlows int        `json:"numFlows,omitempty"` // default is 4000
	SrcMAC   MAC        `json:"srcMac"`
	DstMAC   MAC        `json:"dstMac"`
	SrcIP    netaddr.IP `json:"srcIp"`
	DstIP    netaddr.IP `json:"dstIp"`
	SrcPort  uint16     `json:"srcPort,omitempty"` // default is 1001
}

// HTTP defaults.
var (
	DefaultHTTPSrcMAC = mustParseMAC("02:1e:67:9f:4d:aa")
	DefaultHTTPDstMAC = mustParseMAC("02:1e:67:9f:4d:bb")
	DefaultHTTPSrcIP  = netaddr.MustParseIP("192.168.0.1")
	DefaultHTTPDstIP  = netaddr.MustParseIP("10.0.0.1")
)

func (spec *HTTP) applyDefaults() {
	spec.Common.applyDefaults()
	if spec.NumFlows <= 0 {
		spec.NumFlows = 4000
	}
	if spec.SrcMAC.IsZero() {
		spec.SrcMAC = DefaultHTTPSrcMAC
	}
	if spec.DstMAC.IsZero() {
		spec.DstMAC = DefaultHTTPDstMAC
	}
	if spec.SrcIP.IsZero() {
		spec.SrcIP = DefaultHTTPSrcIP
	}
	if spec.DstIP.IsZero() {
		spec.DstIP = DefaultHTTPDstIP
	}
	if spec.SrcPort == 0 {
		spec.SrcPort = 1001
	}
}

// Validate implements Spec.
func (spec HTTP) Validate() (e error) {
	e = spec.Common.Validate()
	if !spec.SrcMAC.IsUnicast() {
		e = multierr.Append(e, fmt.Errorf("srcMac %s is not unicast", spec.SrcMAC))
	}
	if !spec.DstMAC.IsUnicast() {
		e = multierr.Append(e, fmt.Errorf("dstMac %s is not unicast", spec.DstMAC))
	}
	if !spec.SrcIP.Is4() || !spec.DstIP.Is4() {
		e = multierr.Append(e, fmt.Errorf("srcIp %s and dstIp %s must be IPv4", spec.SrcIP, spec.DstIP))
	}
	return e
}

// Distribution is a random distribution of flow arrival or duration.
type Distribution string

// Distribution values.
const (
	DistUniform     Distribution = "uniform"
	DistExponential Distribution = "exponential"
	DistPareto      Distribution = "pareto"
)

// Valid determines whether d is a known distribution.
func (d Distribution) Valid() bool {
	switch d {
	case DistUniform, DistExponential, DistPareto:
		return true
	}
	return false
}

// FlowGen is a flow generator workload.
type FlowGen struct {
	Common
	PktSize      int                     `json:"pktSize,omitempty"`      // packet size, minimum/default is 60
	NumFlows     int                     `json:"numFlows,omitempty"`     // number of concurrent flows, default is 10
	FlowDuration nnduration.Milliseconds `json:"flowDuration,omitempty"` // default is 1s
	FlowRate     *float64                `json:"flowRate,omitempty"`     // new flows per second, derived by generator if omitted
	Arrival      Distribution            `json:"arrival,omitempty"`      // default is uniform
	Duration     Distribution            `json:"duration,omitempty"`     // default is uniform
}

func (spec *FlowGen) applyDefaults() {
	spec.Common.applyDefaults()
	spec.PktSize = math.MaxInt(MinPktSize, spec.PktSize)
	if spec.NumFlows <= 0 {
		spec.NumFlows = 10
	}
	if spec.FlowDuration == 0 {
		spec.FlowDuration = 1000
	}
	if spec.Arrival == "" {
		spec.Arrival = DistUniform
	}
	if spec.Duration == "" {
		spec.Duration = DistUniform
	}
}

// Validate implements Spec.
func (spec FlowGen) Validate() (e error) {
	e = spec.Common.Validate()
	if !spec.Arrival.Valid() {
		e = multierr.Append(e, fmt.Errorf("unknown arrival distribution %q", spec.Arrival))
	}
	if !spec.Duration.Valid() {
		e = multierr.Append(e, fmt.Errorf("unknown duration distribution %q", spec.Duration))
	}
	if spec.FlowRate != nil && !(*spec.FlowRate > 0) {
		e = multierr.Append(e, fmt.Errorf("flowRate must be positive"))
	}
	return e
}
