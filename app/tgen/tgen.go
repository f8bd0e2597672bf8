// Package tgen adjusts transmission rates of traffic generator sessions.
//
// A Controller runs a background loop that periodically samples every session registered in a Registry,
// and republishes rate limits to the engine within a single pause/resume bracket.
package tgen

import (
	"errors"

	"github.com/usnistgov/tgenctl/core/logging"
)

var logger = logging.New("tgen")

// AdjustFactor is the multiplicative growth applied to the target rate when observed rate exceeds the loss threshold.
const AdjustFactor = 1.1

// Error conditions.
var (
	ErrNoPort         = errors.New("port is empty")
	ErrNoSpec         = errors.New("spec is missing")
	ErrNoTxPipeline   = errors.New("session needs at least one TX pipeline")
	ErrPipelineModule = errors.New("pipeline without traffic class needs at least one module")
	ErrPortRunning    = errors.New("port is already running")
	ErrPortNotRunning = errors.New("port is not running")
	ErrLaunched       = errors.New("controller already launched")
	ErrConnected      = errors.New("engine already connected")
)

// Mode indicates how a session is controlled.
type Mode string

// Mode values.
const (
	// ModeThroughput sessions have their transmission rate sampled and adjusted.
	ModeThroughput Mode = "throughput"
	// ModeLatency sessions have their round-trip time sampled, and their rate is never adjusted.
	ModeLatency Mode = "latency"
)
