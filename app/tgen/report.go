package tgen

import (
	"time"

	"github.com/google/uuid"
	"github.com/usnistgov/tgenctl/engine"
)

// Event names emitted by Controller.
const (
	// EventTick is emitted after each successful tick, with a TickReport argument.
	EventTick = "tick"
	// EventFatal is emitted when the controller loop stops due to an error, with an error argument.
	EventFatal = "fatal"
)

// TickReport describes the outcome of a controller tick.
type TickReport struct {
	// RunID identifies the controller instance.
	RunID uuid.UUID `json:"runId"`
	// Seq is the tick sequence number within a controller instance, starting at 1.
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
	// Paused indicates whether the adjustment phase took place inside a pause/resume bracket.
	Paused bool `json:"paused"`
	// APIErrors is the number of engine API errors contained during this tick.
	APIErrors int             `json:"apiErrors"`
	Sessions  []SessionReport `json:"sessions"`
}

// SessionReport describes the outcome of a controller tick on one session.
type SessionReport struct {
	Port         string           `json:"port"`
	Mode         Mode             `json:"mode"`
	TargetRate   float64          `json:"targetRate"`
	ObservedRate float64          `json:"observedRate"`
	RTT          engine.RttSample `json:"rtt"`
	Adjusted     bool             `json:"adjusted"`
	Error        string           `json:"error,omitempty"`
}
