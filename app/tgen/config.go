package tgen

import (
	"time"

	"github.com/usnistgov/tgenctl/core/nnduration"
)

// DefaultAdjustWindow is the default interval between controller ticks, in microseconds.
const DefaultAdjustWindow = 1000000

// Config contains Controller configuration.
type Config struct {
	// AdjustWindow is the interval between controller ticks.
	// Default is 1s.
	AdjustWindow nnduration.Microseconds `json:"adjustWindow,omitempty" yaml:"adjustWindow,omitempty"`
}

// Window returns the interval between controller ticks.
func (cfg Config) Window() time.Duration {
	return cfg.AdjustWindow.DurationOr(DefaultAdjustWindow)
}
